package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"kpialarm/core"
)

// RuleStorage handles threshold rule persistence and the active-job join.
type RuleStorage struct {
	db         *sql.DB
	auditTable string
	logger     *zap.SugaredLogger
}

// NewRuleStorage creates a new rule storage handler. auditTable is the
// generated-queries table joined for watermarks; empty selects the default.
func NewRuleStorage(db *sql.DB, auditTable string, logger *zap.SugaredLogger) *RuleStorage {
	if auditTable == "" {
		auditTable = DefaultGeneratedQueriesTable
	}
	return &RuleStorage{db: db, auditTable: auditTable, logger: logger}
}

// InsertRules persists flattened rule rows. Rows are inserted one by one so a
// single malformed rule does not block the rest of the batch.
func (rs *RuleStorage) InsertRules(rules []core.Rule) (int, error) {
	query := `
		INSERT INTO threshold_rules (
			name, metric, mode, category, lowerlimit, upperlimit,
			occurrence, clearoccurrence, cleartime, time, activeuntil,
			periodgranularity, schedule, tag, user_groups, resource,
			threshold_group, target_rule, can_edit, owner, update_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	inserted := 0
	for _, r := range rules {
		_, err := rs.db.Exec(query,
			r.Name, r.Metric, r.Mode, r.Category, r.LowerLimit, r.UpperLimit,
			r.Occurrence, r.ClearOccurrence, r.ClearTime, r.Time, r.ActiveUntil,
			r.PeriodGranularity, r.Schedule, r.Tag, r.UserGroups, r.Resource,
			r.ThresholdGroup, r.TargetRule, r.CanEdit, r.Owner, r.UpdateTime)
		if err != nil {
			rs.logger.Errorf("Failed to insert rule %q (%s/%s): %v", r.Name, r.Mode, r.Category, err)
			continue
		}
		inserted++
	}

	rs.logger.Infof("Inserted %d of %d rules", inserted, len(rules))
	return inserted, nil
}

// ListActiveJobs joins active rules to their fact-table binding and execution
// watermark. The join normalizes both sides the same way the pivoted
// predicate does: lowercase, stat prefix stripped, dots joined by underscore,
// so a binding stored with the raw metric name still matches. Rules with a
// NULL or sentinel activeuntil never expire. The watermark falls back to the
// rule creation time on the first run.
func (rs *RuleStorage) ListActiveJobs() ([]core.Job, error) {
	query := fmt.Sprintf(`
		SELECT a.threshold_id, b.tablename, b.metricname, a.mode, a.category,
		       a.lowerlimit, a.upperlimit, a.occurrence, a.clearoccurrence,
		       a.cleartime, a.time, a.periodgranularity, a.schedule,
		       a.resource, a.threshold_group,
		       COALESCE(c.execution_datetime, a.created_at) AS execution_datetime
		FROM threshold_rules a
		JOIN metricsandtables b
		  ON replace(replace(replace(replace(replace(lower(a.metric),
		       'smax_', ''), 'savg_', ''), 'ssum_', ''), 'smin_', ''), '.', '_')
		   = replace(replace(replace(replace(replace(lower(b.metricname),
		       'smax_', ''), 'savg_', ''), 'ssum_', ''), 'smin_', ''), '.', '_')
		LEFT JOIN %s c ON c.threshold_id = a.threshold_id
		WHERE a.activeuntil IS NULL
		   OR a.activeuntil = '%s'
		   OR a.activeuntil = ''
		   OR a.activeuntil::timestamp > CURRENT_TIMESTAMP
		ORDER BY a.threshold_id ASC
	`, rs.auditTable, core.ActiveUntilSentinel)

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active jobs: %w", err)
	}
	defer rows.Close()

	var jobs []core.Job
	for rows.Next() {
		var j core.Job
		var schedule, resource, group sql.NullString
		err := rows.Scan(&j.ThresholdID, &j.TableName, &j.MetricName, &j.Mode, &j.Category,
			&j.LowerLimit, &j.UpperLimit, &j.Occurrence, &j.ClearOccurrence,
			&j.ClearTime, &j.Time, &j.PeriodGranularity, &schedule,
			&resource, &group, &j.ExecutionDatetime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		j.Schedule = schedule.String
		j.Resource = resource.String
		j.ThresholdGroup = group.String
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}

	return jobs, nil
}
