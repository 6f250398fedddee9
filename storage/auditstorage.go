package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"kpialarm/core"
)

// AuditStorage upserts the per-rule generated-query audit row. The row's
// execution_datetime doubles as the rule's watermark, so a failed execution
// must upsert with the old watermark to avoid skipping rows next tick.
type AuditStorage struct {
	db     *sql.DB
	table  string
	logger *zap.SugaredLogger
}

// NewAuditStorage creates a new audit storage handler. table overrides the
// audit table name; empty selects the default.
func NewAuditStorage(db *sql.DB, table string, logger *zap.SugaredLogger) *AuditStorage {
	if table == "" {
		table = DefaultGeneratedQueriesTable
	}
	return &AuditStorage{db: db, table: table, logger: logger}
}

// Table returns the audit table name in use.
func (as *AuditStorage) Table() string {
	return as.table
}

// Upsert writes one rule's audit row for this tick, keyed by threshold_id.
func (as *AuditStorage) Upsert(result *core.ExecutionResult) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			threshold_id, tablename, metricname, mode, category,
			lowerlimit, upperlimit, occurrence, generated_sql_query,
			record_count, execution_datetime
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (threshold_id) DO UPDATE SET
			tablename = EXCLUDED.tablename,
			metricname = EXCLUDED.metricname,
			mode = EXCLUDED.mode,
			category = EXCLUDED.category,
			lowerlimit = EXCLUDED.lowerlimit,
			upperlimit = EXCLUDED.upperlimit,
			occurrence = EXCLUDED.occurrence,
			generated_sql_query = EXCLUDED.generated_sql_query,
			record_count = EXCLUDED.record_count,
			execution_datetime = EXCLUDED.execution_datetime,
			updated_at = CURRENT_TIMESTAMP
	`, as.table)

	j := result.Job
	var executionDatetime interface{}
	if !result.ExecutionDatetime.IsZero() {
		executionDatetime = result.ExecutionDatetime
	}

	_, err := as.db.Exec(query,
		j.ThresholdID, j.TableName, j.MetricName, j.Mode, j.Category,
		j.LowerLimit, j.UpperLimit, j.Occurrence, result.GeneratedSQL,
		result.RecordCount, executionDatetime)
	if err != nil {
		return fmt.Errorf("failed to upsert audit row for threshold %d: %w", j.ThresholdID, err)
	}

	return nil
}
