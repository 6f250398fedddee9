package compile

import (
	"fmt"
	"strings"

	"kpialarm/core"
)

// LookbackDays bounds the history window the occurrence verifier scans.
const LookbackDays = 15

// OccurrenceSQL builds the windowed lookback query confirming that the
// occurrence-1 samples immediately preceding (recordID, recordTimestamp) in
// the same id-stream also violated the job's limits. The query returns a
// count that is positive iff every prior sample satisfied the limit
// predicate.
//
// The stream key is (id) for column-wide tables and ("Id", udc_config_name)
// for the pivoted table.
func OccurrenceSQL(job *core.Job, recordID, recordTimestamp string) string {
	var (
		selectCols []string
		lagParts   []string
		whereParts []string
		fromClause string
	)

	id := escapeLiteral(recordID)
	ts := escapeLiteral(recordTimestamp)

	if job.Pivoted() {
		selectCols = []string{`"Id" AS id`, "timestamp", "udc_config_value::numeric AS metric_value"}
		for occ := 1; occ < job.Occurrence; occ++ {
			lagParts = append(lagParts, fmt.Sprintf(
				`LAG(udc_config_value, %d) OVER (PARTITION BY "Id", udc_config_name ORDER BY timestamp) AS prev%d`,
				occ, occ))
		}
		fromClause = fmt.Sprintf(
			`FROM %s WHERE "Id" = '%s' AND replace(lower(udc_config_name),'.','_') = replace(lower('%s'),'.','_') AND timestamp::timestamp > now() - INTERVAL '%d days'`,
			core.PivotTableName, id, job.MetricName, LookbackDays)
	} else {
		selectCols = []string{"id", "timestamp", fmt.Sprintf("%s::numeric AS metric_value", job.MetricName)}
		for occ := 1; occ < job.Occurrence; occ++ {
			lagParts = append(lagParts, fmt.Sprintf(
				"LAG(%s, %d) OVER (PARTITION BY id ORDER BY timestamp) AS prev%d",
				job.MetricName, occ, occ))
		}
		fromClause = fmt.Sprintf(
			"FROM %s WHERE id = '%s' AND timestamp::timestamp > now() - INTERVAL '%d days'",
			job.TableName, id, LookbackDays)
	}

	for occ := 1; occ < job.Occurrence; occ++ {
		if job.HasLowerLimit() {
			whereParts = append(whereParts,
				fmt.Sprintf("AND prev%d::numeric <= %s", occ, FormatLimit(job.LowerLimit)))
		}
		if job.HasUpperLimit() {
			whereParts = append(whereParts,
				fmt.Sprintf("AND prev%d::numeric >= %s", occ, FormatLimit(job.UpperLimit)))
		}
	}

	cols := strings.Join(append(selectCols, lagParts...), ", ")
	query := fmt.Sprintf(
		"WITH ordered AS (SELECT %s %s) SELECT count(*) AS cnt FROM ordered WHERE id = '%s' AND timestamp = '%s'",
		cols, fromClause, id, ts)
	if len(whereParts) > 0 {
		query += " " + strings.Join(whereParts, " ")
	}
	return query
}

// escapeLiteral doubles single quotes for safe embedding in SQL literals.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
