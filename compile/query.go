// Package compile assembles the SQL executed against fact tables: per-rule
// detection queries, occurrence lookback queries, schedule windows, and
// per-alarm clear statements. Everything here is pure string assembly;
// callers supply the clock and run the statements.
package compile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kpialarm/core"
)

// SQLTimestampLayout renders timestamps for SQL literals. Trailing
// sub-second zeros are trimmed so values round-trip against rows the
// database returns.
const SQLTimestampLayout = "2006-01-02 15:04:05.999999"

// DetectionOptions carries the resolved predicates a detection query embeds.
type DetectionOptions struct {
	// GroupExists is the body of the group EXISTS subquery, empty when the
	// rule carries no resource group.
	GroupExists string
	// Schedule is the schedule window predicate, empty when unconstrained.
	Schedule string
	// Watermark is the exclusive lower bound on created_at.
	Watermark time.Time
	// Now is the inclusive upper bound on created_at.
	Now time.Time
}

// DetectionSQL builds the detection query for one job: base row-set,
// incremental window, group predicate, schedule predicate, limit predicate,
// and deterministic ordering.
func DetectionSQL(job *core.Job, opts DetectionOptions) string {
	if job.Pivoted() {
		return pivotedDetectionSQL(job, opts)
	}

	parts := []string{
		fmt.Sprintf("SELECT id, timestamp, %s as metric_value", job.MetricName),
		fmt.Sprintf("FROM %s a", job.TableName),
		fmt.Sprintf("WHERE created_at > '%s' and created_at <= '%s'",
			SQLTimestamp(opts.Watermark), SQLTimestamp(opts.Now)),
	}
	if opts.GroupExists != "" {
		parts = append(parts, "and exists ("+opts.GroupExists+")")
	}
	if opts.Schedule != "" {
		parts = append(parts, opts.Schedule)
	}
	if limit := limitPredicate(job, job.MetricName); limit != "" {
		parts = append(parts, limit)
	}
	parts = append(parts, "ORDER BY id, timestamp ASC")

	return strings.Join(parts, " ")
}

// pivotedDetectionSQL builds the detection query against the tall
// (id, timestamp, metric_name, metric_value) store. The metric is matched by
// the normalized-name predicate rather than a column.
func pivotedDetectionSQL(job *core.Job, opts DetectionOptions) string {
	parts := []string{
		`SELECT "Id" as id, timestamp, udc_config_name as metric_name, udc_config_value as metric_value`,
		fmt.Sprintf("FROM %s a", core.PivotTableName),
		fmt.Sprintf("WHERE replace(lower(udc_config_name),'.','_') = replace(lower('%s'),'.','_')", job.MetricName),
		fmt.Sprintf("and created_at > '%s' and created_at <= '%s'",
			SQLTimestamp(opts.Watermark), SQLTimestamp(opts.Now)),
	}
	if opts.GroupExists != "" {
		parts = append(parts, "and exists ("+opts.GroupExists+")")
	}
	if opts.Schedule != "" {
		parts = append(parts, opts.Schedule)
	}
	if limit := limitPredicate(job, "udc_config_value"); limit != "" {
		parts = append(parts, limit)
	}
	parts = append(parts, "ORDER BY id, timestamp ASC")

	return strings.Join(parts, " ")
}

// limitPredicate renders the limit comparison for the given value column.
// A limit participates only when set (> 0); both set limits combine with AND.
// The detection edge is inclusive: at-or-beyond the configured limit raises.
func limitPredicate(job *core.Job, column string) string {
	var conditions []string
	if job.HasLowerLimit() {
		conditions = append(conditions,
			fmt.Sprintf("CAST(%s AS NUMERIC) <= %s", column, FormatLimit(job.LowerLimit)))
	}
	if job.HasUpperLimit() {
		conditions = append(conditions,
			fmt.Sprintf("CAST(%s AS NUMERIC) >= %s", column, FormatLimit(job.UpperLimit)))
	}
	if len(conditions) == 0 {
		return ""
	}
	return "AND (" + strings.Join(conditions, " AND ") + ")"
}

// SQLTimestamp formats a timestamp for embedding in a SQL literal.
func SQLTimestamp(t time.Time) string {
	return t.Format(SQLTimestampLayout)
}

// FormatLimit renders a numeric limit without trailing zeros.
func FormatLimit(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
