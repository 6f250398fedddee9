package compile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kpialarm/core"
)

func detectionJob() *core.Job {
	return &core.Job{
		ThresholdID: 7,
		TableName:   "cpu_metrics",
		MetricName:  "cpu_usage",
		Mode:        core.ModeBurst,
		Category:    "critical",
		UpperLimit:  90,
		Occurrence:  1,
	}
}

func window() DetectionOptions {
	return DetectionOptions{
		Watermark: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Now:       time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestDetectionSQLColumnWide(t *testing.T) {
	sql := DetectionSQL(detectionJob(), window())

	assert.Contains(t, sql, "SELECT id, timestamp, cpu_usage as metric_value")
	assert.Contains(t, sql, "FROM cpu_metrics a")
	assert.Contains(t, sql, "created_at > '2024-01-01 09:00:00'")
	assert.Contains(t, sql, "created_at <= '2024-01-01 10:30:00'")
	assert.Contains(t, sql, "CAST(cpu_usage AS NUMERIC) >= 90")
	assert.True(t, len(sql) > 0 && sql[len(sql)-len("ORDER BY id, timestamp ASC"):] == "ORDER BY id, timestamp ASC")
}

func TestDetectionSQLLimitPredicateCompleteness(t *testing.T) {
	// lower only
	job := detectionJob()
	job.UpperLimit = 0
	job.LowerLimit = 10
	sql := DetectionSQL(job, window())
	assert.Contains(t, sql, "CAST(cpu_usage AS NUMERIC) <= 10")
	assert.NotContains(t, sql, ">= ")

	// both limits combine with AND
	job.UpperLimit = 95
	sql = DetectionSQL(job, window())
	assert.Contains(t, sql, "(CAST(cpu_usage AS NUMERIC) <= 10 AND CAST(cpu_usage AS NUMERIC) >= 95)")

	// limits at or below zero are not set
	job.LowerLimit = 0
	job.UpperLimit = -5
	sql = DetectionSQL(job, window())
	assert.NotContains(t, sql, "CAST(cpu_usage AS NUMERIC) <=")
	assert.NotContains(t, sql, "CAST(cpu_usage AS NUMERIC) >=")
}

func TestDetectionSQLGroupAndSchedule(t *testing.T) {
	opts := window()
	opts.GroupExists = "SELECT 1 FROM enrichmentdetails b WHERE LEFT(a.id, 11) = b.fullname AND type = lower('du')"
	opts.Schedule = "AND timestamp >= '2024-01-01 14:00:00' AND timestamp <= '2024-01-01 23:00:00'"

	sql := DetectionSQL(detectionJob(), opts)
	assert.Contains(t, sql, "and exists (SELECT 1 FROM enrichmentdetails b")
	assert.Contains(t, sql, "AND timestamp >= '2024-01-01 14:00:00'")
}

func TestDetectionSQLPivoted(t *testing.T) {
	job := detectionJob()
	job.TableName = "ruleexecutionresults"
	job.MetricName = "acpf_cpuusagemax_percent"

	sql := DetectionSQL(job, window())
	assert.Contains(t, sql, `SELECT "Id" as id, timestamp, udc_config_name as metric_name, udc_config_value as metric_value`)
	assert.Contains(t, sql, "FROM ruleexecutionresults a")
	assert.Contains(t, sql,
		"replace(lower(udc_config_name),'.','_') = replace(lower('acpf_cpuusagemax_percent'),'.','_')")
	assert.Contains(t, sql, "CAST(udc_config_value AS NUMERIC) >= 90")
	assert.Contains(t, sql, "ORDER BY id, timestamp ASC")
}

func TestDetectionSQLWatermarkIsStrict(t *testing.T) {
	sql := DetectionSQL(detectionJob(), window())
	assert.Contains(t, sql, "created_at > '2024-01-01 09:00:00'")
	assert.NotContains(t, sql, "created_at >= '2024-01-01 09:00:00'")
}

func TestFormatLimit(t *testing.T) {
	assert.Equal(t, "90", FormatLimit(90))
	assert.Equal(t, "90.5", FormatLimit(90.5))
	assert.Equal(t, "0.25", FormatLimit(0.25))
}

func TestSQLTimestampTrimsZeros(t *testing.T) {
	assert.Equal(t, "2024-01-01 10:00:00",
		SQLTimestamp(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-01 10:00:00.5",
		SQLTimestamp(time.Date(2024, 1, 1, 10, 0, 0, 500000000, time.UTC)))
}
