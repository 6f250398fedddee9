package core

import (
	"time"
)

// Rule is one (mode, category) pair flattened from one evaluation record of a
// threshold definition, with all associated limits, counters, schedule and
// resource group. Multiple enabled categories in a single evaluation fan out
// into multiple rules sharing (name, metric).
type Rule struct {
	ThresholdID       int64   `json:"threshold_id"`
	Name              string  `json:"name"`
	Metric            string  `json:"metric"`
	Mode              string  `json:"mode"`     // burst or period
	Category          string  `json:"category"` // critical, major, minor, warning
	LowerLimit        float64 `json:"lowerlimit"`
	UpperLimit        float64 `json:"upperlimit"`
	Occurrence        int     `json:"occurrence"`
	ClearOccurrence   int     `json:"clearoccurrence"`
	ClearTime         int     `json:"cleartime"`
	Time              int     `json:"time"`
	ActiveUntil       string  `json:"activeuntil"`
	PeriodGranularity int     `json:"periodgranularity"`
	Schedule          string  `json:"schedule"`
	Tag               string  `json:"tag"`
	UserGroups        string  `json:"user_groups"`
	Resource          string  `json:"resource"`        // JSON text
	ThresholdGroup    string  `json:"threshold_group"` // JSON text, list of {source_id}
	TargetRule        string  `json:"target_rule"`
	CanEdit           bool    `json:"can_edit"`
	Owner             string  `json:"owner"`
	UpdateTime        int64   `json:"update_time"`
}

// HasLowerLimit reports whether the lower limit participates in the
// detection predicate. Limits at or below zero are treated as not set.
func (r *Rule) HasLowerLimit() bool {
	return r.LowerLimit > 0
}

// HasUpperLimit reports whether the upper limit participates in the
// detection predicate.
func (r *Rule) HasUpperLimit() bool {
	return r.UpperLimit > 0
}

// Job is an active rule joined to its fact-table binding, ready for
// compilation. ExecutionDatetime is the rule's watermark: the last successful
// execution timestamp, falling back to rule creation time on the first run.
type Job struct {
	ThresholdID       int64
	TableName         string
	MetricName        string // normalized: lowercased, stat prefix stripped, dots joined by underscore
	Mode              string
	Category          string
	LowerLimit        float64
	UpperLimit        float64
	Occurrence        int
	ClearOccurrence   int
	ClearTime         int
	Time              int
	PeriodGranularity int
	Schedule          string
	Resource          string
	ThresholdGroup    string
	ExecutionDatetime time.Time
}

// Pivoted reports whether the job's fact table uses the pivoted shape.
func (j *Job) Pivoted() bool {
	return IsPivoted(j.TableName)
}

// HasLowerLimit reports whether the lower limit is set for this job.
func (j *Job) HasLowerLimit() bool {
	return j.LowerLimit > 0
}

// HasUpperLimit reports whether the upper limit is set for this job.
func (j *Job) HasUpperLimit() bool {
	return j.UpperLimit > 0
}

// GroupRef is one entry of a rule's resource-group reference list.
type GroupRef struct {
	SourceID string `json:"source_id"`
}

// TimePeriod is one schedule interval, in milliseconds since local midnight.
type TimePeriod struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// ExecutionResult is the audit record persisted per rule per tick.
type ExecutionResult struct {
	Job               Job
	GeneratedSQL      string
	RecordCount       int
	ExecutionDatetime time.Time
	Err               error
}
