package core

import "strings"

// Severity represents the severity of a threshold alarm
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityWarning  Severity = "WARNING"
	// SeverityUnknown is emitted for any category outside the known set
	SeverityUnknown Severity = "UNKNOWN"
)

// String returns the string representation
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityWarning, SeverityUnknown:
		return true
	default:
		return false
	}
}

// AlarmStatus represents the lifecycle state of an alarm
type AlarmStatus string

const (
	// AlarmStatusActive indicates an alarm whose clear condition has not been met
	AlarmStatusActive AlarmStatus = "ACTIVE"
	// AlarmStatusCleared indicates an alarm that has been cleared; final state
	AlarmStatusCleared AlarmStatus = "CLEARED"
)

// String returns the string representation
func (s AlarmStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s AlarmStatus) IsValid() bool {
	switch s {
	case AlarmStatusActive, AlarmStatusCleared:
		return true
	default:
		return false
	}
}

// Rule evaluation modes
const (
	ModeBurst  = "burst"
	ModePeriod = "period"
)

// Categories, in the order evaluation documents enumerate them
var Categories = []string{"critical", "major", "minor", "warning"}

// severityByCategory maps a rule category to the alarm severity it raises
var severityByCategory = map[string]Severity{
	"critical": SeverityCritical,
	"major":    SeverityMajor,
	"minor":    SeverityMinor,
	"warning":  SeverityWarning,
}

// SeverityForCategory maps a rule category to an alarm severity.
// Unrecognised categories map to UNKNOWN rather than failing.
func SeverityForCategory(category string) Severity {
	if s, ok := severityByCategory[category]; ok {
		return s
	}
	return SeverityUnknown
}

// PivotTableName is the tall (id, timestamp, metric_name, metric_value) fact
// table holding upstream rule execution results alongside raw metrics.
const PivotTableName = "ruleexecutionresults"

// IsPivoted reports whether the given fact table uses the pivoted shape.
func IsPivoted(tablename string) bool {
	return strings.EqualFold(tablename, PivotTableName)
}

// ActiveUntilSentinel marks a rule that never expires
const ActiveUntilSentinel = "No end date"
