package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Alarm is one threshold violation raised against a fact row. Alarms are
// insert-only; the only mutation is the ACTIVE to CLEARED transition
// performed by the clear processor.
type Alarm struct {
	AlarmID         string      `json:"alarm_id"`
	ThresholdID     int64       `json:"threshold_id"`
	TableName       string      `json:"tablename"`
	MetricName      string      `json:"metricname"`
	RecordID        string      `json:"record_id"`
	RecordTimestamp time.Time   `json:"record_timestamp"`
	MetricValue     string      `json:"metric_value"`
	LowerLimit      float64     `json:"lowerlimit"`
	UpperLimit      float64     `json:"upperlimit"`
	OccurrenceCount int         `json:"occurrence_count"`
	Severity        Severity    `json:"alarm_severity"`
	Status          AlarmStatus `json:"alarm_status"`
	Message         string      `json:"alarm_message"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewAlarmID generates a unique alarm identifier of the form ALARM_<8 hex>.
func NewAlarmID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ALARM_" + strings.ToUpper(hex[:8])
}

// AlarmMessage builds the human-readable alarm message for a violating row.
func AlarmMessage(tablename, metricname, recordID, metricValue string, occurrenceCount int) string {
	return fmt.Sprintf(
		"Threshold violation detected for %s in %s. Record ID: %s, Value: %s, Occurrence Count: %d",
		metricname, tablename, recordID, metricValue, occurrenceCount)
}
