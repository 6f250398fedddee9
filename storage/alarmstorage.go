package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"kpialarm/core"
)

// AlarmStorage handles threshold alarm persistence.
type AlarmStorage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewAlarmStorage creates a new alarm storage handler.
func NewAlarmStorage(db *sql.DB, logger *zap.SugaredLogger) *AlarmStorage {
	return &AlarmStorage{db: db, logger: logger}
}

// InsertAlarm persists a newly raised alarm as ACTIVE.
func (as *AlarmStorage) InsertAlarm(alarm *core.Alarm) error {
	query := `
		INSERT INTO threshold_alarms (
			alarm_id, threshold_id, tablename, metricname, record_id,
			record_timestamp, metric_value, lowerlimit, upperlimit,
			occurrence_count, alarm_severity, alarm_status, alarm_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := as.db.Exec(query,
		alarm.AlarmID, alarm.ThresholdID, alarm.TableName, alarm.MetricName,
		alarm.RecordID, alarm.RecordTimestamp, alarm.MetricValue,
		alarm.LowerLimit, alarm.UpperLimit, alarm.OccurrenceCount,
		alarm.Severity.String(), core.AlarmStatusActive.String(), alarm.Message)
	if err != nil {
		return fmt.Errorf("failed to insert alarm %s: %w", alarm.AlarmID, err)
	}

	return nil
}

// ListActive returns ACTIVE alarms in insertion order, oldest first. The
// clear processor walks this list once per pass.
func (as *AlarmStorage) ListActive() ([]core.Alarm, error) {
	query := `
		SELECT alarm_id, threshold_id, tablename, metricname, record_id,
		       record_timestamp, metric_value, lowerlimit, upperlimit,
		       occurrence_count, alarm_severity, alarm_status, alarm_message,
		       created_at, updated_at
		FROM threshold_alarms
		WHERE alarm_status = 'ACTIVE'
		ORDER BY created_at ASC
	`

	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active alarms: %w", err)
	}
	defer rows.Close()

	var alarms []core.Alarm
	for rows.Next() {
		var a core.Alarm
		var severity, status string
		err := rows.Scan(&a.AlarmID, &a.ThresholdID, &a.TableName, &a.MetricName,
			&a.RecordID, &a.RecordTimestamp, &a.MetricValue,
			&a.LowerLimit, &a.UpperLimit, &a.OccurrenceCount,
			&severity, &status, &a.Message, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm row: %w", err)
		}
		a.Severity = core.Severity(severity)
		a.Status = core.AlarmStatus(status)
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarm rows: %w", err)
	}

	return alarms, nil
}

// ExecClear runs one compiled clear statement and reports whether it moved
// the alarm to CLEARED.
func (as *AlarmStorage) ExecClear(clearSQL string) (bool, error) {
	result, err := as.db.Exec(clearSQL)
	if err != nil {
		return false, fmt.Errorf("failed to execute clear statement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read clear row count: %w", err)
	}
	return affected > 0, nil
}

// ClearedSummary returns recently cleared alarms for post-pass reporting.
func (as *AlarmStorage) ClearedSummary(limit int) ([]core.Alarm, error) {
	query := `
		SELECT alarm_id, threshold_id, tablename, metricname, record_id,
		       record_timestamp, metric_value, lowerlimit, upperlimit,
		       occurrence_count, alarm_severity, alarm_status, alarm_message,
		       created_at, updated_at
		FROM threshold_alarms
		WHERE alarm_status = 'CLEARED'
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := as.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cleared alarms: %w", err)
	}
	defer rows.Close()

	var alarms []core.Alarm
	for rows.Next() {
		var a core.Alarm
		var severity, status string
		err := rows.Scan(&a.AlarmID, &a.ThresholdID, &a.TableName, &a.MetricName,
			&a.RecordID, &a.RecordTimestamp, &a.MetricValue,
			&a.LowerLimit, &a.UpperLimit, &a.OccurrenceCount,
			&severity, &status, &a.Message, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cleared alarm row: %w", err)
		}
		a.Severity = core.Severity(severity)
		a.Status = core.AlarmStatus(status)
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cleared alarm rows: %w", err)
	}

	return alarms, nil
}
