package storage

import (
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kpialarm/core"
)

func newAlarmStorageMock(t *testing.T) (sqlmock.Sqlmock, *AlarmStorage) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, NewAlarmStorage(db, zap.NewNop().Sugar())
}

func TestInsertAlarm(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO threshold_alarms")).
		WithArgs("ALARM_DEADBEEF", int64(7), "cpu_metrics", "cpu_usage", "srv1",
			ts, "95", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	alarm := &core.Alarm{
		AlarmID: "ALARM_DEADBEEF", ThresholdID: 7,
		TableName: "cpu_metrics", MetricName: "cpu_usage",
		RecordID: "srv1", RecordTimestamp: ts, MetricValue: "95",
		UpperLimit: 90, OccurrenceCount: 1,
		Severity: core.SeverityCritical,
		Message:  core.AlarmMessage("cpu_metrics", "cpu_usage", "srv1", "95", 1),
	}

	require.NoError(t, as.InsertAlarm(alarm))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveOrdersAscending(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	columns := []string{
		"alarm_id", "threshold_id", "tablename", "metricname", "record_id",
		"record_timestamp", "metric_value", "lowerlimit", "upperlimit",
		"occurrence_count", "alarm_severity", "alarm_status", "alarm_message",
		"created_at", "updated_at",
	}
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("ALARM_00000001", 7, "cpu_metrics", "cpu_usage", "srv1",
				t1, "95", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", "msg", t1, t1).
			AddRow("ALARM_00000002", 7, "cpu_metrics", "cpu_usage", "srv2",
				t2, "96", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", "msg", t2, t2))

	alarms, err := as.ListActive()
	require.NoError(t, err)
	require.Len(t, alarms, 2)
	assert.Equal(t, "ALARM_00000001", alarms[0].AlarmID)
	assert.Equal(t, core.SeverityCritical, alarms[0].Severity)
	assert.Equal(t, core.AlarmStatusActive, alarms[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecClear(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cleared, err := as.ExecClear("UPDATE threshold_alarms ta SET alarm_status = 'CLEARED' WHERE 1=0")
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecClearNoMatch(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnResult(sqlmock.NewResult(0, 0))

	cleared, err := as.ExecClear("UPDATE threshold_alarms ta SET alarm_status = 'CLEARED' WHERE 1=0")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestExecClearError(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnError(errors.New("relation does not exist"))

	_, err := as.ExecClear("UPDATE threshold_alarms ta SET alarm_status = 'CLEARED'")
	assert.Error(t, err)
}

func TestClearedSummary(t *testing.T) {
	mock, as := newAlarmStorageMock(t)

	columns := []string{
		"alarm_id", "threshold_id", "tablename", "metricname", "record_id",
		"record_timestamp", "metric_value", "lowerlimit", "upperlimit",
		"occurrence_count", "alarm_severity", "alarm_status", "alarm_message",
		"created_at", "updated_at",
	}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE alarm_status = 'CLEARED'")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("ALARM_00000003", 7, "cpu_metrics", "cpu_usage", "srv1",
				now, "70", 0.0, 90.0, 1, "CRITICAL", "CLEARED", "msg", now, now))

	alarms, err := as.ClearedSummary(50)
	require.NoError(t, err)
	require.Len(t, alarms, 1)
	assert.Equal(t, core.AlarmStatusCleared, alarms[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
