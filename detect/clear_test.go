package detect

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kpialarm/storage"
)

var alarmColumns = []string{
	"alarm_id", "threshold_id", "tablename", "metricname", "record_id",
	"record_timestamp", "metric_value", "lowerlimit", "upperlimit",
	"occurrence_count", "alarm_severity", "alarm_status", "alarm_message",
	"created_at", "updated_at",
}

func newClearMock(t *testing.T) (sqlmock.Sqlmock, *ClearProcessor) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop().Sugar()
	return mock, NewClearProcessor(storage.NewAlarmStorage(db, logger), logger)
}

func activeAlarmRow(alarmID string) *sqlmock.Rows {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(alarmColumns).
		AddRow(alarmID, 7, "cpu_metrics", "cpu_usage", "srv1",
			ts, "95", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", "msg", ts, ts)
}

func TestClearPassClearsRecoveredAlarm(t *testing.T) {
	mock, cp := newClearMock(t)

	mock.ExpectQuery("WHERE alarm_status = 'ACTIVE'").
		WillReturnRows(activeAlarmRow("ALARM_00000001"))

	// the compiled statement requires a newer sample strictly inside the limits
	mock.ExpectExec(regexp.QuoteMeta("CAST(t.cpu_usage AS NUMERIC) > 90")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary, err := cp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Cleared)
	assert.Equal(t, 0, summary.Failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearPassLeavesUnrecoveredAlarmActive(t *testing.T) {
	mock, cp := newClearMock(t)

	mock.ExpectQuery("WHERE alarm_status = 'ACTIVE'").
		WillReturnRows(activeAlarmRow("ALARM_00000001"))

	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnResult(sqlmock.NewResult(0, 0))

	summary, err := cp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Cleared)
	assert.Equal(t, 0, summary.Failed)
}

func TestClearPassContinuesPastFailure(t *testing.T) {
	mock, cp := newClearMock(t)

	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(alarmColumns).
		AddRow("ALARM_00000001", 7, "cpu_metrics", "cpu_usage", "srv1",
			ts, "95", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", "msg", ts, ts).
		AddRow("ALARM_00000002", 7, "cpu_metrics", "cpu_usage", "srv2",
			ts, "96", 0.0, 90.0, 1, "CRITICAL", "ACTIVE", "msg", ts, ts)

	mock.ExpectQuery("WHERE alarm_status = 'ACTIVE'").WillReturnRows(rows)

	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectExec("UPDATE threshold_alarms").
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary, err := cp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Cleared)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "ALARM_00000001")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearPassListFailure(t *testing.T) {
	mock, cp := newClearMock(t)

	mock.ExpectQuery("WHERE alarm_status = 'ACTIVE'").
		WillReturnError(errors.New("connection reset"))

	_, err := cp.Run(context.Background())
	assert.Error(t, err)
}
