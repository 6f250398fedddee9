package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kpialarm/core"
)

// ErrScheduleNotFound is returned when a rule references a schedule that is
// missing or disabled.
var ErrScheduleNotFound = errors.New("time scheduling not found")

// ScheduleStorage reads the platform-owned time_schedulings table.
type ScheduleStorage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewScheduleStorage creates a new time scheduling reader.
func NewScheduleStorage(db *sql.DB, logger *zap.SugaredLogger) *ScheduleStorage {
	return &ScheduleStorage{db: db, logger: logger}
}

// GetSchedule returns the enabled schedule's intervals and IANA timezone.
// time_period is stored as a JSON list of {from, to} millisecond offsets.
func (ss *ScheduleStorage) GetSchedule(name string) ([]core.TimePeriod, string, error) {
	var periodsJSON, tz string
	err := ss.db.QueryRow(
		"SELECT time_period, tz FROM time_schedulings WHERE name = $1 AND enabled = true", name,
	).Scan(&periodsJSON, &tz)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: %s", ErrScheduleNotFound, name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query time scheduling: %w", err)
	}

	var periods []core.TimePeriod
	if err := json.Unmarshal([]byte(periodsJSON), &periods); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal time_period for %s: %w", name, err)
	}
	return periods, tz, nil
}
