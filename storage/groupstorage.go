package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrGroupNotFound is returned when a rule references a group that has no
// configuration row.
var ErrGroupNotFound = errors.New("group configuration not found")

// GroupStorage reads the platform-owned group_configurations table.
type GroupStorage struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewGroupStorage creates a new group configuration reader.
func NewGroupStorage(db *sql.DB, logger *zap.SugaredLogger) *GroupStorage {
	return &GroupStorage{db: db, logger: logger}
}

// GetCondition returns the DSL condition text for a group name.
func (gs *GroupStorage) GetCondition(groupName string) (string, error) {
	var condition string
	err := gs.db.QueryRow(
		"SELECT condition FROM group_configurations WHERE group_name = $1", groupName,
	).Scan(&condition)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrGroupNotFound, groupName)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query group configuration: %w", err)
	}
	return condition, nil
}
