package storage

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// DefaultGeneratedQueriesTable is the audit table used when no override is
// configured.
const DefaultGeneratedQueriesTable = "threshold_generated_queries"

// SetupSchema creates the tables this engine owns. Lookup tables
// (metricsandtables, group_configurations, time_schedulings,
// enrichmentdetails) and the fact tables belong to the platform and are
// never created here.
func SetupSchema(db *sql.DB, generatedQueriesTable string, logger *zap.SugaredLogger) error {
	if generatedQueriesTable == "" {
		generatedQueriesTable = DefaultGeneratedQueriesTable
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS threshold_rules (
			threshold_id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			metric TEXT NOT NULL,
			mode TEXT NOT NULL,
			category TEXT NOT NULL,
			lowerlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			upperlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			occurrence INTEGER NOT NULL DEFAULT 0,
			clearoccurrence INTEGER NOT NULL DEFAULT 0,
			cleartime INTEGER NOT NULL DEFAULT 0,
			time INTEGER NOT NULL DEFAULT 0,
			activeuntil TEXT NOT NULL DEFAULT 'No end date',
			periodgranularity INTEGER NOT NULL DEFAULT 0,
			schedule TEXT NOT NULL DEFAULT '',
			tag TEXT NOT NULL DEFAULT '',
			user_groups TEXT NOT NULL DEFAULT '',
			resource TEXT NOT NULL DEFAULT '',
			threshold_group TEXT NOT NULL DEFAULT '',
			target_rule TEXT NOT NULL DEFAULT '',
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			owner TEXT NOT NULL DEFAULT '',
			update_time BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			threshold_id BIGINT NOT NULL,
			tablename TEXT NOT NULL,
			metricname TEXT NOT NULL,
			mode TEXT NOT NULL,
			category TEXT NOT NULL,
			lowerlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			upperlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			occurrence INTEGER NOT NULL DEFAULT 0,
			generated_sql_query TEXT NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			execution_datetime TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, generatedQueriesTable),

		// one audit row per rule, upserted each tick
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_threshold_id
			ON %s (threshold_id)`, generatedQueriesTable, generatedQueriesTable),

		`CREATE TABLE IF NOT EXISTS threshold_alarms (
			alarm_id TEXT PRIMARY KEY,
			threshold_id BIGINT NOT NULL,
			tablename TEXT NOT NULL,
			metricname TEXT NOT NULL,
			record_id TEXT NOT NULL,
			record_timestamp TIMESTAMP NOT NULL,
			metric_value TEXT NOT NULL DEFAULT '',
			lowerlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			upperlimit DOUBLE PRECISION NOT NULL DEFAULT 0,
			occurrence_count INTEGER NOT NULL DEFAULT 0,
			alarm_severity TEXT NOT NULL,
			alarm_status TEXT NOT NULL DEFAULT 'ACTIVE',
			alarm_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_threshold_id ON threshold_alarms (threshold_id)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_tablename ON threshold_alarms (tablename)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_record_id ON threshold_alarms (record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_record_timestamp ON threshold_alarms (record_timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_alarm_status ON threshold_alarms (alarm_status)`,
		`CREATE INDEX IF NOT EXISTS idx_threshold_alarms_created_at ON threshold_alarms (created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run schema statement: %w", err)
		}
	}

	logger.Infof("Schema setup complete (audit table %s)", generatedQueriesTable)
	return nil
}
