// Package storage persists rules, generated-query audit rows and alarms in
// PostgreSQL, and reads the platform-owned lookup tables (metric bindings,
// group configurations, time schedulings).
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ConnConfig carries the connection parameters for the metrics database.
type ConnConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// Postgres holds the process-wide database connection pool.
type Postgres struct {
	DB     *sql.DB
	Logger *zap.SugaredLogger
}

// NewPostgres opens and verifies a connection pool to the metrics database.
func NewPostgres(cfg ConnConfig, logger *zap.SugaredLogger) (*Postgres, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to database %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	return &Postgres{DB: db, Logger: logger}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.DB.Close()
}
