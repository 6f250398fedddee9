// Package bootstrap wires configuration, logging, storage and processors
// into a runnable application.
package bootstrap

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kpialarm/config"
	"kpialarm/detect"
	"kpialarm/storage"
)

// App holds the wired components of one engine process.
type App struct {
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Postgres  *storage.Postgres
	Rules     *storage.RuleStorage
	Groups    *storage.GroupStorage
	Schedules *storage.ScheduleStorage
	Alarms    *storage.AlarmStorage
	Audit     *storage.AuditStorage
	Processor *detect.Processor
	Clear     *detect.ClearProcessor
}

// InitLogger builds the production JSON logger at the configured level.
func InitLogger(level string) (*zap.SugaredLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Sugar(), nil
}

// NewApp loads configuration, connects to the database and wires every
// component. Only configuration and connection failures are fatal.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	pg, err := storage.NewPostgres(storage.ConnConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
	}, logger)
	if err != nil {
		return nil, err
	}

	rules := storage.NewRuleStorage(pg.DB, cfg.GeneratedQueriesTable, logger)
	groups := storage.NewGroupStorage(pg.DB, logger)
	schedules := storage.NewScheduleStorage(pg.DB, logger)
	alarms := storage.NewAlarmStorage(pg.DB, logger)
	audit := storage.NewAuditStorage(pg.DB, cfg.GeneratedQueriesTable, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Postgres:  pg,
		Rules:     rules,
		Groups:    groups,
		Schedules: schedules,
		Alarms:    alarms,
		Audit:     audit,
		Processor: detect.NewProcessor(pg.DB, rules, groups, schedules, alarms, audit, logger),
		Clear:     detect.NewClearProcessor(alarms, logger),
	}, nil
}

// SetupSchema creates the engine-owned tables.
func (a *App) SetupSchema() error {
	return storage.SetupSchema(a.Postgres.DB, a.Audit.Table(), a.Logger)
}

// Close releases the database connection and flushes the logger.
func (a *App) Close() {
	if err := a.Postgres.Close(); err != nil {
		a.Logger.Warnf("Failed to close database: %v", err)
	}
	_ = a.Logger.Sync()
}
