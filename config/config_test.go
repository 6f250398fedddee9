package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDBEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "kpi")
	t.Setenv("DB_USER", "engine")
	t.Setenv("DB_PASSWORD", "secret")
}

func TestLoadFromEnvironment(t *testing.T) {
	setDBEnv(t)
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("GENERATED_QUERIES_TABLE", "tgq_partition_3")
	t.Setenv("CHECK_INTERVAL_SECONDS", "300")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 5433, cfg.DBPort)
	assert.Equal(t, "kpi", cfg.DBName)
	assert.Equal(t, "engine", cfg.DBUser)
	assert.Equal(t, "secret", cfg.DBPassword)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "tgq_partition_3", cfg.GeneratedQueriesTable)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval())
}

func TestLoadDefaults(t *testing.T) {
	setDBEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.GeneratedQueriesTable)
	assert.Equal(t, time.Duration(0), cfg.CheckInterval())
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "kpi")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	setDBEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}
