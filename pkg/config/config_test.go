package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_PipelineConfig(t *testing.T) {
	os.Setenv("PIPELINE_K", "7")
	os.Setenv("PIPELINE_STRICT", "true")
	os.Setenv("PIPELINE_RESOURCE_TYPE", "Observation")
	defer func() {
		os.Unsetenv("PIPELINE_K")
		os.Unsetenv("PIPELINE_STRICT")
		os.Unsetenv("PIPELINE_RESOURCE_TYPE")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 7, cfg.Pipeline.K)
	assert.True(t, cfg.Pipeline.Strict)
	assert.Equal(t, "Observation", cfg.Pipeline.ResourceType)
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PIPELINE_K")
	os.Unsetenv("LEDGER_BACKEND")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 5, cfg.Pipeline.K)
	assert.False(t, cfg.Pipeline.Strict)
	assert.Equal(t, "none", cfg.Ledger.Backend)
	assert.Equal(t, "ledger:provenance", cfg.Ledger.Stream)
}

func TestLoad_LedgerConfig(t *testing.T) {
	os.Setenv("LEDGER_BACKEND", "redis")
	os.Setenv("LEDGER_STREAM", "test:stream")
	defer func() {
		os.Unsetenv("LEDGER_BACKEND")
		os.Unsetenv("LEDGER_STREAM")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "redis", cfg.Ledger.Backend)
	assert.Equal(t, "test:stream", cfg.Ledger.Stream)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "app",
		Password: "secret",
		Database: "records",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db port=5433 user=app password=secret dbname=records sslmode=require", cfg.DatabaseDSN())
}
