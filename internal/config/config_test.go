package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Scheduler.TriggerHour)
	assert.Equal(t, 4, cfg.ETL.Concurrency)
	assert.Equal(t, 3, cfg.Monitor.ErrorThreshold)
	assert.Equal(t, "memory", cfg.Storage.Provider)
	assert.Equal(t, "memory", cfg.Records.Provider)
	assert.Equal(t, "client_records", cfg.Records.Table)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INGEST_SERVER_PORT", "9090")
	t.Setenv("INGEST_ETL_CONCURRENCY", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.ETL.Concurrency)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"bad trigger hour", func(c *Config) { c.Scheduler.TriggerHour = 24 }},
		{"bad trigger minute", func(c *Config) { c.Scheduler.TriggerMinute = 60 }},
		{"zero concurrency", func(c *Config) { c.ETL.Concurrency = 0 }},
		{"auth without key", func(c *Config) { c.Server.AuthEnabled = true; c.Server.APIKey = "" }},
		{"unknown storage provider", func(c *Config) { c.Storage.Provider = "s3" }},
		{"gcs without bucket", func(c *Config) { c.Storage.Provider = "gcs"; c.Storage.GCSBucket = "" }},
		{"postgres without dsn", func(c *Config) { c.Records.Provider = "postgres"; c.Records.DSN = "" }},
		{"unknown records provider", func(c *Config) { c.Records.Provider = "mysql" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
