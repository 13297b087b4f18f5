package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "fs", cfg.Blobs.Backend)
	assert.Equal(t, 15*time.Minute, cfg.GetURLTTL())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaseaudit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
records:
  backend: sqlite
  path: /tmp/audits.db
blobs:
  url_ttl: 1h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Records.Backend)
	assert.Equal(t, time.Hour, cfg.GetURLTTL())
	assert.Equal(t, "./data/blobs", cfg.Blobs.Root, "unset keys keep defaults")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := Default()
	cfg.Records.Backend = "memory"
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", got.Records.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("backends and address", func(t *testing.T) {
		t.Setenv("LEASEAUDIT_ADDR", ":7000")
		t.Setenv("LEASEAUDIT_BLOB_BACKEND", "s3")
		t.Setenv("LEASEAUDIT_BUCKET", "leases")
		t.Setenv("LEASEAUDIT_RECORD_BACKEND", "dynamodb")
		t.Setenv("AWS_REGION", "us-west-2")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr)
		assert.Equal(t, "s3", cfg.Blobs.Backend)
		assert.Equal(t, "leases", cfg.Blobs.Bucket)
		assert.Equal(t, "dynamodb", cfg.Records.Backend)
		assert.Equal(t, "us-west-2", cfg.AWS.Region)
	})

	t.Run("otlp endpoint enables telemetry", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
		cfg := Default()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown blob backend", func(c *Config) { c.Blobs.Backend = "gcs" }},
		{"s3 without bucket", func(c *Config) { c.Blobs.Backend = "s3"; c.Blobs.Bucket = "" }},
		{"unknown record backend", func(c *Config) { c.Records.Backend = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Records.Backend = "sqlite"; c.Records.Path = "" }},
		{"bad duration", func(c *Config) { c.Blobs.URLTTL = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}

func TestValidateServeRequiresWebhookSecret(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.ErrorContains(t, cfg.ValidateServe(), "webhook_secret")

	t.Setenv("LEASEAUDIT_WEBHOOK_SECRET", "whsec")
	cfg.applyEnvOverrides()
	assert.Equal(t, "whsec", cfg.Server.WebhookSecret)
	require.NoError(t, cfg.ValidateServe())
}
