// Package config loads lease-audit settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Blobs     BlobConfig      `yaml:"blobs"`
	Records   RecordConfig    `yaml:"records"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	AWS       AWSConfig       `yaml:"aws"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	PublicURL       string `yaml:"public_url"`
	MaxUploadBytes  int64  `yaml:"max_upload_bytes"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	WebhookSecret   string `yaml:"webhook_secret"`
}

// BlobConfig selects the blob backend: "fs" or "s3".
type BlobConfig struct {
	Backend    string `yaml:"backend"`
	Root       string `yaml:"root"`
	Bucket     string `yaml:"bucket"`
	Prefix     string `yaml:"prefix"`
	SigningKey string `yaml:"signing_key"`
	URLTTL     string `yaml:"url_ttl"`
}

// RecordConfig selects the record backend: "memory", "file", "sqlite" or "dynamodb".
type RecordConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Table   string `yaml:"table"`
}

type ReportConfig struct {
	Font       string `yaml:"font"`
	ChromePath string `yaml:"chrome_path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

type AWSConfig struct {
	Region string `yaml:"region"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			PublicURL:       "http://localhost:8080",
			MaxUploadBytes:  20 << 20,
			ShutdownTimeout: "10s",
		},
		Blobs: BlobConfig{
			Backend: "fs",
			Root:    "./data/blobs",
			URLTTL:  "15m",
		},
		Records: RecordConfig{
			Backend: "file",
			Path:    "./data/audits.json",
			Table:   "lease-audits",
		},
		Report: ReportConfig{
			Font: "Helvetica",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "lease-audit",
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "LEASEAUDIT_ADDR")
	set(&c.Server.PublicURL, "LEASEAUDIT_PUBLIC_URL")
	set(&c.Server.WebhookSecret, "LEASEAUDIT_WEBHOOK_SECRET")
	set(&c.Blobs.Backend, "LEASEAUDIT_BLOB_BACKEND")
	set(&c.Blobs.Root, "LEASEAUDIT_BLOB_ROOT")
	set(&c.Blobs.Bucket, "LEASEAUDIT_BUCKET")
	set(&c.Blobs.SigningKey, "LEASEAUDIT_SIGNING_KEY")
	set(&c.Records.Backend, "LEASEAUDIT_RECORD_BACKEND")
	set(&c.Records.Path, "LEASEAUDIT_RECORD_PATH")
	set(&c.Records.Table, "LEASEAUDIT_TABLE")
	set(&c.Logging.Level, "LEASEAUDIT_LOG_LEVEL")
	set(&c.AWS.Region, "AWS_REGION")
	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	}
}

func (c *Config) Validate() error {
	switch c.Blobs.Backend {
	case "fs":
		if c.Blobs.Root == "" {
			return fmt.Errorf("blobs.root is required for the fs backend")
		}
	case "s3":
		if c.Blobs.Bucket == "" {
			return fmt.Errorf("blobs.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown blob backend %q", c.Blobs.Backend)
	}
	switch c.Records.Backend {
	case "memory", "dynamodb":
	case "file", "sqlite":
		if c.Records.Path == "" {
			return fmt.Errorf("records.path is required for the %s backend", c.Records.Backend)
		}
	default:
		return fmt.Errorf("unknown record backend %q", c.Records.Backend)
	}
	for name, v := range map[string]string{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"blobs.url_ttl":           c.Blobs.URLTTL,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// ValidateServe checks what the HTTP server needs on top of Validate. Without
// a webhook secret any caller could mark an audit paid.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.WebhookSecret) == "" {
		return fmt.Errorf("server.webhook_secret (or LEASEAUDIT_WEBHOOK_SECRET) is required to serve")
	}
	return nil
}

func (c *Config) GetURLTTL() time.Duration {
	return parseDuration(c.Blobs.URLTTL, 15*time.Minute)
}

func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
