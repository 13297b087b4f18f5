package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/joelkehle/lease-audit/internal/config"
)

func TestNewLevels(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error should be enabled at warn level")
	}

	dev, err := New(config.LoggingConfig{Development: true})
	if err != nil {
		t.Fatalf("new dev: %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("development logger should default to debug")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
