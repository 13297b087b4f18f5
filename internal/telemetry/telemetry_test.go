package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/joelkehle/lease-audit/internal/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "lease-audit-test"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsSampled() {
		t.Fatal("disabled telemetry should not sample")
	}
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
