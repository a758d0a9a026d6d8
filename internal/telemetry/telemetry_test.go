package telemetry_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"go-toolchat/internal/config"
	"go-toolchat/internal/telemetry"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), config.TelemetryConfig{Enabled: true})
	gt.NoError(t, err)
	gt.NoError(t, shutdown(context.Background()))

	_, span := telemetry.Tracer().Start(context.Background(), "noop")
	span.End()
}
