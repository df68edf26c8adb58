package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-inventory/oteladapters"
	"github.com/AntonStoeckl/library-inventory/shell"
	"github.com/AntonStoeckl/library-inventory/shell/config"
)

// Observability bundles the logging, metrics and tracing implementations of one process.
// ContextualLogger, Metrics and Tracing are nil unless OpenTelemetry is enabled.
type Observability struct {
	Logger           *slog.Logger
	ContextualLogger shell.ContextualLogger
	Metrics          shell.MetricsCollector
	Tracing          shell.TracingCollector

	providers *config.ObservabilityProviders
}

// NewObservability creates the JSON stdout logger and, if enabled, the OpenTelemetry adapters.
func NewObservability(ctx context.Context, cfg config.Config) (*Observability, error) {
	obs := &Observability{
		Logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName),
	}

	if !cfg.OTelEnabled {
		return obs, nil
	}

	providers, err := config.NewObservabilityProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs.providers = providers
	obs.ContextualLogger = oteladapters.NewSlogBridgeLogger(cfg.ServiceName)
	obs.Metrics = oteladapters.NewMetricsCollector(otel.Meter(cfg.ServiceName))
	obs.Tracing = oteladapters.NewTracingCollector(otel.Tracer(cfg.ServiceName))

	obs.Logger.Info("observability enabled", "endpoint", cfg.OTelEndpoint)

	return obs, nil
}

// Shutdown flushes the OpenTelemetry providers, if any.
func (o *Observability) Shutdown() {
	if o.providers == nil {
		return
	}

	if err := o.providers.Shutdown(); err != nil {
		o.Logger.Error("observability shutdown failed", shell.LogAttrError, err.Error())
	}
}
