package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded on the redirect hot path.
type Metrics struct {
	// Resolutions counts redirect resolutions by outcome
	// (success, not_found, password_required, password_invalid, error).
	Resolutions metric.Int64Counter
	// SideEffectFailures counts swallowed bookkeeping failures by stage
	// (increment, record, publish).
	SideEffectFailures metric.Int64Counter
}

// NewMeterProvider creates an OTel MeterProvider that exports through
// the given Prometheus registry. Registered as global so instrumented
// libraries pick it up.
func NewMeterProvider(registry *prometheus.Registry) (*sdkmetric.MeterProvider, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	return provider, nil
}

// NewMetrics creates the hot-path instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resolutions, err := meter.Int64Counter("linklet_resolutions_total",
		metric.WithDescription("Redirect resolutions by outcome"))
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("linklet_side_effect_failures_total",
		metric.WithDescription("Swallowed click bookkeeping failures by stage"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Resolutions:        resolutions,
		SideEffectFailures: failures,
	}, nil
}
