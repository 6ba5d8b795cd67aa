package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"

	sdk "go.opentelemetry.io/otel/sdk/metric"

	"github.com/bk-med/kanban/internal/build"
)

type Config struct {
	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`

	// Exporter selects the metric exporter: otlp-grpc, otlp-http or stdout.
	Exporter string        `conf:"exporter" yaml:"exporter" json:"exporter"`
	Endpoint string        `conf:"endpoint" yaml:"endpoint" json:"endpoint"`
	Insecure bool          `conf:"insecure" yaml:"insecure" json:"insecure"`
	Interval time.Duration `conf:"interval" yaml:"interval" json:"interval"`
}

// NewProvider builds the meter provider from the config. It returns nil when
// metrics are disabled, callers must handle the nil provider.
func NewProvider(cfg Config) (*sdk.MeterProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	var (
		exporter sdk.Exporter
		err      error
	)

	switch cfg.Exporter {
	case "otlp-grpc", "":
		opts := []otlpmetricgrpc.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.Endpoint))
		}

		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}

		exporter, err = otlpmetricgrpc.New(context.Background(), opts...)
	case "otlp-http":
		opts := []otlpmetrichttp.Option{}
		if cfg.Endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}

		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}

		exporter, err = otlpmetrichttp.New(context.Background(), opts...)
	case "stdout":
		exporter, err = stdoutmetric.New()
	default:
		return nil, fmt.Errorf("metrics: unsupported exporter %q", cfg.Exporter)
	}

	if err != nil {
		return nil, fmt.Errorf("metrics: create exporter: %w", err)
	}

	provider := sdk.NewMeterProvider(
		sdk.WithReader(sdk.NewPeriodicReader(exporter, sdk.WithInterval(interval))),
	)

	return provider, nil
}

// SetupMetrics installs the provider globally and registers the build info
// gauge for the service.
func SetupMetrics(provider *sdk.MeterProvider, name string) error {
	otel.SetMeterProvider(provider)

	meter := provider.Meter(name)

	buildInfo, err := meter.Int64Gauge(
		"build_info",
		metric.WithDescription("Build information of the running binary"),
	)
	if err != nil {
		return fmt.Errorf("metrics: register build info: %w", err)
	}

	buildInfo.Record(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("service", name),
			attribute.String("version", build.Version),
			attribute.String("go_version", build.GoVersion),
		),
	)

	return nil
}
