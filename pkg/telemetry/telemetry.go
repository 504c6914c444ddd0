package telemetry

import (
	"context"
	"errors"
	"fmt"

	"htmlfuzz/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

const instrumentationName = "htmlfuzz/campaign"

// Telemetry hands out the campaign's OTLP tracer and logger. The logger may
// be nil when only trace export could be set up.
type Telemetry interface {
	GetTracer() trace.Tracer
	GetLogger() log.Logger
}

type otlpTelemetry struct {
	tracer trace.Tracer
	logger log.Logger
}

type TelemetryParams struct {
	fx.In
	Lifecyle fx.Lifecycle
	Config   *config.AppConfig
}

// NewTelemetry exports campaign spans and logs over OTLP/gRPC, tagged with
// the target under test. It returns a nil Telemetry when no collector
// endpoint is configured; callers fall back to no-ops.
func NewTelemetry(p TelemetryParams) (Telemetry, error) {
	if !p.Config.TelemetryEnabled() {
		return nil, nil
	}
	exportCtx, cancel := context.WithCancel(context.Background())
	res := campaignResource(p.Config)

	spanExp, err := otlptracegrpc.New(exportCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	spans := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(spans)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t := &otlpTelemetry{tracer: spans.Tracer(instrumentationName)}
	stops := []func(context.Context) error{spans.Shutdown}

	// Spans still flow when the log exporter cannot be built.
	if logExp, err := otlploggrpc.New(exportCtx); err == nil {
		logs := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
			sdklog.WithResource(res),
		)
		t.logger = logs.Logger(instrumentationName)
		stops = append(stops, logs.Shutdown)
	}

	p.Lifecyle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			defer cancel()
			return shutdownAll(ctx, stops...)
		},
	})
	return t, nil
}

// campaignResource identifies which target a campaign's telemetry belongs to.
func campaignResource(cfg *config.AppConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		attribute.String("fuzz.target", cfg.Target),
		attribute.String("fuzz.workdir", cfg.WorkingDir),
	)
}

// shutdownAll flushes every provider, even after one of them fails, and
// reports all failures.
func shutdownAll(ctx context.Context, stops ...func(context.Context) error) error {
	var err error
	for _, stop := range stops {
		err = errors.Join(err, stop(ctx))
	}
	return err
}

func (t *otlpTelemetry) GetTracer() trace.Tracer {
	return t.tracer
}

func (t *otlpTelemetry) GetLogger() log.Logger {
	return t.logger
}
