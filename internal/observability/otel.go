// Package observability traces gateway callbacks end to end.
//
// A delivery produces one server span from otelgin, a child span from the
// callback service that handled it ("UnsolicitedService.Receive" or
// "PushResultService.Receive", carrying the receipt or correlation id and the
// outcome) and one grandchild per store query through TraceDB. Spans are
// exported over OTLP/gRPC under the service name from OTEL_SERVICE_NAME.
// Sampling is parent-based so a gateway that forwards a traceparent keeps
// the whole delivery in one trace; root deliveries are sampled at
// OTEL_TRACES_SAMPLER_ARG.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-payment-callbacks/internal/config"
)

// DefaultServiceName is reported when OTEL_SERVICE_NAME is blank.
const DefaultServiceName = "payment-callbacks"

// instrumentationScope prefixes every tracer the callback services obtain.
const instrumentationScope = "github.com/tbourn/go-payment-callbacks"

// Tracer returns the tracer a callback component records its spans with,
// e.g. Tracer("services/PushResultService"). It resolves through the global
// provider, so it is a no-op until SetupOTel installs one.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationScope + "/" + component)
}

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// SetupOTel installs the callback service's tracer provider and W3C
// propagators and returns the provider's shutdown, which flushes pending
// callback spans. With OTEL_ENABLED=false the global no-op provider stays in
// place and the returned shutdown does nothing.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}
	res, err := newServiceResourceFn(ctx, name, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// TraceDB registers the GORM OpenTelemetry plugin so the inserts and
// conditional updates a callback issues show up under its service span.
// Query metrics are left to Prometheus.
func TraceDB(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}
