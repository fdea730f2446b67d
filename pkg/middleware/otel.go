package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

const defaultTracerName = "github.com/statekit-dev/statekit"

// OTelConfig configures the OpenTelemetry tracing middleware.
type OTelConfig struct {
	// TracerName is the instrumentation scope name.
	TracerName string

	// StoreName labels spans when one process hosts several stores.
	StoreName string

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry tracing middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the instrumentation scope name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithStoreName labels every span with a store name attribute.
func WithStoreName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.StoreName = name
	}
}

// WithAttributes adds constant attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// OpenTelemetry creates middleware that traces every dispatched update.
//
// Each logical SetState call produces one span carrying the outcome
// (committed, deduplicated, or suppressed) and any suppression reason;
// errors are recorded and set the span status.
//
// The tracer comes from the global OpenTelemetry tracer provider.
// Configure it in main() before dispatching updates:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) statekit.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return func(s *statekit.Store, next statekit.Apply) statekit.Apply {
		return func(update func(any) any) (statekit.Outcome, error) {
			attrs := make([]attribute.KeyValue, 0, len(config.Attributes)+3)
			attrs = append(attrs, config.Attributes...)
			if config.StoreName != "" {
				attrs = append(attrs, attribute.String("statekit.store", config.StoreName))
			}

			_, span := config.tracer.Start(
				context.Background(),
				"statekit.set_state",
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
				trace.WithTimestamp(time.Now()),
			)
			defer span.End()

			out, err := next(update)

			span.SetAttributes(
				attribute.Bool("statekit.committed", out.Committed),
				attribute.Bool("statekit.suppressed", out.Suppressed),
			)
			if out.Reason != "" {
				span.SetAttributes(attribute.String("statekit.reason", out.Reason))
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return out, err
		}
	}
}
