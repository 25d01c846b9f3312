package tracing

import (
	"github.com/honeycombio/honeycomb-opentelemetry-go"
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("workoutlog-backend")

// HoneycombSetup configures the OpenTelemetry SDK with the honeycomb distro.
// Config (api key, service name, endpoint) is read from the OTEL_* / HONEYCOMB_*
// env vars. The returned func flushes and shuts down the exporters.
func HoneycombSetup(enabled bool, serviceName string) (func(), error) {
	if !enabled {
		log.Debugf("[%s] tracing disabled", serviceName)
		return func() {}, nil
	}

	// copies baggage entries to span attributes
	bsp := honeycomb.NewBaggageSpanProcessor()

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
		otelconfig.WithSpanProcessor(bsp),
	)
	if err != nil {
		return nil, err
	}

	log.Infof("[%s] honeycomb tracing set up", serviceName)
	return otelShutdown, nil
}

// EndSpanWithErrCheck records err on the span (if not nil) and ends it.
func EndSpanWithErrCheck(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
