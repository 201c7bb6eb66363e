// Package telemetry wraps OpenTelemetry tracing for the dispatcher core
// (SPEC_FULL §2, "ambient"). One span wraps each turn; the dispatcher never
// imports the SDK directly, only this package's thin Tracer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// SpanTurn names the per-turn span started by the dispatcher.
const SpanTurn = "dispatcher.process_turn"

// Attribute keys recorded on the turn span.
const (
	AttrUserID         = "dispatch.user_id"
	AttrConversationID = "dispatch.conversation_id"
	AttrPrimaryAgent   = "dispatch.primary_agent"
	AttrWorkflowType   = "dispatch.workflow_type"
	AttrSuccess        = "dispatch.success"
)

// Tracer is a nil-safe wrapper around an otel trace.Tracer: a zero-value
// *Tracer (or one built with tracing disabled) turns every Start call into
// a no-op, so callers never need to branch on whether tracing is enabled.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New builds a Tracer exporting spans to stdout (pretty-printed) when
// enabled is true. The teacher's v2/observability.Tracer supports an OTLP
// exporter as well; this core only wires the exporter the go.mod pulls in
// (stdouttrace), since no collector endpoint is part of the core's scope.
func New(enabled bool, serviceName string) (*Tracer, error) {
	if !enabled {
		return &Tracer{}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating stdout exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}, nil
}

// Start begins a span, or returns a no-op span if tracing is disabled.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if t == nil || t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records a turn's outcome on its span and closes it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes and stops the underlying provider, if one was created.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
