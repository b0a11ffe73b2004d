package server

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startMessageSpan 为每条入站消息创建 span；未配置 TracerProvider 时为 no-op
func (s *Server) startMessageSpan(ctx context.Context, transport string, size int) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "control.message",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("control.transport", transport),
			attribute.Int("control.payload_bytes", size),
		),
	)
}

func endMessageSpan(span trace.Span, ev ControlEvent, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codecErrorLabel(err))
	} else {
		span.SetAttributes(
			attribute.String("control.event", ev.Kind.String()),
			attribute.Int64("control.value", ev.Value),
		)
	}
	span.End()
}
