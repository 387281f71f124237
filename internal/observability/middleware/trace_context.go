package middleware

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceContextExtraction joins the caller's W3C trace (Traceparent/Tracestate headers)
// without creating spans. The span context is stored in the request context, so upstream
// calls and log records made while serving the request carry the caller's trace_id, and
// the request log gets trace_id and span_id attributes.
func TraceContextExtraction(next http.Handler) http.Handler {
	propagator := propagation.NewCompositeTextMapPropagator(
		otel.GetTextMapPropagator(),
		propagation.TraceContext{},
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			// No-op without the Logging middleware.
			SetLogAttrs(ctx,
				slog.String("trace_id", spanCtx.TraceID().String()),
				slog.String("span_id", spanCtx.SpanID().String()),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
