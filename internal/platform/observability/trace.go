package observability

import (
	"encoding/binary"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/hanko-field/pdp/internal/platform/requestctx"
)

const cloudTraceHeader = "X-Cloud-Trace-Context"

var (
	tracer     = otel.Tracer("github.com/hanko-field/pdp/internal/platform/observability")
	propagator = propagation.TraceContext{}
)

// TraceMiddleware continues the caller's trace (W3C traceparent, else the Cloud Trace header), starts a
// server span, and records the trace on the request context. The span's trace is echoed back in the
// Cloud Trace header.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			if !trace.SpanContextFromContext(ctx).IsValid() {
				if remote, ok := parseCloudTrace(r.Header.Get(cloudTraceHeader)); ok {
					ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
				}
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()
			if projectID != "" {
				span.SetAttributes(attribute.String("gcp.project_id", projectID))
			}

			sc := span.SpanContext()
			info := requestctx.TraceInfo{
				TraceID: sc.TraceID().String(),
				SpanID:  sc.SpanID().String(),
				Sampled: sc.IsSampled(),
			}
			if sc.IsValid() {
				w.Header().Set(cloudTraceHeader, formatCloudTrace(sc))
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithTrace(ctx, info)))
		})
	}
}

// parseCloudTrace reads "TRACE_ID/SPAN_ID;o=OPTIONS". The span id is decimal; hex ids are accepted too.
func parseCloudTrace(header string) (trace.SpanContext, bool) {
	traceHex, rest, ok := strings.Cut(strings.TrimSpace(header), "/")
	if !ok {
		return trace.SpanContext{}, false
	}
	traceID, err := trace.TraceIDFromHex(traceHex)
	if err != nil {
		return trace.SpanContext{}, false
	}
	spanText, options, _ := strings.Cut(rest, ";")
	spanID, ok := parseSpanID(strings.TrimSpace(spanText))
	if !ok {
		return trace.SpanContext{}, false
	}

	var flags trace.TraceFlags
	if strings.TrimSpace(options) == "o=1" {
		flags = trace.FlagsSampled
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	return sc, sc.IsValid()
}

func parseSpanID(text string) (trace.SpanID, bool) {
	var id trace.SpanID
	if n, err := strconv.ParseUint(text, 10, 64); err == nil {
		binary.BigEndian.PutUint64(id[:], n)
		return id, id.IsValid()
	}
	if text == "" || len(text) > 16 {
		return id, false
	}
	id, err := trace.SpanIDFromHex(strings.Repeat("0", 16-len(text)) + text)
	if err != nil {
		return trace.SpanID{}, false
	}
	return id, id.IsValid()
}

func formatCloudTrace(sc trace.SpanContext) string {
	option := "0"
	if sc.IsSampled() {
		option = "1"
	}
	id := sc.SpanID()
	return sc.TraceID().String() + "/" + strconv.FormatUint(binary.BigEndian.Uint64(id[:]), 10) + ";o=" + option
}
