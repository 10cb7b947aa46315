// Package requestctx carries the per-request values shared by middleware and handlers:
// the scoped logger, trace correlation, and the shopper resolved from the session cookie.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type key struct{}

// values is copied on every update so contexts further up the chain never observe later changes.
type values struct {
	logger  *zap.Logger
	trace   TraceInfo
	traced  bool
	shopper string
}

// TraceInfo is the trace a request belongs to.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

func load(ctx context.Context) values {
	if ctx == nil {
		return values{}
	}
	v, _ := ctx.Value(key{}).(values)
	return v
}

func store(ctx context.Context, v values) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key{}, v)
}

// WithLogger scopes logger to the request. A nil logger clears it.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	v := load(ctx)
	v.logger = logger
	return store(ctx, v)
}

// Logger returns the request logger, or a no-op logger outside a request.
func Logger(ctx context.Context) *zap.Logger {
	if l := load(ctx).logger; l != nil {
		return l
	}
	return zap.NewNop()
}

// HasLogger reports whether a logger was scoped to ctx.
func HasLogger(ctx context.Context) bool {
	return load(ctx).logger != nil
}

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	v := load(ctx)
	v.trace, v.traced = info, true
	return store(ctx, v)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	v := load(ctx)
	return v.trace, v.traced
}

// TraceID returns the request's trace id or "".
func TraceID(ctx context.Context) string {
	return load(ctx).trace.TraceID
}

// WithShopperID records the anonymous shopper behind the request.
func WithShopperID(ctx context.Context, id string) context.Context {
	v := load(ctx)
	v.shopper = id
	return store(ctx, v)
}

func ShopperID(ctx context.Context) string {
	return load(ctx).shopper
}
