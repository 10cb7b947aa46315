package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValuesAccumulateWithoutLeakingUpstream(t *testing.T) {
	base := WithShopperID(context.Background(), "shopper-1")
	traced := WithTrace(base, TraceInfo{TraceID: "abc", SpanID: "01", Sampled: true})
	logged := WithLogger(traced, zap.NewExample())

	require.Equal(t, "shopper-1", ShopperID(logged))
	require.Equal(t, "abc", TraceID(logged))
	require.True(t, HasLogger(logged))

	_, ok := Trace(base)
	require.False(t, ok)
	require.False(t, HasLogger(traced))
	require.Empty(t, TraceID(base))
}

func TestLoggerOutsideRequest(t *testing.T) {
	require.NotNil(t, Logger(nil))
	require.NotNil(t, Logger(context.Background()))
	require.Empty(t, ShopperID(context.Background()))
}
