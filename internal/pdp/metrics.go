package pdp

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const metricNamespace = "github.com/hanko-field/pdp/internal/pdp"

type pageMetrics struct {
	cartItems   metric.Int64Counter
	saves       metric.Int64Counter
	saveLatency metric.Float64Histogram
}

func newPageMetrics(meter metric.Meter, logger *zap.Logger) *pageMetrics {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &pageMetrics{}

	var err error
	if m.cartItems, err = meter.Int64Counter(
		"pdp.cart.items",
		metric.WithDescription("Items added to the local cart"),
	); err != nil {
		logger.Warn("pdp: unable to register cart metric", zap.Error(err))
	}
	if m.saves, err = meter.Int64Counter(
		"pdp.preferences.saves",
		metric.WithDescription("Preference save attempts by outcome"),
	); err != nil {
		logger.Warn("pdp: unable to register save metric", zap.Error(err))
	}
	if m.saveLatency, err = meter.Float64Histogram(
		"pdp.preferences.save.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency in milliseconds of preference writes"),
	); err != nil {
		logger.Warn("pdp: unable to register save latency metric", zap.Error(err))
	}
	return m
}

func (m *pageMetrics) cartAdd(n int, source string) {
	if m == nil || m.cartItems == nil {
		return
	}
	m.cartItems.Add(context.Background(), int64(n), metric.WithAttributes(attribute.String("source", source)))
}

func (m *pageMetrics) save(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if m.saves != nil {
		m.saves.Add(ctx, 1, attrs)
	}
	if m.saveLatency != nil {
		m.saveLatency.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	}
}
