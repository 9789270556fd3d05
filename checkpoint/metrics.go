package checkpoint

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName identifies this instrumentation scope.
const meterName = "github.com/jonwraymond/pycheckpoint"

// metrics holds the per-wrap counters. A nil *metrics is a valid no-op, so
// instrument-creation failures degrade instead of breaking Wrap.
type metrics struct {
	calls  metric.Int64Counter
	hits   metric.Int64Counter
	misses metric.Int64Counter
	errors metric.Int64Counter
}

func newMetrics(provider metric.MeterProvider) (*metrics, error) {
	meter := provider.Meter(meterName)

	calls, err := meter.Int64Counter(
		"checkpoint.calls",
		metric.WithDescription("Total calls through the checkpoint layer"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	hits, err := meter.Int64Counter(
		"checkpoint.hits",
		metric.WithDescription("Calls served from a persisted checkpoint"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter(
		"checkpoint.misses",
		metric.WithDescription("Calls that invoked the wrapped function"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(
		"checkpoint.errors",
		metric.WithDescription("Internal caching failures that degraded to recomputation"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{calls: calls, hits: hits, misses: misses, errors: errs}, nil
}

func (m *metrics) add(ctx context.Context, c metric.Int64Counter, fn string) {
	if m == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("function", fn)))
}

func (m *metrics) call(ctx context.Context, fn string) {
	if m != nil {
		m.add(ctx, m.calls, fn)
	}
}

func (m *metrics) hit(ctx context.Context, fn string) {
	if m != nil {
		m.add(ctx, m.hits, fn)
	}
}

func (m *metrics) miss(ctx context.Context, fn string) {
	if m != nil {
		m.add(ctx, m.misses, fn)
	}
}

func (m *metrics) failure(ctx context.Context, fn string) {
	if m != nil {
		m.add(ctx, m.errors, fn)
	}
}
