package observability

import (
	"context"

	"tripplanner/internal/ratelimit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentedLimiter wraps a ratelimit.Limiter and counts its decisions.
// When the inner limiter can report its size, the number of tracked keys is
// exported as an observable gauge.
type InstrumentedLimiter struct {
	ratelimit.Limiter
	decisions    metric.Int64Counter
	policy       attribute.KeyValue
	registration metric.Registration
}

var _ ratelimit.Limiter = (*InstrumentedLimiter)(nil)

type keyCounter interface {
	Len() int
}

// NewInstrumentedLimiter creates the wrapper. Call Close to unregister the
// tracked keys gauge.
func NewInstrumentedLimiter(inner ratelimit.Limiter) (*InstrumentedLimiter, error) {
	meter := otel.Meter("tripplanner/ratelimit")

	decisions, err := meter.Int64Counter(
		"ratelimit.decisions",
		metric.WithDescription("Rate limiter decisions by policy and outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	l := &InstrumentedLimiter{
		Limiter:   inner,
		decisions: decisions,
		policy:    attribute.String("policy", inner.Policy().Name),
	}

	if counter, ok := inner.(keyCounter); ok {
		gauge, err := meter.Int64ObservableGauge(
			"ratelimit.tracked_keys",
			metric.WithDescription("Keys currently holding a rate limit window"),
			metric.WithUnit("{key}"),
		)
		if err != nil {
			return nil, err
		}
		reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(gauge, int64(counter.Len()), metric.WithAttributes(l.policy))
			return nil
		}, gauge)
		if err != nil {
			return nil, err
		}
		l.registration = reg
	}

	return l, nil
}

// Check delegates to the inner limiter and records the outcome.
func (l *InstrumentedLimiter) Check(key string) ratelimit.Result {
	result := l.Limiter.Check(key)

	outcome := "allowed"
	if !result.Allowed {
		outcome = "rejected"
	}
	l.decisions.Add(context.Background(), 1, metric.WithAttributes(
		l.policy,
		attribute.String("outcome", outcome),
	))
	return result
}

// Close unregisters the tracked keys gauge.
func (l *InstrumentedLimiter) Close() error {
	if l.registration == nil {
		return nil
	}
	return l.registration.Unregister()
}
