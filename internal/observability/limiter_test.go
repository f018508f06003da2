package observability

import (
	"testing"
	"time"

	"tripplanner/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// policyOnly is a limiter without a Len method.
type policyOnly struct {
	ratelimit.Limiter
}

func TestInstrumentedLimiter_CountsDecisions(t *testing.T) {
	provider := metricsOnlyProvider(t)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inner := ratelimit.NewFixedWindow(
		ratelimit.Policy{Name: "chat", Window: time.Minute, MaxRequests: 2},
		ratelimit.WithClock(func() time.Time { return now }),
	)
	limiter, err := NewInstrumentedLimiter(inner)
	require.NoError(t, err)
	defer limiter.Close()

	assert.True(t, limiter.Check("1.2.3.4").Allowed)
	assert.True(t, limiter.Check("1.2.3.4").Allowed)
	assert.False(t, limiter.Check("1.2.3.4").Allowed)
	assert.True(t, limiter.Check("5.6.7.8").Allowed)

	assert.Equal(t, "chat", limiter.Policy().Name)

	families, err := provider.Registry().Gather()
	require.NoError(t, err)

	decisions := findFamily(families, "ratelimit_decisions")
	require.NotNil(t, decisions)
	counts := map[string]float64{}
	for _, m := range decisions.GetMetric() {
		assert.Equal(t, "chat", labelValue(m, "policy"))
		counts[labelValue(m, "outcome")] = m.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, counts["allowed"])
	assert.Equal(t, 1.0, counts["rejected"])

	keys := findFamily(families, "ratelimit_tracked_keys")
	require.NotNil(t, keys)
	require.Len(t, keys.GetMetric(), 1)
	assert.Equal(t, 2.0, keys.GetMetric()[0].GetGauge().GetValue())

	limiter.Reset("1.2.3.4")
	families, err = provider.Registry().Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, findFamily(families, "ratelimit_tracked_keys").GetMetric()[0].GetGauge().GetValue())
}

func TestInstrumentedLimiter_WithoutLen(t *testing.T) {
	provider := metricsOnlyProvider(t)

	inner := ratelimit.NewFixedWindow(ratelimit.Policy{Name: "search", Window: time.Minute, MaxRequests: 5})
	limiter, err := NewInstrumentedLimiter(policyOnly{inner})
	require.NoError(t, err)
	assert.Nil(t, limiter.registration)
	assert.NoError(t, limiter.Close())

	assert.True(t, limiter.Check("k").Allowed)

	families, err := provider.Registry().Gather()
	require.NoError(t, err)
	assert.Nil(t, findFamily(families, "ratelimit_tracked_keys"))
	assert.NotNil(t, findFamily(families, "ratelimit_decisions"))
}
