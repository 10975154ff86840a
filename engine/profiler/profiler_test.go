package profiler

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerSamplesOncePerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	reg := prometheus.NewRegistry()
	p := NewProfiler(withClock(func() time.Time { return now }), WithRegisterer(reg), WithLogging(false))

	for range 59 {
		now = now.Add(time.Second / 60)
		_, ok := p.Tick()
		require.False(t, ok)
	}
	now = now.Add(time.Second / 60)
	st, ok := p.Tick()
	require.True(t, ok)
	assert.InDelta(t, 60, st.FPS, 0.01)
	assert.Positive(t, st.HeapMB)
	assert.InDelta(t, 60, testutil.ToFloat64(p.fps), 0.01)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	now = now.Add(time.Millisecond)
	_, ok = p.Tick()
	assert.False(t, ok, "counter resets after a sample")
}

func TestWithUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
	p = NewProfiler(WithUpdateInterval(250 * time.Millisecond))
	assert.Equal(t, 250*time.Millisecond, p.updateInterval)
}
