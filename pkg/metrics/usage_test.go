package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierCounter(t *testing.T) {
	var counter TierCounter
	require.True(t, counter.Snapshot().IsZero())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.Add("cache-hit")
		}()
	}
	wg.Wait()
	counter.Add("freshly-computed")
	counter.Add("stale-fallback")
	counter.Add("emergency-fallback")
	counter.Add("unknown")

	stats := counter.Snapshot()
	require.Equal(t, TierStats{CacheHit: 10, Fresh: 1, StaleFallback: 1, Emergency: 1}, stats)
	require.EqualValues(t, 13, stats.Total())
}
