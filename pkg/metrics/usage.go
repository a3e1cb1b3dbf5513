package metrics

import "sync/atomic"

// TierStats captures how many responses each fallback tier produced.
type TierStats struct {
	CacheHit      int64 `json:"cacheHit"`
	Fresh         int64 `json:"freshlyComputed"`
	StaleFallback int64 `json:"staleFallback"`
	Emergency     int64 `json:"emergencyFallback"`
}

// Total sums all tiers.
func (u TierStats) Total() int64 {
	return u.CacheHit + u.Fresh + u.StaleFallback + u.Emergency
}

// IsZero reports whether no responses were counted.
func (u TierStats) IsZero() bool {
	return u.Total() == 0
}

// TierCounter is safe for concurrent use.
type TierCounter struct {
	cacheHit      atomic.Int64
	fresh         atomic.Int64
	staleFallback atomic.Int64
	emergency     atomic.Int64
}

// Add increments the counter for the given tier name. Unknown names are ignored.
func (c *TierCounter) Add(tier string) {
	switch tier {
	case "cache-hit":
		c.cacheHit.Add(1)
	case "freshly-computed":
		c.fresh.Add(1)
	case "stale-fallback":
		c.staleFallback.Add(1)
	case "emergency-fallback":
		c.emergency.Add(1)
	}
}

// Snapshot returns the current counts.
func (c *TierCounter) Snapshot() TierStats {
	return TierStats{
		CacheHit:      c.cacheHit.Load(),
		Fresh:         c.fresh.Load(),
		StaleFallback: c.staleFallback.Load(),
		Emergency:     c.emergency.Load(),
	}
}
