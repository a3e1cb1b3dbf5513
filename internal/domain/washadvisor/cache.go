package washadvisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/yanqian/carwash-advisor/pkg/errors"
	"github.com/yanqian/carwash-advisor/pkg/util"
)

// Store defines the key-value contract for cached advisories.
type Store interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry CacheEntry, ttl time.Duration) error
}

const (
	// LatestKey points at the most recently produced entry, whatever its day.
	LatestKey = "advice:latest"
	// DefaultCacheTTL bounds storage growth across timezone edge cases.
	DefaultCacheTTL = 30 * time.Hour
)

// DayKey returns the per-day cache key for an ISO date.
func DayKey(day string) string {
	return "advice:" + day
}

// ComputeFunc fetches weather and runs the engine.
type ComputeFunc func(ctx context.Context) (Advisory, WeatherSnapshot, error)

// CacheResult describes where an advisory came from.
type CacheResult struct {
	Entry    CacheEntry
	Tier     Tier
	Degraded bool
}

// Cache is a day-keyed read-through cache with stale fallback.
type Cache struct {
	store    Store
	ttl      time.Duration
	location *time.Location
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewCache builds a cache over store. Calendar days are resolved in location.
func NewCache(store Store, ttl time.Duration, location *time.Location, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if location == nil {
		location = time.UTC
	}
	return &Cache{
		store:    store,
		ttl:      ttl,
		location: location,
		logger:   logger.With("component", "washadvisor.cache"),
		now:      util.NowUTC,
	}
}

// GetOrRefresh returns the advisory cached for day, computing and storing a
// new one when the entry is missing or stale. When compute fails, any earlier
// entry is returned as a degraded stale fallback. Only when nothing is cached
// does the call fail, with code all_sources_exhausted.
func (c *Cache) GetOrRefresh(ctx context.Context, day string, compute ComputeFunc) (CacheResult, error) {
	key := DayKey(day)
	current, found := c.lookup(ctx, key)
	if found && c.isFresh(current, day) {
		c.logger.Debug("advisory cache hit", "day", day)
		return CacheResult{Entry: current, Tier: TierCacheHit}, nil
	}
	if found {
		c.logger.Info("cached advisory is stale, recomputing", "day", day, "entry_date", current.Date)
	}

	entry, err := c.refresh(ctx, day, compute)
	if err == nil {
		return CacheResult{Entry: entry, Tier: TierFresh}, nil
	}

	stale, ok := current, found
	if !ok {
		stale, ok = c.lookup(ctx, LatestKey)
	}
	if ok {
		c.logger.Warn("weather source failed, serving stale advisory", "tier", TierStaleFallback, "day", day, "entry_date", stale.Date, "error", err)
		return CacheResult{Entry: stale, Tier: TierStaleFallback, Degraded: true}, nil
	}
	return CacheResult{}, apperrors.Wrap(CodeAllSourcesExhausted, "no advisory available", fmt.Errorf("%w: %w", ErrAllSourcesExhausted, err))
}

// Refresh computes and stores a new advisory for day regardless of what is
// cached.
func (c *Cache) Refresh(ctx context.Context, day string, compute ComputeFunc) (CacheEntry, error) {
	return c.refresh(ctx, day, compute)
}

// refresh de-duplicates concurrent computations for the same day within the
// process. Across processes the last writer wins. The shared computation runs
// detached from the caller's cancellation so one disconnecting client cannot
// fail the others waiting on it; compute is expected to bound itself.
func (c *Cache) refresh(ctx context.Context, day string, compute ComputeFunc) (CacheEntry, error) {
	v, err, shared := c.group.Do(DayKey(day), func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		advice, weather, err := compute(ctx)
		if err != nil {
			return CacheEntry{}, err
		}
		entry := CacheEntry{
			Date:       day,
			ProducedAt: c.now().UTC(),
			Advice:     advice,
			Weather:    weather,
		}
		c.save(ctx, entry)
		return entry, nil
	})
	if err != nil {
		return CacheEntry{}, err
	}
	if shared {
		c.logger.Debug("advisory computation shared", "day", day)
	}
	return v.(CacheEntry), nil
}

// save writes the per-day key and then the latest pointer. The two writes are
// not atomic; a reader may briefly see an older latest entry.
func (c *Cache) save(ctx context.Context, entry CacheEntry) {
	for _, key := range []string{DayKey(entry.Date), LatestKey} {
		if err := c.store.Set(ctx, key, entry, c.ttl); err != nil {
			c.logger.Error("advisory cache write failed, continuing without cache", "code", CodeCacheUnavailable, "key", key, "error", err)
			return
		}
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (CacheEntry, bool) {
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("advisory cache read failed, bypassing cache", "code", CodeCacheUnavailable, "key", key, "error", err)
		return CacheEntry{}, false
	}
	return entry, found
}

func (c *Cache) isFresh(entry CacheEntry, day string) bool {
	if entry.ProducedAt.IsZero() {
		return entry.Date == day
	}
	return util.CalendarDay(entry.ProducedAt, c.location) == day
}

// DayOf returns the ISO calendar date of t in the cache timezone.
func (c *Cache) DayOf(t time.Time) string {
	return util.CalendarDay(t, c.location)
}
