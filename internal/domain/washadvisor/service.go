package washadvisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	apperrors "github.com/yanqian/carwash-advisor/pkg/errors"
	"github.com/yanqian/carwash-advisor/pkg/metrics"
	"github.com/yanqian/carwash-advisor/pkg/util"
)

// DefaultTimezone is the reference timezone for calendar days.
const DefaultTimezone = "Europe/Amsterdam"

const (
	defaultHistoryLimit = 7
	maxHistoryLimit     = 31
	defaultFetchTimeout = 10 * time.Second
)

// Service exposes the car wash advisory.
type Service interface {
	TodaysAdvisory(ctx context.Context) Response
	Refresh(ctx context.Context) (Response, error)
	History(ctx context.Context, limit int) ([]HistoryRecord, error)
	Stats() metrics.TierStats
}

// WeatherSource supplies the current snapshot or fails.
type WeatherSource interface {
	Fetch(ctx context.Context) (WeatherSnapshot, error)
}

// HistoryRepository keeps freshly computed advisories.
type HistoryRepository interface {
	Record(ctx context.Context, record HistoryRecord) error
	Recent(ctx context.Context, limit int) ([]HistoryRecord, error)
}

type service struct {
	cfg      Config
	source   WeatherSource
	history  HistoryRepository
	engine   *Engine
	cache    *Cache
	logger   *slog.Logger
	timezone *time.Location
	now      func() time.Time
	stats    *metrics.TierCounter
}

// NewService wires up the car wash advisor domain.
func NewService(cfg Config, source WeatherSource, store Store, history HistoryRepository, logger *slog.Logger) Service {
	logger = logger.With("component", "washadvisor.service")
	tz := cfg.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		logger.Error("unknown timezone, falling back to UTC", "timezone", tz, "error", err)
		location = time.UTC
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = defaultFetchTimeout
	}
	return &service{
		cfg:      cfg,
		source:   source,
		history:  history,
		engine:   NewEngine(DefaultThresholds()),
		cache:    NewCache(store, cfg.CacheTTL, location, logger),
		logger:   logger,
		timezone: location,
		now:      util.NowUTC,
		stats:    &metrics.TierCounter{},
	}
}

// TodaysAdvisory never fails; when no advisory can be produced it returns the
// emergency advisory.
func (s *service) TodaysAdvisory(ctx context.Context) (resp Response) {
	day := s.cache.DayOf(s.now())
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("advisory pipeline panicked", "tier", TierEmergency, "day", day, "panic", r)
			resp = s.emergency(day)
		}
		s.stats.Add(string(resp.Source))
	}()

	result, err := s.cache.GetOrRefresh(ctx, day, s.compute(day))
	if err != nil {
		s.logger.Error("all advisory sources exhausted", "tier", TierEmergency, "day", day, "error", err)
		return s.emergency(day)
	}
	if result.Tier == TierFresh {
		s.record(ctx, result.Entry)
	}
	s.logger.Info("advisory served", "day", day, "tier", result.Tier, "decision", result.Entry.Advice.Decision)
	return toResponse(result)
}

// Refresh recomputes today's advisory and overwrites the cache.
func (s *service) Refresh(ctx context.Context) (Response, error) {
	day := s.cache.DayOf(s.now())
	entry, err := s.cache.Refresh(ctx, day, s.compute(day))
	if err != nil {
		s.logger.Error("advisory refresh failed", "day", day, "error", err)
		return Response{}, err
	}
	s.record(ctx, entry)
	s.logger.Info("advisory refreshed", "day", day, "decision", entry.Advice.Decision, "category", entry.Advice.ReasonCategory)
	return toResponse(CacheResult{Entry: entry, Tier: TierFresh}), nil
}

func (s *service) History(ctx context.Context, limit int) ([]HistoryRecord, error) {
	if limit < 0 {
		return nil, apperrors.Wrap(CodeInvalidInput, "limit cannot be negative", nil)
	}
	if limit == 0 {
		limit = s.cfg.HistoryLimit
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load advisory history", err)
	}
	return records, nil
}

func (s *service) Stats() metrics.TierStats {
	return s.stats.Snapshot()
}

func (s *service) compute(day string) ComputeFunc {
	return func(ctx context.Context) (Advisory, WeatherSnapshot, error) {
		snapshot, err := s.fetch(ctx)
		if err != nil {
			return Advisory{}, WeatherSnapshot{}, apperrors.Wrap(CodeSourceUnavailable, "failed to fetch weather data", err)
		}
		today, err := time.ParseInLocation(util.ISODate, day, s.timezone)
		if err != nil {
			return Advisory{}, WeatherSnapshot{}, apperrors.Wrap(CodeInvalidInput, "invalid calendar day", err)
		}
		advice := s.engine.Decide(snapshot, today)
		s.logger.Info("advisory computed", "day", day, "decision", advice.Decision, "category", advice.ReasonCategory, "confidence", advice.Confidence)
		return advice, snapshot, nil
	}
}

// fetch bounds the source call even when the source ignores its context.
func (s *service) fetch(ctx context.Context) (WeatherSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SourceTimeout)
	defer cancel()

	type result struct {
		snapshot WeatherSnapshot
		err      error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("weather source panicked: %v", r)}
			}
		}()
		snapshot, err := s.source.Fetch(ctx)
		done <- result{snapshot: snapshot, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return WeatherSnapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, r.err)
		}
		return r.snapshot, nil
	case <-ctx.Done():
		return WeatherSnapshot{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, ctx.Err())
	}
}

func (s *service) record(ctx context.Context, entry CacheEntry) {
	if s.history == nil {
		return
	}
	rec := HistoryRecord{
		Date:           entry.Date,
		ProducedAt:     entry.ProducedAt,
		Decision:       entry.Advice.Decision,
		ReasonCategory: entry.Advice.ReasonCategory,
		Confidence:     entry.Advice.Confidence,
		Reason:         entry.Advice.Reason,
		DayTemperature: entry.Weather.DayTemperature,
		WindSpeed:      entry.Weather.WindSpeed,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record advisory history", "day", entry.Date, "error", err)
	}
}

func (s *service) emergency(day string) Response {
	return Response{
		Success: false,
		Date:    day,
		Advice:  EmergencyAdvisory(s.engine.nextSeed()),
		Source:  TierEmergency,
	}
}

// EmergencyAdvisory is served when neither cache nor weather source can help.
func EmergencyAdvisory(seed int) Advisory {
	return Advisory{
		Decision:       DecisionMaybe,
		Reason:         "We cannot check the weather right now. Look outside yourself: if it is dry and not too cold or hot, you can probably wash your car.",
		ReasonCategory: CategoryNone,
		Confidence:     ConfidenceLow,
		Analysis: Analysis{
			GoodFactors: []string{},
			BadFactors:  []Factor{{Kind: KindNoData, Severity: SeverityModerate, Message: "No weather data available"}},
			Warnings:    []Caveat{{Message: "Check the weather yourself before washing"}},
		},
		VariationSeed: seed,
	}
}

func toResponse(result CacheResult) Response {
	weather := result.Entry.Weather
	lastUpdated := ""
	if !result.Entry.ProducedAt.IsZero() {
		lastUpdated = result.Entry.ProducedAt.UTC().Format(time.RFC3339)
	}
	return Response{
		Success:     true,
		Date:        result.Entry.Date,
		Advice:      result.Entry.Advice,
		Weather:     &weather,
		LastUpdated: lastUpdated,
		Source:      result.Tier,
		Degraded:    result.Degraded,
	}
}
