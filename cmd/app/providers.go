package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
	"github.com/yanqian/carwash-advisor/internal/infra/advicehistory"
	"github.com/yanqian/carwash-advisor/internal/infra/advicestore"
	"github.com/yanqian/carwash-advisor/internal/infra/config"
	"github.com/yanqian/carwash-advisor/internal/infra/scheduler"
	"github.com/yanqian/carwash-advisor/internal/infra/weather/static"
	"github.com/yanqian/carwash-advisor/internal/infra/weather/weerlive"
)

func provideAdvisorConfig(cfg *config.Config) washadvisor.Config {
	return washadvisor.Config{
		Timezone:      cfg.Cache.Timezone,
		CacheTTL:      cfg.Cache.TTL,
		SourceTimeout: cfg.Weather.Timeout,
		HistoryLimit:  cfg.History.DefaultLimit,
	}
}

func provideWeatherSource(cfg *config.Config, logger *slog.Logger) washadvisor.WeatherSource {
	if strings.TrimSpace(cfg.Weather.APIKey) == "" {
		logger.Warn("weerlive api key not set, using static weather data", "location", cfg.Weather.Location)
		return static.NewSource(cfg.Weather.Location)
	}
	logger.Info("weerlive weather source enabled", "location", cfg.Weather.Location)
	return weerlive.NewClient(weerlive.Config{
		APIKey:   cfg.Weather.APIKey,
		BaseURL:  cfg.Weather.BaseURL,
		Location: cfg.Weather.Location,
		Timeout:  cfg.Weather.Timeout,
		Breaker: weerlive.BreakerConfig{
			MaxRequests: cfg.Weather.Breaker.MaxRequests,
			Interval:    cfg.Weather.Breaker.Interval,
			Timeout:     cfg.Weather.Breaker.Timeout,
		},
	})
}

// provideAdviceStore never dials Valkey itself; the store connects on first
// use and the returned cleanup releases the connection.
func provideAdviceStore(cfg *config.Config, logger *slog.Logger) (washadvisor.Store, func()) {
	if !cfg.Cache.Redis.Enabled {
		logger.Info("valkey cache disabled, using memory store")
		return advicestore.NewMemoryStore(), func() {}
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return advicestore.NewMemoryStore(), func() {}
	}
	store := advicestore.NewValkeyStore(opt, cfg.Cache.Redis.Prefix)
	logger.Info("advice valkey store enabled", "addr", cfg.Cache.Redis.Addr)
	return store, store.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Cache.Redis.Addr, "://") {
		return valkey.ParseURL(cfg.Cache.Redis.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Cache.Redis.Addr}}, nil
}

func provideHistoryRepository(cfg *config.Config, logger *slog.Logger) (washadvisor.HistoryRepository, func()) {
	fallback := advicehistory.NewMemoryRepository(0)
	noop := func() {}
	dsn := strings.TrimSpace(cfg.History.Postgres.DSN)
	if dsn == "" {
		logger.Info("history postgres dsn not set, using memory repository")
		return fallback, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback, noop
	}
	if cfg.History.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.History.Postgres.MaxConns
	}
	if cfg.History.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.History.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	repo := advicehistory.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("history migration failed, using memory repository", "error", err)
		pool.Close()
		return fallback, noop
	}
	logger.Info("history postgres repository enabled")
	return repo, pool.Close
}

func provideDailyRefresher(cfg *config.Config, svc washadvisor.Service, logger *slog.Logger) (*scheduler.DailyRefresher, error) {
	if !cfg.Refresh.Enabled {
		logger.Info("daily advisory refresh disabled")
		return nil, nil
	}
	location, err := time.LoadLocation(cfg.Cache.Timezone)
	if err != nil {
		return nil, err
	}
	return scheduler.NewDailyRefresher(svc, cfg.Refresh.At, location, logger)
}
