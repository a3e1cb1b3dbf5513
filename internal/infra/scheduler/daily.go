package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

const jobName = "daily_advice_refresh"

// Refresher recomputes today's advisory.
type Refresher interface {
	Refresh(ctx context.Context) (washadvisor.Response, error)
}

// DailyRefresher triggers an advisory refresh once per day at a fixed local
// time.
type DailyRefresher struct {
	scheduler gocron.Scheduler
	refresher Refresher
	logger    *slog.Logger
	at        clock
	job       gocron.Job
}

type clock struct {
	hour, minute uint
}

// NewDailyRefresher builds a refresher firing at "HH:MM" in location.
func NewDailyRefresher(refresher Refresher, at string, location *time.Location, logger *slog.Logger) (*DailyRefresher, error) {
	parsed, err := parseClock(at)
	if err != nil {
		return nil, err
	}
	if location == nil {
		location = time.UTC
	}
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &DailyRefresher{
		scheduler: scheduler,
		refresher: refresher,
		logger:    logger.With("component", "scheduler.daily"),
		at:        parsed,
	}, nil
}

// Start registers the job and starts the scheduler. ctx bounds every run.
func (d *DailyRefresher) Start(ctx context.Context) error {
	job, err := d.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(d.at.hour, d.at.minute, 0))),
		gocron.NewTask(d.run),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	d.job = job
	d.scheduler.Start()
	if next, err := job.NextRun(); err == nil {
		d.logger.Info("daily refresh scheduled", "next_run", next)
	}
	return nil
}

// RunNow triggers the job outside its schedule.
func (d *DailyRefresher) RunNow() error {
	if d.job == nil {
		return fmt.Errorf("%s is not started", jobName)
	}
	return d.job.RunNow()
}

// Shutdown stops the scheduler and waits for running jobs.
func (d *DailyRefresher) Shutdown() error {
	return d.scheduler.Shutdown()
}

func (d *DailyRefresher) run(ctx context.Context) {
	resp, err := d.refresher.Refresh(ctx)
	if err != nil {
		d.logger.Error("scheduled advisory refresh failed", "error", err)
		return
	}
	d.logger.Info("scheduled advisory refresh done", "day", resp.Date, "decision", resp.Advice.Decision)
}

func parseClock(value string) (clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return clock{}, fmt.Errorf("invalid refresh time %q, want HH:MM", value)
	}
	hour, err := strconv.ParseUint(hh, 10, 8)
	if err != nil || hour > 23 {
		return clock{}, fmt.Errorf("invalid refresh hour in %q", value)
	}
	minute, err := strconv.ParseUint(mm, 10, 8)
	if err != nil || minute > 59 {
		return clock{}, fmt.Errorf("invalid refresh minute in %q", value)
	}
	return clock{hour: uint(hour), minute: uint(minute)}, nil
}
