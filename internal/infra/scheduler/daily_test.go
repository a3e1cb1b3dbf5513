package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(context.Context) (washadvisor.Response, error) {
	r.calls.Add(1)
	return washadvisor.Response{Date: "2024-10-17"}, r.err
}

func TestParseClock(t *testing.T) {
	got, err := parseClock("06:00")
	require.NoError(t, err)
	require.Equal(t, clock{hour: 6}, got)

	got, err = parseClock(" 23:59 ")
	require.NoError(t, err)
	require.Equal(t, clock{hour: 23, minute: 59}, got)

	for _, bad := range []string{"", "6", "24:00", "06:60", "aa:bb"} {
		_, err := parseClock(bad)
		require.Error(t, err, bad)
	}
}

func TestDailyRefresherRunsJob(t *testing.T) {
	refresher := &countingRefresher{}
	location, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	daily, err := NewDailyRefresher(refresher, "06:00", location, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.Error(t, daily.RunNow())
	require.NoError(t, daily.Start(context.Background()))
	t.Cleanup(func() { _ = daily.Shutdown() })

	require.NoError(t, daily.RunNow())
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDailyRefresherSurvivesFailedRefresh(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("source down")}
	daily, err := NewDailyRefresher(refresher, "06:00", time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, daily.Start(context.Background()))
	t.Cleanup(func() { _ = daily.Shutdown() })

	require.NoError(t, daily.RunNow())
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewDailyRefresherRejectsBadTime(t *testing.T) {
	_, err := NewDailyRefresher(&countingRefresher{}, "6am", time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
