package static

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
)

func TestStaticSourceProducesWashableDay(t *testing.T) {
	source := NewSource("Utrecht")

	snapshot, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Utrecht", snapshot.Location)

	advice := washadvisor.NewEngine(washadvisor.DefaultThresholds()).Decide(snapshot, time.Date(2024, 10, 17, 0, 0, 0, 0, time.UTC))
	require.Equal(t, washadvisor.DecisionYes, advice.Decision)
}

func TestStaticSourceReturnsCopies(t *testing.T) {
	source := NewSource("Utrecht")

	first, err := source.Fetch(context.Background())
	require.NoError(t, err)
	first.Forecast[0].RainChancePercent = 100
	*first.UVIndex = 11

	second, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10.0, second.Forecast[0].RainChancePercent)
	require.NotNil(t, second.UVIndex)
	require.Equal(t, 3.0, *second.UVIndex)
}

func TestStaticSourceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource("Utrecht").Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
