package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalendarDay(t *testing.T) {
	amsterdam := time.FixedZone("CEST", 2*60*60)
	late := time.Date(2024, 10, 16, 22, 30, 0, 0, time.UTC)

	require.Equal(t, "2024-10-17", CalendarDay(late, amsterdam))
	require.Equal(t, "2024-10-16", CalendarDay(late, nil))
	require.Equal(t, time.UTC, NowUTC().Location())
}
