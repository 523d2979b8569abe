package cancellation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/pkg/types"
)

const windowDays = 7

func TestDaysActive(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	require.Equal(t, 0, DaysActive(now, now))
	require.Equal(t, 0, DaysActive(now.Add(-23*time.Hour), now))
	require.Equal(t, 1, DaysActive(now.Add(-25*time.Hour), now))
	require.Equal(t, 3, DaysActive(now.AddDate(0, 0, -3), now))
	// Clock skew must not produce negative day counts.
	require.Equal(t, 0, DaysActive(now.Add(time.Hour), now))
}

func TestDecide_WithinWindow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	action, days := Decide(now.AddDate(0, 0, -3), now, windowDays)
	require.Equal(t, types.CancellationImmediateWithRefund, action)
	require.Equal(t, 3, days)

	// Day 7 is still inside the window.
	action, days = Decide(now.AddDate(0, 0, -7), now, windowDays)
	require.Equal(t, types.CancellationImmediateWithRefund, action)
	require.Equal(t, 7, days)
}

func TestDecide_AfterWindow(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	action, days := Decide(now.AddDate(0, 0, -8), now, windowDays)
	require.Equal(t, types.CancellationScheduledNoRefund, action)
	require.Equal(t, 8, days)

	action, _ = Decide(now.AddDate(0, 0, -30), now, windowDays)
	require.Equal(t, types.CancellationScheduledNoRefund, action)
}

func TestWindowInfo_MatchesDecide(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	info := WindowInfo(now.AddDate(0, 0, -2), now, windowDays)
	require.True(t, info.Eligible)
	require.Equal(t, 2, info.DaysActive)
	require.Equal(t, 5, info.DaysRemaining)

	info = WindowInfo(now.AddDate(0, 0, -12), now, windowDays)
	require.False(t, info.Eligible)
	require.Equal(t, 12, info.DaysActive)
	require.Zero(t, info.DaysRemaining)
}
