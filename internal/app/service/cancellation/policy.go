package cancellation

import (
	"time"

	"github.com/tierbill/tierbill/pkg/types"
)

// DaysActive counts full days elapsed since the subscription was created.
// Both the cancellation decision and the refund-window projection use this
// helper; they must never diverge.
func DaysActive(createdAt, now time.Time) int {
	d := now.Sub(createdAt)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// Decide applies the refund-window policy: within the window the
// cancellation is immediate with a full refund, after it the subscription
// runs until the period end with no refund.
func Decide(createdAt, now time.Time, windowDays int) (types.CancellationAction, int) {
	days := DaysActive(createdAt, now)
	if days <= windowDays {
		return types.CancellationImmediateWithRefund, days
	}
	return types.CancellationScheduledNoRefund, days
}

// RefundWindowInfo is the read-only projection of the policy for UI display.
type RefundWindowInfo struct {
	DaysActive    int  `json:"days_active"`
	DaysRemaining int  `json:"days_remaining"`
	Eligible      bool `json:"eligible"`
}

func WindowInfo(createdAt, now time.Time, windowDays int) RefundWindowInfo {
	action, days := Decide(createdAt, now, windowDays)
	info := RefundWindowInfo{
		DaysActive: days,
		Eligible:   action == types.CancellationImmediateWithRefund,
	}
	if info.Eligible {
		info.DaysRemaining = windowDays - days
	}
	return info
}
