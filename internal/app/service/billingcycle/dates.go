package billingcycle

import (
	"time"

	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/types"
)

// NextBillingDate advances one billing period with calendar-aware
// arithmetic. Month-end anchors clamp to the last day of the target month
// (Jan 31 + 1 month = Feb 29 on leap years, Feb 28 otherwise) instead of
// relying on AddDate overflow.
func NextBillingDate(from time.Time, period types.BillingPeriod) time.Time {
	year, month, day := from.Date()
	switch period {
	case types.BillingPeriodAnnual:
		year++
	default:
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}

	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	h, m, s := from.Clock()
	return time.Date(year, month, day, h, m, s, from.Nanosecond(), from.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day zero of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AmountForPeriod resolves the checkout amount from the package tier: promo
// price when present and nonzero, else regular price. Trials fall back to a
// zero placeholder when no tier matches.
func AmountForPeriod(pkg *models.Package, period types.BillingPeriod, isTrial bool) (float64, error) {
	tier := pkg.TierFor(period)
	if tier == nil || (tier.PromoPrice <= 0 && tier.RegularPrice <= 0) {
		if isTrial {
			return 0, nil
		}
		return 0, apperr.BusinessRule("no pricing found for the requested billing period")
	}
	if tier.PromoPrice > 0 {
		return tier.PromoPrice, nil
	}
	return tier.RegularPrice, nil
}
