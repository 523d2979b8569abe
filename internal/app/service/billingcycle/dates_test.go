package billingcycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestNextBillingDate_Monthly(t *testing.T) {
	cases := []struct {
		from, want time.Time
	}{
		{date(2024, time.January, 15), date(2024, time.February, 15)},
		// Month-end clamping: Jan 31 lands on the last day of February.
		{date(2024, time.January, 31), date(2024, time.February, 29)},
		{date(2025, time.January, 31), date(2025, time.February, 28)},
		{date(2024, time.March, 31), date(2024, time.April, 30)},
		// Year rollover.
		{date(2024, time.December, 15), date(2025, time.January, 15)},
	}
	for _, c := range cases {
		got := NextBillingDate(c.from, types.BillingPeriodMonthly)
		require.Equal(t, c.want, got, "from %s", c.from)
	}
}

func TestNextBillingDate_Annual(t *testing.T) {
	require.Equal(t,
		date(2025, time.June, 10),
		NextBillingDate(date(2024, time.June, 10), types.BillingPeriodAnnual))
	// Feb 29 on a leap year clamps to Feb 28 the following year.
	require.Equal(t,
		date(2025, time.February, 28),
		NextBillingDate(date(2024, time.February, 29), types.BillingPeriodAnnual))
}

func TestNextBillingDate_PreservesClock(t *testing.T) {
	from := time.Date(2024, time.May, 5, 23, 59, 58, 123, time.UTC)
	got := NextBillingDate(from, types.BillingPeriodMonthly)
	require.Equal(t, from.Hour(), got.Hour())
	require.Equal(t, from.Minute(), got.Minute())
	require.Equal(t, from.Second(), got.Second())
}

func pkgWithTiers(tiers []types.PackageTier) *models.Package {
	return &models.Package{
		ID:    "pkg-1",
		Name:  "Pro",
		Tiers: datatypes.NewJSONType(tiers),
	}
}

func TestAmountForPeriod_PromoWins(t *testing.T) {
	pkg := pkgWithTiers([]types.PackageTier{
		{Period: types.BillingPeriodMonthly, RegularPrice: 29.99, PromoPrice: 19.99},
	})
	amount, err := AmountForPeriod(pkg, types.BillingPeriodMonthly, false)
	require.NoError(t, err)
	require.Equal(t, 19.99, amount)
}

func TestAmountForPeriod_RegularWhenNoPromo(t *testing.T) {
	pkg := pkgWithTiers([]types.PackageTier{
		{Period: types.BillingPeriodAnnual, RegularPrice: 299},
	})
	amount, err := AmountForPeriod(pkg, types.BillingPeriodAnnual, false)
	require.NoError(t, err)
	require.Equal(t, 299.0, amount)
}

func TestAmountForPeriod_NoTier(t *testing.T) {
	pkg := pkgWithTiers([]types.PackageTier{
		{Period: types.BillingPeriodMonthly, RegularPrice: 29.99},
	})
	_, err := AmountForPeriod(pkg, types.BillingPeriodAnnual, false)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
}

func TestAmountForPeriod_TrialFallsBackToZero(t *testing.T) {
	pkg := pkgWithTiers(nil)
	amount, err := AmountForPeriod(pkg, types.BillingPeriodMonthly, true)
	require.NoError(t, err)
	require.Zero(t, amount)
}
