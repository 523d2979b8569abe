package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeSummary_StatusBuckets(t *testing.T) {
	sum := composeSummary([]statusCount{
		{Status: "completed", Count: 3},
		{Status: "pending", Count: 2},
		{Status: "proof_uploaded", Count: 1},
		{Status: "failed", Count: 4},
		{Status: "cancelled", Count: 1},
	}, 0, nil, 59.97)

	require.Equal(t, int64(11), sum.LedgerCount)
	require.Equal(t, int64(3), sum.CompletedCount)
	require.Equal(t, int64(3), sum.PendingCount)
	require.Equal(t, int64(5), sum.FailedCount)
	require.Equal(t, int64(11), sum.TotalTransactions)
	require.Equal(t, 59.97, sum.TotalSpent)
}

func TestComposeSummary_RenewalSpendIncluded(t *testing.T) {
	// A renewal charged by the gateway has no checkout row, only an unlinked
	// mirror row. Its amount still counts toward the user's total spend and
	// the completed bucket.
	sum := composeSummary(
		[]statusCount{{Status: "completed", Count: 1}},
		3,
		[]statusAmount{
			{Status: "completed", Count: 2, Total: 39.98},
			{Status: "past_due", Count: 1, Total: 19.99},
		},
		19.99,
	)

	require.Equal(t, int64(1), sum.LedgerCount)
	require.Equal(t, int64(3), sum.GatewayCount)
	require.Equal(t, int64(4), sum.TotalTransactions)
	require.Equal(t, int64(3), sum.CompletedCount)
	require.InDelta(t, 59.97, sum.TotalSpent, 1e-9)
}

func TestCompletedGatewayStatus(t *testing.T) {
	require.True(t, completedGatewayStatus("completed"))
	require.True(t, completedGatewayStatus("Paid"))
	require.True(t, completedGatewayStatus("settlement"))
	require.False(t, completedGatewayStatus("past_due"))
	require.False(t, completedGatewayStatus("canceled"))
}
