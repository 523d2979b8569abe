package history

import (
	"strings"

	"github.com/tierbill/tierbill/pkg/types"
)

type statusCount struct {
	Status string
	Count  int64
}

type statusAmount struct {
	Status string
	Count  int64
	Total  float64
}

// completedGatewayStatus reports whether a gateway-native status string
// represents settled money.
func completedGatewayStatus(s string) bool {
	switch strings.ToLower(s) {
	case "completed", "paid", "settlement", "capture":
		return true
	}
	return false
}

// composeSummary folds the aggregate query results into the response shape.
// Ledger rows are bucketed on the platform status vocabulary; unlinked
// gateway rows (renewals with no checkout row) contribute to the completed
// bucket and to spend when their gateway status is a settled one.
func composeSummary(ledgerByStatus []statusCount, gatewayCount int64, unlinkedGateway []statusAmount, ledgerSpent float64) Summary {
	sum := Summary{GatewayCount: gatewayCount, TotalSpent: ledgerSpent}
	for _, sc := range ledgerByStatus {
		sum.LedgerCount += sc.Count
		switch types.TransactionStatus(sc.Status) {
		case types.TransactionStatusCompleted:
			sum.CompletedCount += sc.Count
		case types.TransactionStatusPending, types.TransactionStatusProofUploaded:
			sum.PendingCount += sc.Count
		case types.TransactionStatusFailed, types.TransactionStatusCancelled:
			sum.FailedCount += sc.Count
		}
	}
	for _, sa := range unlinkedGateway {
		if completedGatewayStatus(sa.Status) {
			sum.CompletedCount += sa.Count
			sum.TotalSpent += sa.Total
		}
	}
	sum.TotalTransactions = sum.LedgerCount + gatewayCount
	return sum
}
