package history

import (
	"sort"
	"time"

	"github.com/tierbill/tierbill/pkg/types"
)

// NormalizedTransaction is the single row shape the history endpoint speaks,
// regardless of which table the row came from.
type NormalizedTransaction struct {
	ID         string                  `json:"id"`
	Source     types.TransactionSource `json:"source"`
	OrderID    string                  `json:"order_id,omitempty"`
	Status     string                  `json:"status"`
	Amount     float64                 `json:"amount"`
	Currency   string                  `json:"currency"`
	Method     string                  `json:"payment_method,omitempty"`
	OccurredAt time.Time               `json:"occurred_at"`
}

// mergeDescending combines both source windows into one list ordered by
// occurrence time, newest first. Ties break toward the ledger source so the
// authoritative row surfaces above its gateway mirror.
func mergeDescending(a, b []NormalizedTransaction) []NormalizedTransaction {
	out := make([]NormalizedTransaction, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].Source == types.TransactionSourceLedger &&
				out[j].Source != types.TransactionSourceLedger
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

// page slices one page out of the merged list. Page numbers are 1-based.
func page(rows []NormalizedTransaction, pageNum, limit int) []NormalizedTransaction {
	if pageNum < 1 {
		pageNum = 1
	}
	start := (pageNum - 1) * limit
	if start >= len(rows) {
		return []NormalizedTransaction{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
