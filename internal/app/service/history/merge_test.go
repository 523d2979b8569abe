package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/pkg/types"
)

func rows(source types.TransactionSource, times ...time.Time) []NormalizedTransaction {
	out := make([]NormalizedTransaction, 0, len(times))
	for i, ts := range times {
		out = append(out, NormalizedTransaction{
			ID:         string(source) + "-" + string(rune('a'+i)),
			Source:     source,
			OccurredAt: ts,
		})
	}
	return out
}

func TestMergeDescending_Interleaves(t *testing.T) {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	ledger := rows(types.TransactionSourceLedger,
		base.AddDate(0, 0, 10), base.AddDate(0, 0, 4), base.AddDate(0, 0, 1))
	gw := rows(types.TransactionSourceGateway,
		base.AddDate(0, 0, 7), base.AddDate(0, 0, 2))

	merged := mergeDescending(ledger, gw)
	require.Len(t, merged, 5)
	for i := 1; i < len(merged); i++ {
		require.False(t, merged[i].OccurredAt.After(merged[i-1].OccurredAt),
			"rows must be newest first at index %d", i)
	}
}

func TestMergeDescending_TieBreaksTowardLedger(t *testing.T) {
	ts := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	merged := mergeDescending(
		rows(types.TransactionSourceLedger, ts),
		rows(types.TransactionSourceGateway, ts),
	)
	require.Len(t, merged, 2)
	require.Equal(t, types.TransactionSourceLedger, merged[0].Source)
	require.Equal(t, types.TransactionSourceGateway, merged[1].Source)
}

func TestPage(t *testing.T) {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	var all []NormalizedTransaction
	for i := 0; i < 25; i++ {
		all = append(all, NormalizedTransaction{OccurredAt: base.AddDate(0, 0, -i)})
	}

	first := page(all, 1, 10)
	require.Len(t, first, 10)
	require.Equal(t, all[0], first[0])

	third := page(all, 3, 10)
	require.Len(t, third, 5)
	require.Equal(t, all[20], third[0])

	require.Empty(t, page(all, 4, 10))
	// Page zero behaves like page one.
	require.Equal(t, first, page(all, 0, 10))
}
