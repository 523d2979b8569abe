package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/pkg/types"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		in         types.GatewayStatus
		want       types.TransactionStatus
		recognized bool
	}{
		{types.GatewayStatusCapture, types.TransactionStatusCompleted, true},
		{types.GatewayStatusSettlement, types.TransactionStatusCompleted, true},
		{types.GatewayStatusPending, types.TransactionStatusPending, true},
		{types.GatewayStatusDeny, types.TransactionStatusFailed, true},
		{types.GatewayStatusCancel, types.TransactionStatusFailed, true},
		{types.GatewayStatusExpire, types.TransactionStatusFailed, true},
		{types.GatewayStatusFailure, types.TransactionStatusFailed, true},
		{types.GatewayStatus("weird_new_status"), types.TransactionStatusPending, false},
	}
	for _, c := range cases {
		got, ok := MapGatewayStatus(c.in)
		require.Equal(t, c.want, got, "status %s", c.in)
		require.Equal(t, c.recognized, ok, "status %s", c.in)
	}
}

func TestCanTransition_FromPending(t *testing.T) {
	for _, to := range []types.TransactionStatus{
		types.TransactionStatusCompleted,
		types.TransactionStatusFailed,
		types.TransactionStatusCancelled,
		types.TransactionStatusRefunded,
		types.TransactionStatusProofUploaded,
	} {
		require.True(t, CanTransition(types.TransactionStatusPending, to), "pending -> %s", to)
	}
}

func TestCanTransition_TerminalStatesAreFinal(t *testing.T) {
	terminals := []types.TransactionStatus{
		types.TransactionStatusCompleted,
		types.TransactionStatusFailed,
		types.TransactionStatusCancelled,
		types.TransactionStatusRefunded,
	}
	targets := []types.TransactionStatus{
		types.TransactionStatusPending,
		types.TransactionStatusCompleted,
		types.TransactionStatusFailed,
		types.TransactionStatusProofUploaded,
	}
	for _, from := range terminals {
		require.True(t, from.Terminal())
		for _, to := range targets {
			require.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
		}
	}
}

func TestCanTransition_ProofUploaded(t *testing.T) {
	from := types.TransactionStatusProofUploaded
	require.False(t, from.Terminal())
	require.True(t, CanTransition(from, types.TransactionStatusCompleted))
	require.True(t, CanTransition(from, types.TransactionStatusFailed))
	require.False(t, CanTransition(from, types.TransactionStatusRefunded))
	require.False(t, CanTransition(from, types.TransactionStatusPending))
}
