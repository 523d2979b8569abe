package ledger

import (
	"errors"

	"github.com/tierbill/tierbill/pkg/types"
)

// ErrTerminalState is returned when code attempts to mutate a transaction
// that already reached a terminal status.
var ErrTerminalState = errors.New("transaction is in a terminal state")

// CanTransition encodes the ledger state machine: a transaction leaves
// pending exactly once; proof_uploaded is the only intermediate state and is
// settled by an operator decision.
func CanTransition(from, to types.TransactionStatus) bool {
	switch from {
	case types.TransactionStatusPending:
		switch to {
		case types.TransactionStatusCompleted,
			types.TransactionStatusFailed,
			types.TransactionStatusCancelled,
			types.TransactionStatusRefunded,
			types.TransactionStatusProofUploaded:
			return true
		}
	case types.TransactionStatusProofUploaded:
		return to == types.TransactionStatusCompleted || to == types.TransactionStatusFailed
	}
	return false
}

// MapGatewayStatus is the fixed reconciliation table from the gateway
// vocabulary onto ledger statuses. The second return reports whether the
// status is recognized; unrecognized values leave the row pending and must be
// logged, never silently dropped.
func MapGatewayStatus(gs types.GatewayStatus) (types.TransactionStatus, bool) {
	switch gs {
	case types.GatewayStatusCapture, types.GatewayStatusSettlement:
		return types.TransactionStatusCompleted, true
	case types.GatewayStatusPending:
		return types.TransactionStatusPending, true
	case types.GatewayStatusDeny, types.GatewayStatusCancel,
		types.GatewayStatusExpire, types.GatewayStatusFailure:
		return types.TransactionStatusFailed, true
	default:
		return types.TransactionStatusPending, false
	}
}
