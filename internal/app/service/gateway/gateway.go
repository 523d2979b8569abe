// Package gateway wraps the remote payment provider behind a fixed operation
// set. The rest of the system only sees PaymentGateway and the normalized
// gateway-status vocabulary; provider specifics stay in the implementation.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/tierbill/tierbill/pkg/types"
)

// ErrAmbiguous marks a gateway call whose outcome is unknown (transport
// timeout). The payment processor leaves the ledger row pending in that case
// instead of reconciling to failed.
var ErrAmbiguous = errors.New("gateway call outcome is ambiguous")

type CheckoutRequest struct {
	OrderID        string
	UserID         string
	PackageID      string
	GatewayPriceID string
	CustomerEmail  string
	SuccessURL     string
}

type CheckoutResult struct {
	GatewayTransactionID string
	Status               types.GatewayStatus
	CheckoutURL          string
	// Raw is the gateway's response verbatim, persisted for audit.
	Raw json.RawMessage
}

type SubscriptionInfo struct {
	ID               string
	Status           string
	CurrentPeriodEnd *time.Time
}

type RefundResult struct {
	AdjustmentID string
	Status       string
	Raw          json.RawMessage
}

type TransactionInfo struct {
	ID             string
	Status         types.GatewayStatus
	SubscriptionID *string
	Raw            json.RawMessage
}

type ListFilter struct {
	SubscriptionID string
}

// PaymentGateway is the fixed operation set any gateway implementation must
// support.
type PaymentGateway interface {
	CreateSubscriptionCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error)
	GetSubscription(ctx context.Context, id string) (*SubscriptionInfo, error)
	CancelSubscription(ctx context.Context, id string, effective types.EffectiveFrom) error
	PauseSubscription(ctx context.Context, id string) error
	ResumeSubscription(ctx context.Context, id string) error
	CreateRefundAdjustment(ctx context.Context, gatewayTransactionID, reason string) (*RefundResult, error)
	GetTransaction(ctx context.Context, id string) (*TransactionInfo, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*TransactionInfo, error)
	// VerifyWebhook validates the signature of an inbound gateway event.
	VerifyWebhook(req *http.Request) (bool, error)
}
