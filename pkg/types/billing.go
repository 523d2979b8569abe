package types

// TransactionStatus is the internal ledger vocabulary. A transaction starts
// pending and transitions exactly once; completed and refunded rows are immutable.
type TransactionStatus string

const (
	TransactionStatusPending       TransactionStatus = "pending"
	TransactionStatusCompleted     TransactionStatus = "completed"
	TransactionStatusFailed        TransactionStatus = "failed"
	TransactionStatusCancelled     TransactionStatus = "cancelled"
	TransactionStatusRefunded      TransactionStatus = "refunded"
	TransactionStatusProofUploaded TransactionStatus = "proof_uploaded"
)

// Terminal reports whether no further status mutation is permitted.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed,
		TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	}
	return false
}

// GatewayStatus is the gateway-side transaction vocabulary as normalized by the
// gateway adapter. Reconciliation maps it onto TransactionStatus via a fixed table.
type GatewayStatus string

const (
	GatewayStatusCapture    GatewayStatus = "capture"
	GatewayStatusSettlement GatewayStatus = "settlement"
	GatewayStatusPending    GatewayStatus = "pending"
	GatewayStatusDeny       GatewayStatus = "deny"
	GatewayStatusCancel     GatewayStatus = "cancel"
	GatewayStatusExpire     GatewayStatus = "expire"
	GatewayStatusFailure    GatewayStatus = "failure"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodAnnual  BillingPeriod = "annual"
)

func (p BillingPeriod) Valid() bool {
	return p == BillingPeriodMonthly || p == BillingPeriodAnnual
}

// PackageTier is one per-period price point of a package. PromoPrice of zero
// means no promotion. GatewayPriceID references the gateway catalog entry.
type PackageTier struct {
	Period         BillingPeriod `json:"period" mapstructure:"period"`
	RegularPrice   float64       `json:"regular_price" mapstructure:"regular_price"`
	PromoPrice     float64       `json:"promo_price" mapstructure:"promo_price"`
	GatewayPriceID string        `json:"gateway_price_id" mapstructure:"gateway_price_id"`
}

// EffectiveFrom selects when a gateway-side subscription change takes effect.
type EffectiveFrom string

const (
	EffectiveImmediately       EffectiveFrom = "immediate"
	EffectiveNextBillingPeriod EffectiveFrom = "next_billing_period"
)

// CancellationAction is the user-facing outcome of a cancellation request.
type CancellationAction string

const (
	CancellationImmediateWithRefund CancellationAction = "immediate_with_refund"
	CancellationScheduledNoRefund   CancellationAction = "scheduled_no_refund"
)

// TransactionSource tags which table a normalized history row came from.
type TransactionSource string

const (
	TransactionSourceLedger  TransactionSource = "ledger"
	TransactionSourceGateway TransactionSource = "gateway"
)
