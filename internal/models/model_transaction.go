package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tierbill/tierbill/pkg/types"
)

// CustomerSnapshot preserves the customer details submitted with a checkout.
type CustomerSnapshot struct {
	Email   string `json:"email,omitempty"`
	Country string `json:"country,omitempty"`
	Name    string `json:"name,omitempty"`
}

// TransactionMetadata is the free-form envelope captured on a ledger row.
// GatewayPayload retains the gateway's raw response verbatim for audit.
type TransactionMetadata struct {
	BillingPeriod  types.BillingPeriod `json:"billing_period,omitempty"`
	OriginalAmount float64             `json:"original_amount,omitempty"`
	PromoAmount    float64             `json:"promo_amount,omitempty"`
	IsTrial        bool                `json:"is_trial,omitempty"`
	Customer       *CustomerSnapshot   `json:"customer,omitempty"`
	GatewayPayload datatypes.JSON      `json:"gateway_payload,omitempty"`
}

// Transaction is the internal authoritative record of one checkout attempt.
// Amount and currency are fixed at creation and never recomputed from the
// package's current price. Rows are never deleted; status transitions append
// to the audit trail.
type Transaction struct {
	ID     string `gorm:"column:id;primary_key;type:uuid;index:idx_txn_user_id,priority:2,sort:desc" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index:idx_txn_user_id,priority:1" json:"user_id"`
	// OrderID is minted before the gateway call so any gateway charge is
	// traceable back to a pending row. Best-effort unique, not an
	// idempotency key.
	OrderID   string `gorm:"column:order_id;type:varchar(128);not null;index" json:"order_id"`
	PackageID string `gorm:"column:package_id;type:uuid;not null" json:"package_id"`
	GatewayID string `gorm:"column:gateway_id;type:varchar(64);not null" json:"gateway_id"`

	Amount        float64                 `gorm:"column:amount;not null" json:"amount"`
	Currency      string                  `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status        types.TransactionStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaymentMethod string                  `gorm:"column:payment_method;type:varchar(64);not null" json:"payment_method"`

	// GatewayTransactionID is assigned once the gateway responds.
	GatewayTransactionID *string `gorm:"column:gateway_transaction_id;type:varchar(128);index" json:"gateway_transaction_id"`
	// ProofFileRef points to an uploaded proof for manual payment methods.
	ProofFileRef *string `gorm:"column:proof_file_ref;type:varchar(256)" json:"proof_file_ref"`
	ErrorMessage *string `gorm:"column:error_message;type:text" json:"error_message"`

	Metadata  datatypes.JSONType[*TransactionMetadata] `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt time.Time                                `json:"created_at"`
	UpdatedAt time.Time                                `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transaction"
}

func (t *Transaction) IsTrial() bool {
	if t == nil || t.Metadata.Data() == nil {
		return false
	}
	return t.Metadata.Data().IsTrial
}
