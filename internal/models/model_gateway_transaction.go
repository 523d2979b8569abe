package models

import (
	"time"

	"gorm.io/datatypes"
)

// GatewayTransaction mirrors the gateway's own transaction records, fed by
// webhook ingestion. Read-mostly; used by the history aggregator and never
// authoritative for entitlement. Payload keeps the gateway event verbatim.
type GatewayTransaction struct {
	ID                   string  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	TransactionID        *string `gorm:"column:transaction_id;type:uuid;index" json:"transaction_id"`
	UserID               string  `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	GatewayTransactionID string  `gorm:"column:gateway_transaction_id;type:varchar(128);not null;uniqueIndex" json:"gateway_transaction_id"`
	SubscriptionID       *string `gorm:"column:subscription_id;type:varchar(128);index" json:"subscription_id"`

	// Status keeps the gateway's native vocabulary.
	Status   string  `gorm:"column:status;type:varchar(32);not null" json:"status"`
	Amount   float64 `gorm:"column:amount;not null" json:"amount"`
	Currency string  `gorm:"column:currency;type:varchar(8);not null" json:"currency"`

	BilledAt  *time.Time     `gorm:"column:billed_at;default:null" json:"billed_at"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb;default:'{}'" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (GatewayTransaction) TableName() string {
	return "gateway_transaction"
}
