package models

import (
	"time"

	"github.com/tierbill/tierbill/pkg/types"
)

// Subscription is a recurring-billing agreement tied 1:1 with a gateway
// subscription. Rows are retained for history, never deleted. CreatedAt is
// the refund-window anchor.
type Subscription struct {
	ID                    string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID                string                   `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	PackageID             string                   `gorm:"column:package_id;type:uuid;not null" json:"package_id"`
	GatewaySubscriptionID string                   `gorm:"column:gateway_subscription_id;type:varchar(128);not null;uniqueIndex" json:"gateway_subscription_id"`
	Status                types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CancelAtPeriodEnd     bool                     `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	CanceledAt            *time.Time               `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	CurrentPeriodEnd      *time.Time               `gorm:"column:current_period_end;default:null" json:"current_period_end"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Active() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}
