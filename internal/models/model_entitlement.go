package models

import (
	"time"
)

// UserEntitlement is the user's current package assignment and its validity
// window. End dates are only ever set alongside a confirmed payment or a
// confirmed cancellation; the expiration sweep is the only unilateral
// downgrade path.
type UserEntitlement struct {
	UserID              string     `gorm:"column:user_id;type:varchar(64);primary_key" json:"user_id"`
	PackageID           *string    `gorm:"column:package_id;type:uuid" json:"package_id"`
	SubscriptionStartAt *time.Time `gorm:"column:subscription_start_at;default:null" json:"subscription_start_at"`
	SubscriptionEndAt   *time.Time `gorm:"column:subscription_end_at;default:null;index" json:"subscription_end_at"`
	DailyQuotaUsed      int64      `gorm:"column:daily_quota_used;not null;default:0" json:"daily_quota_used"`
	TrialUsed           bool       `gorm:"column:trial_used;not null;default:false" json:"trial_used"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (UserEntitlement) TableName() string {
	return "user_entitlement"
}
