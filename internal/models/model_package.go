package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tierbill/tierbill/pkg/types"
)

// Package is an offer definition. Prices are captured into transactions at
// checkout time; editing a package never alters historical transactions.
// Packages referenced by transactions are soft-deleted only.
type Package struct {
	ID   string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Name string `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Slug string `gorm:"column:slug;type:varchar(64);not null;uniqueIndex" json:"slug"`
	// Tiers holds the per-billing-period price points.
	Tiers datatypes.JSONType[[]types.PackageTier] `gorm:"column:tiers;type:jsonb;default:'[]'" json:"tiers"`
	// Quota caps; -1 means unlimited.
	MaxConcurrentJobs int64 `gorm:"column:max_concurrent_jobs;not null;default:-1" json:"max_concurrent_jobs"`
	MaxTrackedItems   int64 `gorm:"column:max_tracked_items;not null;default:-1" json:"max_tracked_items"`

	IsActive  bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Package) TableName() string {
	return "package"
}

// TierFor returns the price point for the given billing period, nil if the
// package has no tier for it.
func (p *Package) TierFor(period types.BillingPeriod) *types.PackageTier {
	if p == nil {
		return nil
	}
	for _, t := range p.Tiers.Data() {
		if t.Period == period {
			tier := t
			return &tier
		}
	}
	return nil
}
