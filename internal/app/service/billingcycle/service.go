// Package billingcycle owns renewal/expiration date arithmetic and the
// expiration sweep that demotes lapsed accounts to the free package.
package billingcycle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/metrics"
	"github.com/tierbill/tierbill/pkg/types"
)

type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	log   *zap.SugaredLogger
	audit *audit.Service
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, audit *audit.Service) *Service {
	return &Service{cfg: cfg, db: db, log: log, audit: audit}
}

type CycleInfo struct {
	PeriodStart     *time.Time `json:"period_start"`
	PeriodEnd       *time.Time `json:"period_end"`
	NextBillingDate time.Time  `json:"next_billing_date"`
}

// CurrentCycle derives the billing window for one user from the stored
// entitlement dates, computing the next date when no explicit end is stored.
func (s *Service) CurrentCycle(ctx context.Context, userID string, period types.BillingPeriod) (*CycleInfo, error) {
	if !period.Valid() {
		period = types.BillingPeriodMonthly
	}
	ent, err := s.entitlement(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &CycleInfo{PeriodStart: ent.SubscriptionStartAt, PeriodEnd: ent.SubscriptionEndAt}
	if ent.SubscriptionEndAt != nil {
		info.NextBillingDate = *ent.SubscriptionEndAt
		return info, nil
	}

	anchor := time.Now()
	if ent.SubscriptionStartAt != nil {
		anchor = *ent.SubscriptionStartAt
	}
	info.NextBillingDate = NextBillingDate(anchor, period)
	return info, nil
}

// UpcomingRenewals lists entitlements whose end date falls within
// [now, now+withinDays] and that still carry a package.
func (s *Service) UpcomingRenewals(ctx context.Context, withinDays int) ([]*models.UserEntitlement, error) {
	now := time.Now()
	until := now.AddDate(0, 0, withinDays)

	var rows []*models.UserEntitlement
	if err := s.db.WithContext(ctx).
		Where("subscription_end_at >= ? AND subscription_end_at <= ? AND package_id IS NOT NULL", now, until).
		Order("subscription_end_at asc").
		Find(&rows).Error; err != nil {
		return nil, apperr.Database("failed to list upcoming renewals", err)
	}
	return rows, nil
}

// ExpiredSubscriptions lists entitlements whose end date is strictly in the
// past and that still carry a package.
func (s *Service) ExpiredSubscriptions(ctx context.Context) ([]*models.UserEntitlement, error) {
	var rows []*models.UserEntitlement
	if err := s.db.WithContext(ctx).
		Where("subscription_end_at < ? AND package_id IS NOT NULL", time.Now()).
		Find(&rows).Error; err != nil {
		return nil, apperr.Database("failed to list expired subscriptions", err)
	}
	return rows, nil
}

// SweepExpired demotes every expired entitlement to the configured free
// package and clears the end date. Safe to re-run: already-downgraded users
// no longer match the predicate.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	freeID := s.cfg.Billing.FreePackageID
	if freeID == "" {
		return 0, apperr.BusinessRule("free package is not configured")
	}

	res := s.db.WithContext(ctx).Model(&models.UserEntitlement{}).
		Where("subscription_end_at < ? AND package_id IS NOT NULL AND package_id <> ?", time.Now(), freeID).
		Updates(map[string]any{
			"package_id":          freeID,
			"subscription_end_at": nil,
		})
	if res.Error != nil {
		return 0, apperr.Database("expiration sweep failed", res.Error)
	}

	if res.RowsAffected > 0 {
		metrics.SweepDowngradedTotal.Add(float64(res.RowsAffected))
		logctx.FromCtx(ctx, s.log).Infow("expiration sweep demoted users", "count", res.RowsAffected)
		s.audit.Record(ctx, "system", "billingcycle.sweep_expired", "expired subscriptions demoted", map[string]any{
			"affected": res.RowsAffected,
		})
	}
	return res.RowsAffected, nil
}

// GrantEntitlement upserts the entitlement row for an active subscription:
// the user gets the package until endAt, when the sweep picks them up again
// unless a renewal pushed the date forward first.
func (s *Service) GrantEntitlement(ctx context.Context, userID, packageID string, endAt time.Time) error {
	now := time.Now()
	ent := &models.UserEntitlement{
		UserID:              userID,
		PackageID:           &packageID,
		SubscriptionStartAt: &now,
		SubscriptionEndAt:   &endAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"package_id", "subscription_end_at",
		}),
	}).Create(ent).Error
	if err != nil {
		return apperr.Database("failed to grant entitlement", err)
	}

	s.audit.Record(ctx, userID, "billingcycle.grant", "entitlement granted", map[string]any{
		"package_id": packageID,
		"end_at":     endAt,
	})
	return nil
}

func (s *Service) entitlement(ctx context.Context, userID string) (*models.UserEntitlement, error) {
	var ent models.UserEntitlement
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no entitlement for user")
		}
		return nil, apperr.Database("failed to load entitlement", err)
	}
	return &ent, nil
}
