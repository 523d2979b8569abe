// Package cancellation drives the refund-window policy: the gateway
// subscription, the optional refund adjustment and the internal
// subscription/entitlement rows are three independent state changes, applied
// in an order that never leaves a user cancelled-but-still-billed.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/metrics"
	"github.com/tierbill/tierbill/pkg/types"
)

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	gw     gateway.PaymentGateway
	ledger *ledger.Service
	audit  *audit.Service
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, gw gateway.PaymentGateway, led *ledger.Service, audit *audit.Service) *Service {
	return &Service{cfg: cfg, db: db, log: log, gw: gw, ledger: led, audit: audit}
}

type CancelResult struct {
	Action       types.CancellationAction `json:"action"`
	RefundAmount float64                  `json:"refund,omitempty"`
	DaysActive   int                      `json:"days_active"`
	Message      string                   `json:"message"`
}

// Cancel applies the refund-window policy to a subscription owned by userID.
func (s *Service) Cancel(ctx context.Context, userID, subscriptionID string) (*CancelResult, error) {
	sub, err := s.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == types.SubscriptionStatusCancelled {
		return nil, apperr.BusinessRule("subscription is already cancelled")
	}

	now := time.Now()
	action, days := Decide(sub.CreatedAt, now, s.cfg.Billing.RefundWindowDays)

	if action == types.CancellationImmediateWithRefund {
		return s.cancelImmediate(ctx, sub, days, now)
	}
	return s.cancelScheduled(ctx, sub, days, now)
}

func (s *Service) cancelImmediate(ctx context.Context, sub *models.Subscription, days int, now time.Time) (*CancelResult, error) {
	if err := s.gw.CancelSubscription(ctx, sub.GatewaySubscriptionID, types.EffectiveImmediately); err != nil {
		s.audit.Record(ctx, sub.UserID, "cancellation.cancel", "gateway cancel failed", map[string]any{
			"subscription_id": sub.ID, "error": err.Error(),
		})
		return nil, err
	}

	// The subscription is already cancelled at the gateway from here on; a
	// refund failure becomes an operational follow-up, never a rollback.
	refundAmount := s.tryRefund(ctx, sub)

	updates := map[string]any{
		"status":               types.SubscriptionStatusCancelled,
		"cancel_at_period_end": false,
		"canceled_at":          now,
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
		return nil, apperr.Database("failed to mark subscription cancelled", err)
	}

	if err := s.clearEntitlement(ctx, sub.UserID, now); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, sub.UserID, "cancellation.cancel", "immediate cancellation", map[string]any{
		"subscription_id": sub.ID,
		"days_active":     days,
		"refund_amount":   refundAmount,
	})

	msg := "subscription cancelled"
	if refundAmount > 0 {
		msg = fmt.Sprintf("subscription cancelled, %.2f %s refund initiated", refundAmount, s.cfg.Billing.Currency)
	}
	return &CancelResult{
		Action:       types.CancellationImmediateWithRefund,
		RefundAmount: refundAmount,
		DaysActive:   days,
		Message:      msg,
	}, nil
}

// tryRefund looks up the most recent completed ledger row for the
// subscription and requests a full refund adjustment. Failures are logged as
// high-severity and swallowed: cancellation and refund are decoupled.
func (s *Service) tryRefund(ctx context.Context, sub *models.Subscription) float64 {
	txn, err := s.ledger.LatestCompletedForSubscription(ctx, sub)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("refund lookup failed",
			"subscription_id", sub.ID, "err", err)
		metrics.RefundTotal.WithLabelValues("lookup_failed").Inc()
		return 0
	}
	if txn == nil || txn.GatewayTransactionID == nil {
		return 0
	}

	res, err := s.gw.CreateRefundAdjustment(ctx, *txn.GatewayTransactionID, "refund-window cancellation")
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("refund adjustment failed, needs operator follow-up",
			"subscription_id", sub.ID,
			"transaction_id", txn.ID,
			"gateway_transaction_id", *txn.GatewayTransactionID,
			"err", err)
		metrics.RefundTotal.WithLabelValues("failed").Inc()
		return 0
	}

	metrics.RefundTotal.WithLabelValues("ok").Inc()
	s.audit.Record(ctx, sub.UserID, "cancellation.refund", "full refund adjustment created", map[string]any{
		"subscription_id": sub.ID,
		"transaction_id":  txn.ID,
		"adjustment_id":   res.AdjustmentID,
		"amount":          txn.Amount,
	})
	return txn.Amount
}

func (s *Service) cancelScheduled(ctx context.Context, sub *models.Subscription, days int, now time.Time) (*CancelResult, error) {
	if err := s.gw.CancelSubscription(ctx, sub.GatewaySubscriptionID, types.EffectiveNextBillingPeriod); err != nil {
		s.audit.Record(ctx, sub.UserID, "cancellation.cancel", "gateway scheduled cancel failed", map[string]any{
			"subscription_id": sub.ID, "error": err.Error(),
		})
		return nil, err
	}

	// Entitlement is untouched; the expiration sweep picks the user up when
	// the period elapses.
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Updates(map[string]any{
			"cancel_at_period_end": true,
			"canceled_at":          now,
		}).Error; err != nil {
		return nil, apperr.Database("failed to schedule cancellation", err)
	}

	s.audit.Record(ctx, sub.UserID, "cancellation.cancel", "scheduled cancellation", map[string]any{
		"subscription_id": sub.ID,
		"days_active":     days,
	})

	msg := "subscription will end at the current billing period"
	if sub.CurrentPeriodEnd != nil {
		msg = fmt.Sprintf("subscription will end on %s", sub.CurrentPeriodEnd.Format("2006-01-02"))
	}
	return &CancelResult{
		Action:     types.CancellationScheduledNoRefund,
		DaysActive: days,
		Message:    msg,
	}, nil
}

// GetRefundWindowInfo projects the policy for UI display with the same
// day-count semantics as the decision path.
func (s *Service) GetRefundWindowInfo(ctx context.Context, userID, subscriptionID string) (*RefundWindowInfo, error) {
	sub, err := s.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	info := WindowInfo(sub.CreatedAt, time.Now(), s.cfg.Billing.RefundWindowDays)
	return &info, nil
}

// Pause suspends billing at the gateway and mirrors the state internally.
func (s *Service) Pause(ctx context.Context, userID, subscriptionID string) error {
	sub, err := s.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != types.SubscriptionStatusActive {
		return apperr.BusinessRule("only an active subscription can be paused")
	}
	if err := s.gw.PauseSubscription(ctx, sub.GatewaySubscriptionID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Update("status", types.SubscriptionStatusPaused).Error; err != nil {
		return apperr.Database("failed to mark subscription paused", err)
	}
	s.audit.Record(ctx, userID, "cancellation.pause", "subscription paused", map[string]any{"subscription_id": sub.ID})
	return nil
}

// Resume reactivates a paused subscription.
func (s *Service) Resume(ctx context.Context, userID, subscriptionID string) error {
	sub, err := s.ownedSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != types.SubscriptionStatusPaused {
		return apperr.BusinessRule("only a paused subscription can be resumed")
	}
	if err := s.gw.ResumeSubscription(ctx, sub.GatewaySubscriptionID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).Update("status", types.SubscriptionStatusActive).Error; err != nil {
		return apperr.Database("failed to mark subscription active", err)
	}
	s.audit.Record(ctx, userID, "cancellation.resume", "subscription resumed", map[string]any{"subscription_id": sub.ID})
	return nil
}

func (s *Service) clearEntitlement(ctx context.Context, userID string, now time.Time) error {
	if err := s.db.WithContext(ctx).Model(&models.UserEntitlement{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"package_id":          nil,
			"subscription_end_at": now,
		}).Error; err != nil {
		return apperr.Database("failed to clear entitlement", err)
	}
	return nil
}

func (s *Service) ownedSubscription(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("subscription not found")
		}
		return nil, apperr.Database("failed to load subscription", err)
	}
	return &sub, nil
}
