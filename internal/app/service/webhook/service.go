// Package webhook ingests verified gateway events. Transaction events are
// mirrored into the gateway_transaction table verbatim and reconciled
// against the ledger; subscription lifecycle events keep the subscription
// and entitlement rows in step with the gateway.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/app/service/billingcycle"
	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/tool"
	"github.com/tierbill/tierbill/pkg/types"
)

type Service struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	ledger *ledger.Service
	cycle  *billingcycle.Service
	audit  *audit.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, led *ledger.Service, cycle *billingcycle.Service, audit *audit.Service) *Service {
	return &Service{db: db, log: log, ledger: led, cycle: cycle, audit: audit}
}

// Event is the generic gateway webhook envelope.
type Event struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type transactionData struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	SubscriptionID *string           `json:"subscription_id"`
	CurrencyCode   string            `json:"currency_code"`
	BilledAt       *time.Time        `json:"billed_at"`
	CustomData     map[string]string `json:"custom_data"`
	Details        struct {
		Totals struct {
			// Paddle amounts are strings in the currency's minor unit.
			GrandTotal string `json:"grand_total"`
		} `json:"totals"`
	} `json:"details"`
}

type subscriptionData struct {
	ID                   string            `json:"id"`
	Status               string            `json:"status"`
	CustomData           map[string]string `json:"custom_data"`
	CurrentBillingPeriod *struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
}

// HandleEvent dispatches one verified event. Unhandled event types are
// acknowledged without action so the gateway does not retry them forever.
func (s *Service) HandleEvent(ctx context.Context, evt *Event) error {
	switch evt.EventType {
	case "transaction.completed", "transaction.updated", "transaction.paid",
		"transaction.payment_failed", "transaction.canceled":
		return s.handleTransaction(ctx, evt)
	case "subscription.created", "subscription.activated", "subscription.updated":
		return s.handleSubscriptionUpsert(ctx, evt)
	case "subscription.canceled":
		return s.handleSubscriptionCanceled(ctx, evt)
	case "subscription.paused":
		return s.setSubscriptionStatus(ctx, evt, types.SubscriptionStatusPaused)
	case "subscription.resumed":
		return s.setSubscriptionStatus(ctx, evt, types.SubscriptionStatusActive)
	default:
		logctx.FromCtx(ctx, s.log).Infow("ignoring webhook event", "event_type", evt.EventType)
		return nil
	}
}

// handleTransaction upserts the gateway mirror row and reconciles the ledger
// row the event's custom data points back to.
func (s *Service) handleTransaction(ctx context.Context, evt *Event) error {
	var data transactionData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return apperr.Validation("malformed transaction event payload")
	}
	if data.ID == "" {
		return apperr.Validation("transaction event has no id")
	}

	userID := data.CustomData["user_id"]
	ledgerTxn := s.matchLedgerRow(ctx, data.CustomData["order_id"], data.ID)

	mirror := &models.GatewayTransaction{
		ID:                   tool.GenerateUUIDV7(),
		UserID:               userID,
		GatewayTransactionID: data.ID,
		SubscriptionID:       data.SubscriptionID,
		Status:               data.Status,
		Amount:               minorUnitAmount(data.Details.Totals.GrandTotal),
		Currency:             data.CurrencyCode,
		BilledAt:             data.BilledAt,
		Payload:              datatypes.JSON(evt.Data),
	}
	if ledgerTxn != nil {
		mirror.TransactionID = &ledgerTxn.ID
		if mirror.UserID == "" {
			mirror.UserID = ledgerTxn.UserID
		}
	}

	// One mirror row per gateway transaction; replayed and follow-up events
	// update it in place.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "amount", "currency", "billed_at", "payload", "transaction_id", "updated_at",
		}),
	}).Create(mirror).Error
	if err != nil {
		return apperr.Database("failed to upsert gateway transaction", err)
	}

	if ledgerTxn != nil {
		gs := gateway.MapTransactionStatus(data.Status)
		if evt.EventType == "transaction.payment_failed" {
			gs = types.GatewayStatusFailure
		}
		if err := s.ledger.Reconcile(ctx, ledgerTxn.ID, gs, data.ID, evt.Data, ""); err != nil {
			if errors.Is(err, ledger.ErrTerminalState) {
				logctx.FromCtx(ctx, s.log).Warnw("webhook arrived after terminal state",
					"transaction_id", ledgerTxn.ID, "event_type", evt.EventType)
				return nil
			}
			return err
		}
	}

	s.audit.Record(ctx, userID, "webhook.transaction", evt.EventType, map[string]any{
		"event_id":               evt.EventID,
		"gateway_transaction_id": data.ID,
	})
	return nil
}

// matchLedgerRow finds the pending ledger row the gateway charge belongs to,
// by order id first and the previously assigned gateway transaction id as a
// fallback. A miss is not an error; renewals have no local checkout row.
func (s *Service) matchLedgerRow(ctx context.Context, orderID, gatewayTxnID string) *models.Transaction {
	var txn models.Transaction
	if orderID != "" {
		if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&txn).Error; err == nil {
			return &txn
		}
	}
	if gatewayTxnID != "" {
		if err := s.db.WithContext(ctx).Where("gateway_transaction_id = ?", gatewayTxnID).First(&txn).Error; err == nil {
			return &txn
		}
	}
	return nil
}

// subscriptionIdentity resolves who owns the subscription and which package
// it is for. Custom data wins; the checkout ledger row fills whatever the
// event did not carry.
func subscriptionIdentity(data *subscriptionData, ledgerTxn *models.Transaction) (userID, packageID string) {
	userID = data.CustomData["user_id"]
	packageID = data.CustomData["package_id"]
	if ledgerTxn != nil {
		if userID == "" {
			userID = ledgerTxn.UserID
		}
		if packageID == "" {
			packageID = ledgerTxn.PackageID
		}
	}
	return userID, packageID
}

func (s *Service) handleSubscriptionUpsert(ctx context.Context, evt *Event) error {
	var data subscriptionData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return apperr.Validation("malformed subscription event payload")
	}
	if data.ID == "" {
		return apperr.Validation("subscription event has no id")
	}

	var ledgerTxn *models.Transaction
	if data.CustomData["user_id"] == "" || data.CustomData["package_id"] == "" {
		ledgerTxn = s.matchLedgerRow(ctx, data.CustomData["order_id"], "")
	}
	userID, packageID := subscriptionIdentity(&data, ledgerTxn)
	if userID == "" || packageID == "" {
		// Without an owner and a package there is nothing valid to upsert,
		// and package_id is a not-null column. Acknowledge so the gateway
		// does not retry an event we can never attribute.
		logctx.FromCtx(ctx, s.log).Warnw("subscription event has no resolvable owner or package, skipping",
			"event_id", evt.EventID, "gateway_subscription_id", data.ID)
		return nil
	}

	status := types.SubscriptionStatusActive
	switch data.Status {
	case "paused":
		status = types.SubscriptionStatusPaused
	case "canceled", "cancelled":
		status = types.SubscriptionStatusCancelled
	}

	sub := &models.Subscription{
		ID:                    tool.GenerateUUIDV7(),
		UserID:                userID,
		PackageID:             packageID,
		GatewaySubscriptionID: data.ID,
		Status:                status,
	}
	if data.CurrentBillingPeriod != nil {
		end := data.CurrentBillingPeriod.EndsAt
		sub.CurrentPeriodEnd = &end
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "gateway_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "current_period_end", "updated_at",
		}),
	}).Create(sub).Error
	if err != nil {
		return apperr.Database("failed to upsert subscription", err)
	}

	// Entitlement follows an active subscription; a paused or cancelled
	// update leaves it for the sweep or the cancellation path.
	if status == types.SubscriptionStatusActive && sub.CurrentPeriodEnd != nil {
		if err := s.cycle.GrantEntitlement(ctx, userID, packageID, *sub.CurrentPeriodEnd); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, userID, "webhook.subscription", evt.EventType, map[string]any{
		"event_id":                evt.EventID,
		"gateway_subscription_id": data.ID,
		"status":                  string(status),
	})
	return nil
}

func (s *Service) handleSubscriptionCanceled(ctx context.Context, evt *Event) error {
	var data subscriptionData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return apperr.Validation("malformed subscription event payload")
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("gateway_subscription_id = ?", data.ID).
		Updates(map[string]any{
			"status":      types.SubscriptionStatusCancelled,
			"canceled_at": now,
		}).Error; err != nil {
		return apperr.Database("failed to mark subscription cancelled", err)
	}

	s.audit.Record(ctx, data.CustomData["user_id"], "webhook.subscription", evt.EventType, map[string]any{
		"event_id":                evt.EventID,
		"gateway_subscription_id": data.ID,
	})
	return nil
}

func (s *Service) setSubscriptionStatus(ctx context.Context, evt *Event, status types.SubscriptionStatus) error {
	var data subscriptionData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return apperr.Validation("malformed subscription event payload")
	}

	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("gateway_subscription_id = ?", data.ID).
		Update("status", status).Error; err != nil {
		return apperr.Database("failed to update subscription status", err)
	}
	return nil
}

// minorUnitAmount converts the gateway's minor-unit string amount ("1999")
// to a major-unit float (19.99). Unparseable input yields zero; the verbatim
// payload still carries the original value.
func minorUnitAmount(s string) float64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return float64(n) / 100
}
