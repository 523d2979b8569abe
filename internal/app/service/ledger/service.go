// Package ledger owns the internal transaction record lifecycle: rows are
// created pending, reconciled against the gateway exactly once, and never
// deleted.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/tool"
	"github.com/tierbill/tierbill/pkg/types"
)

type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	audit *audit.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, audit *audit.Service) *Service {
	return &Service{db: db, log: log, audit: audit}
}

type CreatePendingRequest struct {
	UserID        string
	OrderID       string
	PackageID     string
	GatewayID     string
	Amount        float64
	Currency      string
	PaymentMethod string
	Metadata      *models.TransactionMetadata
}

// CreatePending writes the pending ledger row. The amount is captured here
// and never recomputed from the package's current price.
func (s *Service) CreatePending(ctx context.Context, req *CreatePendingRequest) (*models.Transaction, error) {
	isTrial := req.Metadata != nil && req.Metadata.IsTrial
	if req.Amount <= 0 && !isTrial {
		return nil, apperr.Validation("amount must be positive for a non-trial checkout")
	}
	if req.UserID == "" || req.PackageID == "" {
		return nil, apperr.Validation("user and package are required")
	}

	txn := &models.Transaction{
		ID:            tool.GenerateUUIDV7(),
		UserID:        req.UserID,
		OrderID:       req.OrderID,
		PackageID:     req.PackageID,
		GatewayID:     req.GatewayID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        types.TransactionStatusPending,
		PaymentMethod: req.PaymentMethod,
		Metadata:      datatypes.NewJSONType(req.Metadata),
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, apperr.Database("failed to create pending transaction", err)
	}

	s.audit.Record(ctx, req.UserID, "ledger.create_pending", "checkout started", map[string]any{
		"transaction_id": txn.ID,
		"package_id":     req.PackageID,
		"amount":         req.Amount,
		"currency":       req.Currency,
	})
	return txn, nil
}

// Reconcile maps the gateway's status onto the ledger row. The raw gateway
// payload is persisted verbatim into the metadata envelope regardless of
// outcome. Unrecognized statuses leave the row pending with a warning.
func (s *Service) Reconcile(ctx context.Context, transactionID string, gatewayStatus types.GatewayStatus, gatewayTransactionID string, rawPayload json.RawMessage, errMsg string) error {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return err
	}

	target, recognized := MapGatewayStatus(gatewayStatus)
	if !recognized {
		logctx.FromCtx(ctx, s.log).Warnw("unrecognized gateway status",
			"transaction_id", transactionID, "gateway_status", string(gatewayStatus))
	}

	if txn.Status.Terminal() {
		// A second reconcile with the same outcome is a no-op; anything else
		// is a violation.
		if target == txn.Status {
			return nil
		}
		return fmt.Errorf("reconcile %s -> %s: %w", txn.Status, target, ErrTerminalState)
	}

	updates := map[string]any{}
	if gatewayTransactionID != "" {
		updates["gateway_transaction_id"] = gatewayTransactionID
	}
	if target != txn.Status {
		if !CanTransition(txn.Status, target) {
			return fmt.Errorf("reconcile %s -> %s: %w", txn.Status, target, ErrTerminalState)
		}
		updates["status"] = target
	}
	if errMsg != "" && target == types.TransactionStatusFailed {
		updates["error_message"] = errMsg
	}

	meta := txn.Metadata.Data()
	if meta == nil {
		meta = &models.TransactionMetadata{}
	}
	if len(rawPayload) > 0 {
		meta.GatewayPayload = datatypes.JSON(rawPayload)
	}
	updates["metadata"] = datatypes.NewJSONType(meta)

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Updates(updates).Error; err != nil {
		return apperr.Database("failed to reconcile transaction", err)
	}

	s.audit.Record(ctx, txn.UserID, "ledger.reconcile", "gateway reconciliation", map[string]any{
		"transaction_id": transactionID,
		"gateway_status": string(gatewayStatus),
		"status":         string(target),
		"recognized":     recognized,
	})
	return nil
}

// MarkProofUploaded attaches a proof reference to a pending manual-payment
// transaction. Transactions already completed or refunded reject the upload.
func (s *Service) MarkProofUploaded(ctx context.Context, transactionID, proofRef string) error {
	txn, err := s.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if !CanTransition(txn.Status, types.TransactionStatusProofUploaded) {
		return apperr.BusinessRule(fmt.Sprintf("transaction is already %s", txn.Status))
	}

	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		Updates(map[string]any{
			"status":         types.TransactionStatusProofUploaded,
			"proof_file_ref": proofRef,
		}).Error; err != nil {
		return apperr.Database("failed to mark proof uploaded", err)
	}

	s.audit.Record(ctx, txn.UserID, "ledger.proof_uploaded", "manual payment proof attached", map[string]any{
		"transaction_id": transactionID,
		"proof_ref":      proofRef,
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("transaction not found")
		}
		return nil, apperr.Database("failed to load transaction", err)
	}
	return &txn, nil
}

// LatestCompletedForSubscription returns the most recent completed ledger row
// backing the subscription, nil when there is none.
func (s *Service) LatestCompletedForSubscription(ctx context.Context, sub *models.Subscription) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND package_id = ? AND status = ?",
			sub.UserID, sub.PackageID, types.TransactionStatusCompleted).
		Order("created_at desc").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Database("failed to load latest completed transaction", err)
	}
	return &txn, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

// Scan implements the paginated, filterable admin listing.
func (s *Service) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, apperr.Validation("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Transaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, apperr.Database("failed to count transactions", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	var rows []*models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Database("failed to list transactions", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}
