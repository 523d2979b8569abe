// Package history aggregates billing history from the internal ledger and
// the gateway mirror into one normalized, paginated stream. Each source is
// fetched inside a bounded window; summary figures come from aggregate
// queries so they stay exact even when the window caps out.
package history

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/types"
)

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

type Query struct {
	UserID string
	// Status filters rows by their source-native status string.
	Status string
	// Source restricts the result to one table; empty means both.
	Source types.TransactionSource
	Page   int
	Limit  int
}

type Summary struct {
	TotalTransactions int64 `json:"total_transactions"`
	CompletedCount    int64 `json:"completed_count"`
	PendingCount      int64 `json:"pending_count"`
	FailedCount       int64 `json:"failed_count"`
	LedgerCount       int64 `json:"ledger_count"`
	GatewayCount      int64 `json:"gateway_count"`
	// TotalSpent sums completed ledger amounts plus gateway rows with no
	// ledger counterpart (renewals). Linked mirrors are excluded so a
	// transaction is never counted twice.
	TotalSpent float64 `json:"total_spent"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	// WindowCapped reports that at least one source hit the fetch cap, so
	// deep pages may be missing older rows. Summary figures are unaffected.
	WindowCapped bool `json:"window_capped"`
}

type Result struct {
	Items      []NormalizedTransaction `json:"items"`
	Summary    Summary                 `json:"summary"`
	Pagination Pagination              `json:"pagination"`
}

// Get fetches both sources concurrently, merges them newest-first and
// returns the requested page.
func (s *Service) Get(ctx context.Context, q *Query) (*Result, error) {
	if q == nil || q.UserID == "" {
		return nil, apperr.Validation("user is required")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.Page < 1 {
		q.Page = 1
	}
	window := s.cfg.Billing.HistoryFetchCap
	if window <= 0 {
		window = 500
	}

	var (
		wg         sync.WaitGroup
		ledgerRows []NormalizedTransaction
		gwRows     []NormalizedTransaction
		summary    Summary
		errs       = make([]error, 3)
	)

	if q.Source == "" || q.Source == types.TransactionSourceLedger {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ledgerRows, errs[0] = s.fetchLedger(ctx, q, window)
		}()
	}
	if q.Source == "" || q.Source == types.TransactionSourceGateway {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gwRows, errs[1] = s.fetchGateway(ctx, q, window)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, errs[2] = s.summarize(ctx, q)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	merged := mergeDescending(ledgerRows, gwRows)
	return &Result{
		Items:   page(merged, q.Page, q.Limit),
		Summary: summary,
		Pagination: Pagination{
			Page:         q.Page,
			Limit:        q.Limit,
			WindowCapped: len(ledgerRows) == window || len(gwRows) == window,
		},
	}, nil
}

func (s *Service) fetchLedger(ctx context.Context, q *Query, window int) ([]NormalizedTransaction, error) {
	tx := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ?", q.UserID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	var rows []*models.Transaction
	if err := tx.Order("created_at desc").Limit(window).Find(&rows).Error; err != nil {
		return nil, apperr.Database("failed to load ledger history", err)
	}

	out := make([]NormalizedTransaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, NormalizedTransaction{
			ID:         r.ID,
			Source:     types.TransactionSourceLedger,
			OrderID:    r.OrderID,
			Status:     string(r.Status),
			Amount:     r.Amount,
			Currency:   r.Currency,
			Method:     r.PaymentMethod,
			OccurredAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) fetchGateway(ctx context.Context, q *Query, window int) ([]NormalizedTransaction, error) {
	tx := s.db.WithContext(ctx).Model(&models.GatewayTransaction{}).
		Where("user_id = ?", q.UserID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	var rows []*models.GatewayTransaction
	if err := tx.Order("created_at desc").Limit(window).Find(&rows).Error; err != nil {
		return nil, apperr.Database("failed to load gateway history", err)
	}

	out := make([]NormalizedTransaction, 0, len(rows))
	for _, r := range rows {
		occurred := r.CreatedAt
		if r.BilledAt != nil {
			occurred = *r.BilledAt
		}
		out = append(out, NormalizedTransaction{
			ID:         r.ID,
			Source:     types.TransactionSourceGateway,
			Status:     r.Status,
			Amount:     r.Amount,
			Currency:   r.Currency,
			OccurredAt: occurred,
		})
	}
	return out, nil
}

// summarize computes exact totals with aggregate queries, independent of the
// fetch window.
func (s *Service) summarize(ctx context.Context, q *Query) (Summary, error) {
	var byStatus []statusCount
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", q.UserID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return Summary{}, apperr.Database("failed to count ledger history", err)
	}

	var gatewayCount int64
	if err := s.db.WithContext(ctx).Model(&models.GatewayTransaction{}).
		Where("user_id = ?", q.UserID).
		Count(&gatewayCount).Error; err != nil {
		return Summary{}, apperr.Database("failed to count gateway history", err)
	}

	var spent *float64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND status = ?", q.UserID, types.TransactionStatusCompleted).
		Select("SUM(amount)").Scan(&spent).Error; err != nil {
		return Summary{}, apperr.Database("failed to sum completed transactions", err)
	}
	ledgerSpent := 0.0
	if spent != nil {
		ledgerSpent = *spent
	}

	// Renewal charges exist only in the gateway mirror; rows with no linked
	// ledger transaction are counted as spend in their own right.
	var unlinked []statusAmount
	if err := s.db.WithContext(ctx).Model(&models.GatewayTransaction{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND transaction_id IS NULL", q.UserID).
		Group("status").
		Scan(&unlinked).Error; err != nil {
		return Summary{}, apperr.Database("failed to sum unlinked gateway history", err)
	}

	return composeSummary(byStatus, gatewayCount, unlinked, ledgerSpent), nil
}
