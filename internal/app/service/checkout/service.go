// Package checkout orchestrates a purchase: validate the request, price the
// package, write the pending ledger row, then call the gateway. The ledger
// row always exists before the gateway is contacted so a crash mid-checkout
// leaves a reconcilable trace instead of an orphaned charge.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tierbill/tierbill/internal/app/service/audit"
	"github.com/tierbill/tierbill/internal/app/service/billingcycle"
	"github.com/tierbill/tierbill/internal/app/service/catalog"
	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/metrics"
	"github.com/tierbill/tierbill/pkg/tool"
	"github.com/tierbill/tierbill/pkg/types"
)

// GatewayName identifies the payment gateway on ledger rows.
const GatewayName = "paddle"

// The orchestration only needs these slices of the catalog and ledger
// services; narrowing the dependencies here keeps the flow testable without
// a database.
type packageCatalog interface {
	GetActivePackage(ctx context.Context, id string) (*models.Package, error)
}

type transactionLedger interface {
	CreatePending(ctx context.Context, req *ledger.CreatePendingRequest) (*models.Transaction, error)
	Reconcile(ctx context.Context, transactionID string, gatewayStatus types.GatewayStatus, gatewayTransactionID string, rawPayload json.RawMessage, errMsg string) error
	Get(ctx context.Context, id string) (*models.Transaction, error)
}

type auditRecorder interface {
	Record(ctx context.Context, actorID, operation, reason string, metadata map[string]any)
}

type Service struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	catalog packageCatalog
	gw      gateway.PaymentGateway
	ledger  transactionLedger
	audit   auditRecorder
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, cat *catalog.Service, gw gateway.PaymentGateway, led *ledger.Service, audit *audit.Service) *Service {
	return &Service{cfg: cfg, log: log, catalog: cat, gw: gw, ledger: led, audit: audit}
}

type Request struct {
	UserID        string              `json:"-"`
	PackageID     string              `json:"package_id" binding:"required"`
	BillingPeriod types.BillingPeriod `json:"billing_period" binding:"required"`
	PaymentMethod string              `json:"payment_method"`
	Email         string              `json:"email" binding:"required"`
	Country       string              `json:"country"`
	PostalCode    string              `json:"postal_code"`
	Name          string              `json:"name"`
	SuccessURL    string              `json:"success_url"`
	IsTrial       bool                `json:"is_trial"`
}

type Result struct {
	TransactionID string                  `json:"transaction_id"`
	OrderID       string                  `json:"order_id"`
	Amount        float64                 `json:"amount"`
	Currency      string                  `json:"currency"`
	Status        types.TransactionStatus `json:"status"`
	CheckoutURL   string                  `json:"checkout_url,omitempty"`
}

// Validate rejects a checkout before any row is written or money moves.
func (s *Service) Validate(req *Request) error {
	if req.UserID == "" {
		return apperr.Validation("user is required")
	}
	if !req.BillingPeriod.Valid() {
		return apperr.Validation("billing_period must be monthly or annual")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if s.cfg.EmailDomainBlocked(email) {
		return apperr.Validation("email domain is not accepted")
	}
	if s.cfg.PostalCodeRequired(req.Country) && strings.TrimSpace(req.PostalCode) == "" {
		return apperr.Validation("postal code is required for this country")
	}
	return nil
}

// Checkout runs the full purchase flow. The returned Result carries whatever
// state the transaction reached; on gateway failure the ledger row is
// reconciled to failed before the error is returned, and on an ambiguous
// gateway outcome the row is deliberately left pending for the webhook or an
// operator to settle.
func (s *Service) Checkout(ctx context.Context, req *Request) (*Result, error) {
	if err := s.Validate(req); err != nil {
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	pkg, err := s.catalog.GetActivePackage(ctx, req.PackageID)
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	tier := pkg.TierFor(req.BillingPeriod)
	chargeable := tier != nil && tier.GatewayPriceID != ""
	if !chargeable && !req.IsTrial {
		// Trials are priced at zero and never reach the gateway, so they do
		// not need a purchasable tier.
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, apperr.BusinessRule("package is not purchasable for the requested billing period")
	}

	amount, err := billingcycle.AmountForPeriod(pkg, req.BillingPeriod, req.IsTrial)
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = GatewayName
	}
	orderID := tool.NewOrderID(req.UserID, method, time.Now())

	meta := &models.TransactionMetadata{
		BillingPeriod: req.BillingPeriod,
		IsTrial:       req.IsTrial,
		Customer: &models.CustomerSnapshot{
			Email:   req.Email,
			Country: req.Country,
			Name:    req.Name,
		},
	}
	if tier != nil {
		meta.OriginalAmount = tier.RegularPrice
		meta.PromoAmount = tier.PromoPrice
	}

	txn, err := s.ledger.CreatePending(ctx, &ledger.CreatePendingRequest{
		UserID:        req.UserID,
		OrderID:       orderID,
		PackageID:     pkg.ID,
		GatewayID:     GatewayName,
		Amount:        amount,
		Currency:      s.cfg.Billing.Currency,
		PaymentMethod: method,
		Metadata:      meta,
	})
	if err != nil {
		metrics.CheckoutTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if !chargeable {
		// Zero-amount trial with nothing to charge; settle the row locally
		// instead of opening a gateway session.
		if err := s.ledger.Reconcile(ctx, txn.ID, types.GatewayStatusCapture, "", nil, ""); err != nil {
			return nil, err
		}
		metrics.CheckoutTotal.WithLabelValues(string(types.TransactionStatusCompleted)).Inc()
		s.audit.Record(ctx, req.UserID, "checkout.trial", "zero-amount trial settled without gateway charge", map[string]any{
			"transaction_id": txn.ID,
			"order_id":       orderID,
		})
		return &Result{
			TransactionID: txn.ID,
			OrderID:       orderID,
			Amount:        amount,
			Currency:      s.cfg.Billing.Currency,
			Status:        types.TransactionStatusCompleted,
		}, nil
	}

	res, err := s.gw.CreateSubscriptionCheckout(ctx, &gateway.CheckoutRequest{
		OrderID:        orderID,
		UserID:         req.UserID,
		PackageID:      pkg.ID,
		GatewayPriceID: tier.GatewayPriceID,
		CustomerEmail:  req.Email,
		SuccessURL:     req.SuccessURL,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrAmbiguous) {
			// The gateway may or may not have processed the charge. The row
			// stays pending until the webhook or an operator settles it.
			logctx.FromCtx(ctx, s.log).Warnw("ambiguous gateway outcome, transaction left pending",
				"transaction_id", txn.ID, "order_id", orderID, "err", err)
			metrics.CheckoutTotal.WithLabelValues("ambiguous").Inc()
			s.audit.Record(ctx, req.UserID, "checkout.ambiguous", "gateway outcome unknown, left pending", map[string]any{
				"transaction_id": txn.ID,
				"order_id":       orderID,
			})
			return &Result{
				TransactionID: txn.ID,
				OrderID:       orderID,
				Amount:        amount,
				Currency:      s.cfg.Billing.Currency,
				Status:        types.TransactionStatusPending,
			}, nil
		}

		if rerr := s.ledger.Reconcile(ctx, txn.ID, types.GatewayStatusFailure, "", nil, err.Error()); rerr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to reconcile after gateway error",
				"transaction_id", txn.ID, "err", rerr)
		}
		metrics.CheckoutTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	if err := s.ledger.Reconcile(ctx, txn.ID, res.Status, res.GatewayTransactionID, res.Raw, ""); err != nil {
		return nil, err
	}

	final, err := s.ledger.Get(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	metrics.CheckoutTotal.WithLabelValues(string(final.Status)).Inc()
	return &Result{
		TransactionID: final.ID,
		OrderID:       orderID,
		Amount:        amount,
		Currency:      s.cfg.Billing.Currency,
		Status:        final.Status,
		CheckoutURL:   res.CheckoutURL,
	}, nil
}
