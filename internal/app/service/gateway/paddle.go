package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"go.uber.org/zap"

	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/types"
)

// PaddleGateway implements PaymentGateway against the Paddle Billing API.
// The client is constructed explicitly from config-store credentials; there
// is no package-level singleton, fx owns the lifecycle.
type PaddleGateway struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	log      *zap.SugaredLogger
}

func NewPaddleGateway(cfg config.PaddleConfig, log *zap.SugaredLogger) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox", "":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	var verifier *paddle.WebhookVerifier
	if cfg.WebhookSecret != "" {
		verifier = paddle.NewWebhookVerifier(cfg.WebhookSecret)
	}

	return &PaddleGateway{client: client, verifier: verifier, log: log}, nil
}

func (g *PaddleGateway) CreateSubscriptionCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	if req.GatewayPriceID == "" {
		return nil, apperr.Validation("gateway price reference is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.GatewayPriceID,
		Quantity: 1,
	})

	txnReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: checkoutCustomData(req),
	}
	if req.SuccessURL != "" {
		txnReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	txn, err := g.client.TransactionsClient.CreateTransaction(ctx, txnReq)
	if err != nil {
		return nil, g.wrap("create checkout transaction", err)
	}

	res := &CheckoutResult{
		GatewayTransactionID: txn.ID,
		Status:               MapTransactionStatus(string(txn.Status)),
		Raw:                  mustRaw(txn),
	}
	if txn.Checkout != nil && txn.Checkout.URL != nil {
		res.CheckoutURL = *txn.Checkout.URL
	}
	return res, nil
}

func (g *PaddleGateway) GetSubscription(ctx context.Context, id string) (*SubscriptionInfo, error) {
	sub, err := g.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: id,
	})
	if err != nil {
		return nil, g.wrap("get subscription", err)
	}

	info := &SubscriptionInfo{ID: sub.ID, Status: string(sub.Status)}
	if sub.CurrentBillingPeriod != nil {
		if t, perr := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); perr == nil {
			info.CurrentPeriodEnd = &t
		}
	}
	return info, nil
}

func (g *PaddleGateway) CancelSubscription(ctx context.Context, id string, effective types.EffectiveFrom) error {
	from := paddle.EffectiveFromNextBillingPeriod
	if effective == types.EffectiveImmediately {
		from = paddle.EffectiveFromImmediately
	}
	_, err := g.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: id,
		EffectiveFrom:  paddle.PtrTo(from),
	})
	if err != nil {
		return g.wrap("cancel subscription", err)
	}
	return nil
}

func (g *PaddleGateway) PauseSubscription(ctx context.Context, id string) error {
	_, err := g.client.SubscriptionsClient.PauseSubscription(ctx, &paddle.PauseSubscriptionRequest{
		SubscriptionID: id,
	})
	if err != nil {
		return g.wrap("pause subscription", err)
	}
	return nil
}

func (g *PaddleGateway) ResumeSubscription(ctx context.Context, id string) error {
	_, err := g.client.SubscriptionsClient.ResumeSubscription(ctx, &paddle.ResumeSubscriptionRequest{
		SubscriptionID: id,
	})
	if err != nil {
		return g.wrap("resume subscription", err)
	}
	return nil
}

func (g *PaddleGateway) CreateRefundAdjustment(ctx context.Context, gatewayTransactionID, reason string) (*RefundResult, error) {
	adj, err := g.client.AdjustmentsClient.CreateAdjustment(ctx, &paddle.CreateAdjustmentRequest{
		Action:        paddle.AdjustmentActionRefund,
		TransactionID: gatewayTransactionID,
		Reason:        reason,
		Type:          paddle.PtrTo(paddle.AdjustmentTypeFull),
	})
	if err != nil {
		return nil, g.wrap("create refund adjustment", err)
	}
	return &RefundResult{
		AdjustmentID: adj.ID,
		Status:       string(adj.Status),
		Raw:          mustRaw(adj),
	}, nil
}

func (g *PaddleGateway) GetTransaction(ctx context.Context, id string) (*TransactionInfo, error) {
	txn, err := g.client.TransactionsClient.GetTransaction(ctx, &paddle.GetTransactionRequest{
		TransactionID: id,
	})
	if err != nil {
		return nil, g.wrap("get transaction", err)
	}
	return &TransactionInfo{
		ID:             txn.ID,
		Status:         MapTransactionStatus(string(txn.Status)),
		SubscriptionID: txn.SubscriptionID,
		Raw:            mustRaw(txn),
	}, nil
}

func (g *PaddleGateway) ListTransactions(ctx context.Context, filter ListFilter) ([]*TransactionInfo, error) {
	req := &paddle.ListTransactionsRequest{}
	if filter.SubscriptionID != "" {
		req.SubscriptionID = []string{filter.SubscriptionID}
	}

	col, err := g.client.TransactionsClient.ListTransactions(ctx, req)
	if err != nil {
		return nil, g.wrap("list transactions", err)
	}

	var out []*TransactionInfo
	err = col.Iter(ctx, func(txn *paddle.Transaction) (bool, error) {
		out = append(out, &TransactionInfo{
			ID:             txn.ID,
			Status:         MapTransactionStatus(string(txn.Status)),
			SubscriptionID: txn.SubscriptionID,
			Raw:            mustRaw(txn),
		})
		return true, nil
	})
	if err != nil {
		return nil, g.wrap("list transactions", err)
	}
	return out, nil
}

func (g *PaddleGateway) VerifyWebhook(req *http.Request) (bool, error) {
	if g.verifier == nil {
		return false, errors.New("webhook secret is not configured")
	}
	return g.verifier.Verify(req)
}

// checkoutCustomData carries the identifiers webhook ingestion needs to tie
// gateway events back to platform rows. package_id is what the subscription
// upsert uses to grant the entitlement; Paddle copies transaction custom
// data onto the subscription it creates.
func checkoutCustomData(req *CheckoutRequest) paddle.CustomData {
	cd := paddle.CustomData{
		"order_id": req.OrderID,
		"user_id":  req.UserID,
	}
	if req.PackageID != "" {
		cd["package_id"] = req.PackageID
	}
	if req.CustomerEmail != "" {
		cd["email"] = req.CustomerEmail
	}
	return cd
}

// wrap classifies a provider error. Deadline expiry means the outcome is
// unknown; everything else is a definite gateway failure.
func (g *PaddleGateway) wrap(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrAmbiguous)
	}
	return apperr.Gateway("paddle "+op+" failed", err)
}

// MapTransactionStatus normalizes Paddle transaction statuses onto the
// platform's gateway-status vocabulary. Unknown values pass through so the
// ledger can log and retain them.
func MapTransactionStatus(s string) types.GatewayStatus {
	switch strings.ToLower(s) {
	case "completed", "paid":
		return types.GatewayStatusSettlement
	case "billed", "ready", "draft", "past_due":
		return types.GatewayStatusPending
	case "canceled", "cancelled":
		return types.GatewayStatusCancel
	default:
		return types.GatewayStatus(s)
	}
}

func mustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
