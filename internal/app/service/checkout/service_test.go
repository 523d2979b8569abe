package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/apperr"
	"github.com/tierbill/tierbill/pkg/config"
	"github.com/tierbill/tierbill/pkg/types"
)

type fakeCatalog struct {
	pkg *models.Package
	err error
}

func (f *fakeCatalog) GetActivePackage(ctx context.Context, id string) (*models.Package, error) {
	return f.pkg, f.err
}

// fakeLedger keeps a single in-memory row and applies the same gateway-status
// mapping the real ledger does, so reconciliation outcomes are observable.
type fakeLedger struct {
	calls []string
	txn   *models.Transaction
}

func (f *fakeLedger) CreatePending(ctx context.Context, req *ledger.CreatePendingRequest) (*models.Transaction, error) {
	f.calls = append(f.calls, "create_pending")
	f.txn = &models.Transaction{
		ID:        "txn-1",
		UserID:    req.UserID,
		OrderID:   req.OrderID,
		PackageID: req.PackageID,
		GatewayID: req.GatewayID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    types.TransactionStatusPending,
		Metadata:  datatypes.NewJSONType(req.Metadata),
	}
	return f.txn, nil
}

func (f *fakeLedger) Reconcile(ctx context.Context, transactionID string, gatewayStatus types.GatewayStatus, gatewayTransactionID string, rawPayload json.RawMessage, errMsg string) error {
	f.calls = append(f.calls, "reconcile:"+string(gatewayStatus))
	if target, ok := ledger.MapGatewayStatus(gatewayStatus); ok && f.txn != nil {
		f.txn.Status = target
	}
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, id string) (*models.Transaction, error) {
	f.calls = append(f.calls, "get")
	return f.txn, nil
}

type fakeGateway struct {
	gateway.PaymentGateway
	calls *[]string
	seen  *gateway.CheckoutRequest
	res   *gateway.CheckoutResult
	err   error
}

func (f *fakeGateway) CreateSubscriptionCheckout(ctx context.Context, req *gateway.CheckoutRequest) (*gateway.CheckoutResult, error) {
	*f.calls = append(*f.calls, "gateway")
	f.seen = req
	return f.res, f.err
}

type noopAudit struct{}

func (noopAudit) Record(ctx context.Context, actorID, operation, reason string, metadata map[string]any) {
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Billing.Currency = "USD"
	cfg.Billing.BlockedEmailDomains = []string{"mailinator.com"}
	cfg.Billing.PostalCodeCountries = []string{"US", "GB"}
	return cfg
}

func testService() *Service {
	return NewService(testConfig(), zap.NewNop().Sugar(), nil, nil, nil, nil)
}

func monthlyPackage() *models.Package {
	return &models.Package{
		ID:   "pkg-1",
		Name: "Pro",
		Slug: "pro",
		Tiers: datatypes.NewJSONType([]types.PackageTier{{
			Period:         types.BillingPeriodMonthly,
			RegularPrice:   29.99,
			PromoPrice:     19.99,
			GatewayPriceID: "pri_123",
		}}),
		IsActive: true,
	}
}

func orchestrated(pkg *models.Package, gwRes *gateway.CheckoutResult, gwErr error) (*Service, *fakeLedger, *fakeGateway) {
	led := &fakeLedger{}
	gw := &fakeGateway{calls: &led.calls, res: gwRes, err: gwErr}
	svc := &Service{
		cfg:     testConfig(),
		log:     zap.NewNop().Sugar(),
		catalog: &fakeCatalog{pkg: pkg},
		gw:      gw,
		ledger:  led,
		audit:   noopAudit{},
	}
	return svc, led, gw
}

func validRequest() *Request {
	return &Request{
		UserID:        "user-1",
		PackageID:     "pkg-1",
		BillingPeriod: types.BillingPeriodMonthly,
		Email:         "buyer@example.com",
		Country:       "DE",
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, testService().Validate(validRequest()))
}

func TestValidate_RequiresUser(t *testing.T) {
	req := validRequest()
	req.UserID = ""
	err := testService().Validate(req)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestValidate_RejectsBadPeriod(t *testing.T) {
	req := validRequest()
	req.BillingPeriod = "weekly"
	err := testService().Validate(req)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestValidate_RejectsBlockedEmailDomain(t *testing.T) {
	req := validRequest()
	req.Email = "burner@MAILINATOR.com"
	err := testService().Validate(req)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestValidate_RejectsMalformedEmail(t *testing.T) {
	req := validRequest()
	req.Email = "not-an-email"
	err := testService().Validate(req)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestValidate_PostalCodeByCountry(t *testing.T) {
	req := validRequest()
	req.Country = "US"
	err := testService().Validate(req)
	require.True(t, apperr.IsKind(err, apperr.KindValidation))

	req.PostalCode = "94103"
	require.NoError(t, testService().Validate(req))

	// Countries outside the list do not require one.
	req2 := validRequest()
	req2.Country = "DE"
	require.NoError(t, testService().Validate(req2))
}

func TestCheckout_PendingRowBeforeGateway(t *testing.T) {
	svc, led, _ := orchestrated(monthlyPackage(), &gateway.CheckoutResult{
		GatewayTransactionID: "txn_pdl_1",
		Status:               types.GatewayStatusSettlement,
		CheckoutURL:          "https://pay.example.com/c/1",
	}, nil)

	res, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, []string{"create_pending", "gateway", "reconcile:settlement", "get"}, led.calls)
	require.Equal(t, types.TransactionStatusCompleted, res.Status)
	require.Equal(t, 19.99, res.Amount)
	require.Equal(t, "https://pay.example.com/c/1", res.CheckoutURL)
}

func TestCheckout_GatewayCarriesPackageIdentity(t *testing.T) {
	svc, _, gw := orchestrated(monthlyPackage(), &gateway.CheckoutResult{
		GatewayTransactionID: "txn_pdl_1",
		Status:               types.GatewayStatusPending,
	}, nil)

	_, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, gw.seen)
	require.Equal(t, "pkg-1", gw.seen.PackageID)
	require.Equal(t, "user-1", gw.seen.UserID)
	require.Equal(t, "pri_123", gw.seen.GatewayPriceID)
	require.NotEmpty(t, gw.seen.OrderID)
}

func TestCheckout_GatewayErrorReconcilesToFailed(t *testing.T) {
	svc, led, _ := orchestrated(monthlyPackage(), nil, apperr.Gateway("paddle create checkout transaction failed", fmt.Errorf("boom")))

	_, err := svc.Checkout(context.Background(), validRequest())
	require.Error(t, err)
	require.Contains(t, led.calls, "reconcile:failure")
	require.Equal(t, types.TransactionStatusFailed, led.txn.Status)
}

func TestCheckout_AmbiguousOutcomeStaysPending(t *testing.T) {
	svc, led, _ := orchestrated(monthlyPackage(), nil, fmt.Errorf("create checkout transaction: %w", gateway.ErrAmbiguous))

	res, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, types.TransactionStatusPending, res.Status)
	require.Equal(t, []string{"create_pending", "gateway"}, led.calls)
	require.Equal(t, types.TransactionStatusPending, led.txn.Status)
}

func TestCheckout_DeniedChargeEndsFailed(t *testing.T) {
	svc, led, _ := orchestrated(monthlyPackage(), &gateway.CheckoutResult{
		GatewayTransactionID: "txn_pdl_1",
		Status:               types.GatewayStatusDeny,
	}, nil)

	res, err := svc.Checkout(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, types.TransactionStatusFailed, res.Status)
	require.Contains(t, led.calls, "reconcile:deny")
}

func TestCheckout_TrialWithoutTierSettlesLocally(t *testing.T) {
	pkg := monthlyPackage()
	pkg.Tiers = datatypes.NewJSONType([]types.PackageTier{})
	svc, led, gw := orchestrated(pkg, nil, nil)

	req := validRequest()
	req.IsTrial = true
	res, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	require.Nil(t, gw.seen)
	require.Equal(t, []string{"create_pending", "reconcile:capture"}, led.calls)
	require.Equal(t, types.TransactionStatusCompleted, res.Status)
	require.Zero(t, res.Amount)
}

func TestCheckout_NonTrialWithoutTierRejected(t *testing.T) {
	pkg := monthlyPackage()
	pkg.Tiers = datatypes.NewJSONType([]types.PackageTier{})
	svc, led, _ := orchestrated(pkg, nil, nil)

	_, err := svc.Checkout(context.Background(), validRequest())
	require.True(t, apperr.IsKind(err, apperr.KindBusinessRule))
	require.Empty(t, led.calls)
}
