package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/internal/models"
)

func TestMinorUnitAmount(t *testing.T) {
	require.Equal(t, 19.99, minorUnitAmount("1999"))
	require.Equal(t, 0.0, minorUnitAmount(""))
	require.Equal(t, 0.0, minorUnitAmount("not-a-number"))
	require.Equal(t, 299.0, minorUnitAmount("29900"))
}

func TestSubscriptionIdentity_FromCustomData(t *testing.T) {
	data := &subscriptionData{
		ID: "sub_1",
		CustomData: map[string]string{
			"user_id":    "user-1",
			"package_id": "pkg-1",
			"order_id":   "ord-1",
		},
	}
	userID, packageID := subscriptionIdentity(data, nil)
	require.Equal(t, "user-1", userID)
	require.Equal(t, "pkg-1", packageID)
}

func TestSubscriptionIdentity_LedgerRowFillsPackage(t *testing.T) {
	// Checkout-shaped custom data without a package still resolves through
	// the pending ledger row minted before the gateway call, so an active
	// subscription event can grant the entitlement.
	data := &subscriptionData{
		ID: "sub_1",
		CustomData: map[string]string{
			"user_id":  "user-1",
			"order_id": "ord-1",
			"email":    "buyer@example.com",
		},
	}
	txn := &models.Transaction{ID: "txn-1", UserID: "user-1", OrderID: "ord-1", PackageID: "pkg-1"}
	userID, packageID := subscriptionIdentity(data, txn)
	require.Equal(t, "user-1", userID)
	require.Equal(t, "pkg-1", packageID)
}

func TestSubscriptionIdentity_Unresolvable(t *testing.T) {
	data := &subscriptionData{ID: "sub_1", CustomData: map[string]string{}}
	userID, packageID := subscriptionIdentity(data, nil)
	require.Empty(t, userID)
	require.Empty(t, packageID)
}
