package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierbill/tierbill/pkg/types"
)

func TestCheckoutCustomData_CarriesPackageIdentity(t *testing.T) {
	cd := checkoutCustomData(&CheckoutRequest{
		OrderID:       "ord-1",
		UserID:        "user-1",
		PackageID:     "pkg-1",
		CustomerEmail: "buyer@example.com",
	})
	require.Equal(t, "ord-1", cd["order_id"])
	require.Equal(t, "user-1", cd["user_id"])
	require.Equal(t, "pkg-1", cd["package_id"])
	require.Equal(t, "buyer@example.com", cd["email"])
}

func TestCheckoutCustomData_OmitsEmptyOptionals(t *testing.T) {
	cd := checkoutCustomData(&CheckoutRequest{OrderID: "ord-1", UserID: "user-1"})
	require.NotContains(t, cd, "package_id")
	require.NotContains(t, cd, "email")
}

func TestMapTransactionStatus(t *testing.T) {
	require.Equal(t, types.GatewayStatusSettlement, MapTransactionStatus("completed"))
	require.Equal(t, types.GatewayStatusSettlement, MapTransactionStatus("paid"))
	require.Equal(t, types.GatewayStatusPending, MapTransactionStatus("billed"))
	require.Equal(t, types.GatewayStatusPending, MapTransactionStatus("past_due"))
	require.Equal(t, types.GatewayStatusCancel, MapTransactionStatus("canceled"))
	require.Equal(t, types.GatewayStatus("mystery"), MapTransactionStatus("mystery"))
}
