package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func routeSet(r *gin.Engine) map[string]bool {
	out := map[string]bool{}
	for _, rt := range r.Routes() {
		out[rt.Method+" "+rt.Path] = true
	}
	return out
}

func TestRegisterBillingRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/billing")
	RegisterPackageRoutes(g, nil)
	RegisterCheckoutRoutes(g, nil)
	RegisterHistoryRoutes(g, nil)
	RegisterSubscriptionRoutes(g, nil)
	RegisterProofRoutes(g, nil, nil)

	routes := routeSet(r)
	require.True(t, routes["GET /api/v1/billing/packages"])
	require.True(t, routes["POST /api/v1/billing/checkout"])
	require.True(t, routes["GET /api/v1/billing/history"])
	require.True(t, routes["POST /api/v1/billing/subscriptions/:id/cancel"])
	require.True(t, routes["GET /api/v1/billing/subscriptions/:id/refund-window"])
	require.True(t, routes["POST /api/v1/billing/subscriptions/:id/pause"])
	require.True(t, routes["POST /api/v1/billing/subscriptions/:id/resume"])
	require.True(t, routes["POST /api/v1/billing/transactions/:id/proof"])
}

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), nil, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/admin/scan_transactions"])
	require.True(t, routes["POST /api/v1/admin/sweep_expired"])
	require.True(t, routes["GET /api/v1/admin/upcoming_renewals"])
}

func TestRegisterWebhookRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterPaymentWebhookRoutes(r.Group("/api/v2/payment/webhook"), nil, nil, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v2/payment/webhook/paddle"])
}
