package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tierbill/tierbill/internal/app/service/billingcycle"
	"github.com/tierbill/tierbill/internal/app/service/ledger"
	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/response"
	"github.com/tierbill/tierbill/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type RenewalItem struct {
	UserID    string     `json:"user_id"`
	PackageID *string    `json:"package_id"`
	RenewsAt  *time.Time `json:"renews_at"`
}

type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      Scan Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of ledger transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ScanTransactionsRequest true "Scan request with filters, pagination and sorting"
// @Success      200  {object}  handlers.RespScanTransactions
// @Router       /api/v1/admin/scan_transactions [post]
func ApiScanTransactions(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScanTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := led.Scan(c.Request.Context(), &ledger.ScanRequest{
			Filters: req.Filters, From: req.From, Size: req.Size,
			SortBy: req.SortBy, SortOrder: req.SortOrder,
		})
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Sweep Expired Subscriptions (Admin)
// @Description  Demotes every entitlement whose end date has passed to the free package. Idempotent.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespSweep
// @Router       /api/v1/admin/sweep_expired [post]
func ApiSweepExpired(cycle *billingcycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		affected, err := cycle.SweepExpired(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int64{"downgraded": affected}))
	}
}

// @Summary      Upcoming Renewals (Admin)
// @Description  Lists entitlements whose billing period ends within the given number of days.
// @Tags         Admin
// @Produce      json
// @Param        within_days  query  int  false  "Look-ahead window in days, default 7"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/upcoming_renewals [get]
func ApiUpcomingRenewals(cycle *billingcycle.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		within := 7
		if v := c.Query("within_days"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				within = n
			} else {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid within_days"))
				return
			}
		}
		rows, err := cycle.UpcomingRenewals(c.Request.Context(), within)
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		items := lo.Map(rows, func(e *models.UserEntitlement, _ int) *RenewalItem {
			return &RenewalItem{UserID: e.UserID, PackageID: e.PackageID, RenewsAt: e.SubscriptionEndAt}
		})
		c.JSON(http.StatusOK, response.OKT(items))
	}
}

func RegisterAdminRoutes(r gin.IRouter, led *ledger.Service, cycle *billingcycle.Service) {
	r.POST("/scan_transactions", ApiScanTransactions(led))
	r.POST("/sweep_expired", ApiSweepExpired(cycle))
	r.GET("/upcoming_renewals", ApiUpcomingRenewals(cycle))
}
