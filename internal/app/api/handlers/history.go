package handlers

import (
	"net/http"
	"strconv"

	"github.com/tierbill/tierbill/internal/app/service/history"
	"github.com/tierbill/tierbill/pkg/response"
	"github.com/tierbill/tierbill/pkg/types"

	"github.com/gin-gonic/gin"
)

// @Summary      Billing History
// @Description  Returns the caller's merged billing history from the internal ledger and the gateway mirror, newest first.
// @Tags         Billing
// @Produce      json
// @Param        page    query  int     false  "Page number, 1-based"
// @Param        limit   query  int     false  "Page size, max 100"
// @Param        status  query  string  false  "Source-native status filter"
// @Param        type    query  string  false  "Restrict to one source: ledger or gateway"
// @Success      200  {object}  handlers.RespHistory
// @Router       /api/v1/billing/history [get]
func ApiBillingHistory(svc *history.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userID(c)
		if uid == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user identity"))
			return
		}

		q := &history.Query{
			UserID: uid,
			Status: c.Query("status"),
			Source: types.TransactionSource(c.Query("type")),
		}
		if v := c.Query("page"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				q.Page = n
			} else {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid page"))
				return
			}
		}
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				q.Limit = n
			} else {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid limit"))
				return
			}
		}

		res, err := svc.Get(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterHistoryRoutes(r gin.IRouter, svc *history.Service) {
	r.GET("/history", ApiBillingHistory(svc))
}
