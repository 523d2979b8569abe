package handlers

import (
	"net/http"

	"github.com/tierbill/tierbill/internal/app/service/checkout"
	"github.com/tierbill/tierbill/pkg/response"

	"github.com/gin-gonic/gin"
)

// userID resolves the caller's identity. Authentication happens upstream;
// the gateway-facing proxy injects the header.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// @Summary      Create Checkout
// @Description  Validates the purchase, records a pending transaction and opens a gateway checkout session.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body checkout.Request true "Checkout request"
// @Success      200  {object}  handlers.RespCheckout
// @Router       /api/v1/billing/checkout [post]
func ApiCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		req.UserID = userID(c)

		res, err := svc.Checkout(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/checkout", ApiCheckout(svc))
}
