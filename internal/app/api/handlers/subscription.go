package handlers

import (
	"net/http"

	"github.com/tierbill/tierbill/internal/app/service/cancellation"
	"github.com/tierbill/tierbill/pkg/response"

	"github.com/gin-gonic/gin"
)

// @Summary      Cancel Subscription
// @Description  Cancels a subscription. Within the refund window the cancellation is immediate with a full refund; after it the subscription runs until the period end.
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  handlers.RespCancel
// @Router       /api/v1/billing/subscriptions/{id}/cancel [post]
func ApiCancelSubscription(svc *cancellation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Cancel(c.Request.Context(), userID(c), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Refund Window
// @Description  Reports whether cancelling now would refund, and how many eligible days remain.
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  handlers.RespRefundWindow
// @Router       /api/v1/billing/subscriptions/{id}/refund-window [get]
func ApiRefundWindow(svc *cancellation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := svc.GetRefundWindowInfo(c.Request.Context(), userID(c), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// @Summary      Pause Subscription
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/subscriptions/{id}/pause [post]
func ApiPauseSubscription(svc *cancellation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Pause(c.Request.Context(), userID(c), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Resume Subscription
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/subscriptions/{id}/resume [post]
func ApiResumeSubscription(svc *cancellation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Resume(c.Request.Context(), userID(c), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *cancellation.Service) {
	r.POST("/subscriptions/:id/cancel", ApiCancelSubscription(svc))
	r.GET("/subscriptions/:id/refund-window", ApiRefundWindow(svc))
	r.POST("/subscriptions/:id/pause", ApiPauseSubscription(svc))
	r.POST("/subscriptions/:id/resume", ApiResumeSubscription(svc))
}
