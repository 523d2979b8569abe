package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tierbill/tierbill/internal/app/service/gateway"
	"github.com/tierbill/tierbill/internal/app/service/webhook"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Paddle Webhook
// @Description  Receives Paddle Billing events. The signature is verified before any processing; unverifiable requests are rejected.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v2/payment/webhook/paddle [post]
func ApiPaddleWebhook(gw gateway.PaymentGateway, svc *webhook.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := gw.VerifyWebhook(c.Request)
		if err != nil || !ok {
			logctx.FromCtx(c, log).Warnw("webhook_paddle_rejected", "verified", ok, "error", err)
			c.JSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeBadRequest, "signature verification failed"))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "failed to read body"))
			return
		}
		var evt webhook.Event
		if err := json.Unmarshal(body, &evt); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "malformed event"))
			return
		}

		logctx.FromCtx(c, log).Infow("webhook_paddle_received", "event_type", evt.EventType, "event_id", evt.EventID)
		if err := svc.HandleEvent(c.Request.Context(), &evt); err != nil {
			logctx.FromCtx(c, log).Errorw("webhook_paddle_handle_error", "event_type", evt.EventType, "error", err.Error())
			c.JSON(http.StatusOK, response.FromError(err))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, gw gateway.PaymentGateway, svc *webhook.Service, log *zap.SugaredLogger) {
	r.POST("/paddle", ApiPaddleWebhook(gw, svc, log))
}
