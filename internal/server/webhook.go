package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcore/internal/api"
	"fitcore/internal/logger"
	"fitcore/internal/membership"
	"fitcore/internal/provider"
)

const maxWebhookBody = 1 << 16

// ProviderWebhook godoc
// @Summary      Payment provider event sink
// @Description  Verifies the event signature and reconciles membership state.
// @Description  Replayed events are acknowledged without effect.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200 {object} api.MessageResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /webhooks/provider [post]
func ProviderWebhook(memberships membership.Service, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable payload"})
			return
		}

		event, err := provider.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			logger.Error("webhook rejected", "error", err)
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid webhook payload"})
			return
		}

		if err := memberships.Reconcile(c.Request.Context(), event); err != nil {
			// signal the provider to redeliver
			logger.Error("webhook reconciliation failed", "event_id", event.ProviderID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "reconciliation failed"})
			return
		}

		c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
	}
}
