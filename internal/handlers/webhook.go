package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkout-flow/internal/fulfillment"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

// webhook bodies are small; anything larger is hostile
const maxWebhookBody = 1 << 20

// handleWebhook processes signed provider events. The signature is verified
// before anything in the payload is trusted; missing or bad signatures are
// rejected outright.
func handleWebhook(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
			return
		}

		event, err := provider.VerifyEventSignature(body, c.GetHeader("Provider-Signature"), cfg.WebhookSecret)
		if err != nil {
			log.Printf("webhook: rejected event: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
			return
		}

		if event.Type != provider.EventCheckoutCompleted {
			// acknowledged so the provider stops redelivering
			c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
			return
		}

		session, err := event.Session()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_event_data"})
			return
		}

		order, err := cfg.Pipeline.Fulfill(c.Request.Context(), session.ID)
		if err != nil {
			if errors.Is(err, fulfillment.ErrPaymentNotComplete) {
				// completed event for an unsettled session; let the provider retry
				c.JSON(http.StatusConflict, gin.H{"error": "payment_not_complete"})
				return
			}
			// non-2xx so the provider's delivery retry picks it up
			log.Printf("webhook: fulfillment failed for session=%s: %v", session.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "fulfillment_failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true, "order_id": order.OrderID})
	}
}
