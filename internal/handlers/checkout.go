package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/fulfillment"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

func createCheckout(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req cart.CheckoutRequest
		if err := cart.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		validated, err := cfg.Validator.Validate(ctx, req.Items)
		if err != nil {
			var ve *cart.ValidationError
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "cart_rejected",
					"reasons": ve.Reasons,
				})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "price_verification_unavailable"})
			return
		}

		sessionReq := cfg.Builder.BuildSession(validated, req.CustomerEmail, req.SuccessURL, req.CancelURL)
		session, err := cfg.Provider.CreateSession(ctx, sessionReq)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "session_creation_failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"session_id": session.ID,
			"url":        session.URL,
			"amount":     validated.TotalAmount,
			"item_count": validated.ItemCount,
		})
	}
}

func verifyCheckout(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SessionID string `json:"session_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_session_id"})
			return
		}

		order, err := cfg.Pipeline.Fulfill(c.Request.Context(), req.SessionID)
		if err != nil {
			if errors.Is(err, fulfillment.ErrPaymentNotComplete) {
				c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment_not_complete"})
				return
			}
			if errors.Is(err, provider.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown_session"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "fulfillment_failed"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}
