package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkout-flow/internal/cart"
	"github.com/imrishuroy/go-checkout-flow/internal/catalog"
	"github.com/imrishuroy/go-checkout-flow/internal/checkout"
	"github.com/imrishuroy/go-checkout-flow/internal/fulfillment"
	"github.com/imrishuroy/go-checkout-flow/internal/orders"
	"github.com/imrishuroy/go-checkout-flow/internal/provider"
)

// HandlerConfig groups dependencies for the checkout API.
type HandlerConfig struct {
	Provider      provider.Client
	Catalog       *catalog.Cache
	Validator     *cart.Validator
	Builder       *checkout.Builder
	Pipeline      *fulfillment.Pipeline
	Store         orders.Store
	WebhookSecret string
}

// RegisterRoutes registers the checkout API routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := cart.NewStructValidator()

	r.POST("/checkout", createCheckout(cfg, v))
	r.POST("/checkout/verify", verifyCheckout(cfg))
	r.POST("/webhook", handleWebhook(cfg))
	r.GET("/orders/:id", getOrder(cfg))
	r.GET("/orders", listOrders(cfg))
	r.GET("/products", listProducts(cfg))
}

func getOrder(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := cfg.Store.GetByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_lookup_failed"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func listOrders(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := cfg.Store.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "order_list_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": all, "count": len(all)})
	}
}

// listProducts is the one read served from the catalog cache; checkout
// validation never comes through here.
func listProducts(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("refresh") == "true" {
			cfg.Catalog.Invalidate()
		}
		entries, err := cfg.Catalog.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": entries, "count": len(entries)})
	}
}
