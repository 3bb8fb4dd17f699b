package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProductRef maps an internal product id to its provider-side identifiers.
type ProductRef struct {
	ProviderProductID string `json:"provider_product_id"`
	ProviderPriceID   string `json:"provider_price_id"`
	Category          string `json:"category,omitempty"`
}

// Config is the static configuration consumed by the core. It is built once
// at startup; nothing below internal/config reads environment state directly.
type Config struct {
	ProviderAPIKey  string
	ProviderBaseURL string
	WebhookSecret   string

	// Products maps internal product ids to provider product/price ids.
	Products map[string]ProductRef
	// SizesByCategory declares the valid size domain per product category.
	// Categories absent from the map accept any size.
	SizesByCategory map[string][]string

	ShippingCountries     []string
	FreeShippingThreshold float64
	FlatShippingRate      float64
	TaxRate               float64

	OrdersTable      string
	SessionKeysTable string
	QueueURL         string
	OwnerEmail       string

	ProviderTimeout time.Duration
}

// defaultSizes covers the two product categories the shop sells.
var defaultSizes = map[string][]string{
	"ring":    {"5", "6", "7", "8", "9", "10", "11", "12"},
	"apparel": {"XS", "S", "M", "L", "XL", "XXL"},
}

// Load assembles the configuration from environment variables. The product
// mapping is read from CATALOG_JSON (a JSON object keyed by internal id);
// a missing mapping is an error because price validation cannot run without it.
func Load() (*Config, error) {
	cfg := &Config{
		ProviderAPIKey:        os.Getenv("PROVIDER_API_KEY"),
		ProviderBaseURL:       getEnv("PROVIDER_BASE_URL", "https://api.stripe.com/v1"),
		WebhookSecret:         os.Getenv("WEBHOOK_SIGNING_SECRET"),
		SizesByCategory:       copySizes(defaultSizes),
		ShippingCountries:     splitEnv("SHIPPING_COUNTRIES", "US,CA,GB,DE,FR,AU"),
		FreeShippingThreshold: floatEnv("FREE_SHIPPING_THRESHOLD", 100.0),
		FlatShippingRate:      floatEnv("FLAT_SHIPPING_RATE", 7.50),
		TaxRate:               floatEnv("TAX_RATE", 0.0),
		OrdersTable:           getEnv("ORDERS_TABLE", "orders"),
		SessionKeysTable:      getEnv("SESSION_KEYS_TABLE", "order-session-keys"),
		QueueURL:              os.Getenv("NOTIFICATIONS_QUEUE_URL"),
		OwnerEmail:            os.Getenv("OWNER_EMAIL"),
		ProviderTimeout:       10 * time.Second,
	}

	raw := os.Getenv("CATALOG_JSON")
	if raw == "" {
		return nil, fmt.Errorf("CATALOG_JSON is required")
	}
	if err := json.Unmarshal([]byte(raw), &cfg.Products); err != nil {
		return nil, fmt.Errorf("parse CATALOG_JSON: %w", err)
	}
	if len(cfg.Products) == 0 {
		return nil, fmt.Errorf("CATALOG_JSON maps no products")
	}

	if raw := os.Getenv("SIZES_JSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cfg.SizesByCategory); err != nil {
			return nil, fmt.Errorf("parse SIZES_JSON: %w", err)
		}
	}

	return cfg, nil
}

func copySizes(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
