package unit

import (
	"testing"

	"github.com/imrishuroy/go-checkout-flow/internal/config"
)

const catalogJSON = `{
	"ring-black":  {"provider_product_id": "prod_1", "provider_price_id": "price_1", "category": "ring"},
	"tee-classic": {"provider_product_id": "prod_2", "provider_price_id": "price_2", "category": "apparel"}
}`

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CATALOG_JSON", catalogJSON)
	t.Setenv("PROVIDER_API_KEY", "sk_test_123")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProviderBaseURL != "https://api.stripe.com/v1" {
		t.Fatalf("unexpected base URL %s", cfg.ProviderBaseURL)
	}
	if cfg.OrdersTable != "orders" || cfg.SessionKeysTable != "order-session-keys" {
		t.Fatalf("unexpected table defaults %s / %s", cfg.OrdersTable, cfg.SessionKeysTable)
	}
	if cfg.FreeShippingThreshold != 100.0 || cfg.FlatShippingRate != 7.50 {
		t.Fatalf("unexpected shipping defaults %v / %v", cfg.FreeShippingThreshold, cfg.FlatShippingRate)
	}
	if len(cfg.ShippingCountries) != 6 {
		t.Fatalf("expected 6 default shipping countries, got %v", cfg.ShippingCountries)
	}

	ref, ok := cfg.Products["ring-black"]
	if !ok || ref.ProviderPriceID != "price_1" || ref.Category != "ring" {
		t.Fatalf("catalog mapping not loaded: %+v", cfg.Products)
	}
	if len(cfg.SizesByCategory["ring"]) == 0 || len(cfg.SizesByCategory["apparel"]) == 0 {
		t.Fatalf("default size domains missing: %+v", cfg.SizesByCategory)
	}
}

func TestLoad_RequiresCatalog(t *testing.T) {
	t.Setenv("CATALOG_JSON", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when CATALOG_JSON is unset")
	}
}

func TestLoad_RejectsMalformedCatalog(t *testing.T) {
	t.Setenv("CATALOG_JSON", "{not json")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for malformed CATALOG_JSON")
	}
}

func TestLoad_RejectsEmptyCatalog(t *testing.T) {
	t.Setenv("CATALOG_JSON", "{}")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for an empty product mapping")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_JSON", catalogJSON)
	t.Setenv("PROVIDER_BASE_URL", "http://localhost:12111/v1")
	t.Setenv("SHIPPING_COUNTRIES", "US, CA")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "250")
	t.Setenv("TAX_RATE", "0.0825")
	t.Setenv("SIZES_JSON", `{"ring": ["6", "7"]}`)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProviderBaseURL != "http://localhost:12111/v1" {
		t.Fatalf("base URL override ignored: %s", cfg.ProviderBaseURL)
	}
	if len(cfg.ShippingCountries) != 2 || cfg.ShippingCountries[1] != "CA" {
		t.Fatalf("countries not trimmed and split: %v", cfg.ShippingCountries)
	}
	if cfg.FreeShippingThreshold != 250 || cfg.TaxRate != 0.0825 {
		t.Fatalf("numeric overrides ignored: %v / %v", cfg.FreeShippingThreshold, cfg.TaxRate)
	}
	if got := cfg.SizesByCategory["ring"]; len(got) != 2 {
		t.Fatalf("SIZES_JSON override ignored: %v", got)
	}
}

func TestLoad_BadNumericFallsBack(t *testing.T) {
	t.Setenv("CATALOG_JSON", catalogJSON)
	t.Setenv("FLAT_SHIPPING_RATE", "cheap")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FlatShippingRate != 7.50 {
		t.Fatalf("expected fallback rate, got %v", cfg.FlatShippingRate)
	}
}
