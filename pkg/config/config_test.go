package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.App.Port)
	}
	if cfg.Backend.Normalized() != BackendLocal {
		t.Fatalf("expected default backend local, got %q", cfg.Backend.Kind)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("expected default session TTL 24h, got %v", cfg.Session.TTL)
	}
	if cfg.Tax.FlatRate != "0.25" {
		t.Fatalf("unexpected default flat tax rate %q", cfg.Tax.FlatRate)
	}
	if cfg.Redis.Configured() {
		t.Fatalf("redis should not be configured by default")
	}
}

func TestLoad_ShopifyRequiresCredentials(t *testing.T) {
	t.Setenv("UCP_BACKEND_KIND", "shopify")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing shopify credentials to return an error")
	}

	t.Setenv("UCP_SHOPIFY_SHOP_DOMAIN", "demo.myshopify.com")
	t.Setenv("UCP_SHOPIFY_STOREFRONT_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Shopify.APIVersion != "2024-01" {
		t.Fatalf("unexpected api version %q", cfg.Shopify.APIVersion)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("UCP_BACKEND_KIND", "bigcommerce")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown backend kind to return an error")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
