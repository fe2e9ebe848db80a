package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ucp"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Backend kinds the gateway can translate for.
const (
	BackendShopify = "shopify"
	BackendLocal   = "local"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Shopify   ShopifyConfig
	DB        DBConfig
	Redis     RedisConfig
	Session   SessionConfig
	Tax       TaxConfig
	Webhook   WebhookConfig
	Discovery DiscoveryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if cfg.Backend.Kind == BackendShopify {
		if err := cfg.Shopify.validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UCP_APP_ENV" default:"dev"`
	Port         string `envconfig:"UCP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"UCP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UCP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	Kind string `envconfig:"UCP_BACKEND_KIND" default:"local"`
}

func (b BackendConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(b.Kind)) {
	case BackendShopify, BackendLocal:
		return nil
	}
	return fmt.Errorf("backend kind must be %q or %q", BackendShopify, BackendLocal)
}

// Normalized returns the lowercase backend kind.
func (b BackendConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(b.Kind))
}

type ShopifyConfig struct {
	ShopDomain       string        `envconfig:"UCP_SHOPIFY_SHOP_DOMAIN"`
	StorefrontToken  string        `envconfig:"UCP_SHOPIFY_STOREFRONT_TOKEN"`
	ShopID           string        `envconfig:"UCP_SHOPIFY_SHOP_ID" default:"shop_default"`
	APIVersion       string        `envconfig:"UCP_SHOPIFY_API_VERSION" default:"2024-01"`
	RequestTimeout   time.Duration `envconfig:"UCP_SHOPIFY_REQUEST_TIMEOUT" default:"15s"`
	ProductPageLimit int           `envconfig:"UCP_SHOPIFY_PRODUCT_PAGE_LIMIT" default:"10"`
}

func (s ShopifyConfig) validate() error {
	if strings.TrimSpace(s.ShopDomain) == "" {
		return fmt.Errorf("shopify shop domain is required")
	}
	if strings.TrimSpace(s.StorefrontToken) == "" {
		return fmt.Errorf("shopify storefront token is required")
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"UCP_DB_DSN"`
	Driver string `envconfig:"UCP_DB_DRIVER" default:"sqlite"`

	MaxOpenConns    int           `envconfig:"UCP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UCP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UCP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UCP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"UCP_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UCP_REDIS_URL"`
	Address      string        `envconfig:"UCP_REDIS_ADDR"`
	Password     string        `envconfig:"UCP_REDIS_PASSWORD"`
	DB           int           `envconfig:"UCP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UCP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UCP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UCP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UCP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UCP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis connection was requested at all.
// The gateway falls back to the in-memory session store otherwise.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type SessionConfig struct {
	TTL time.Duration `envconfig:"UCP_SESSION_TTL" default:"24h"`
}

type TaxConfig struct {
	// FlatRate is the placeholder tax policy used by the local backend.
	// Expressed as a decimal fraction, e.g. "0.25".
	FlatRate string `envconfig:"UCP_TAX_FLAT_RATE" default:"0.25"`
}

type WebhookConfig struct {
	URL     string        `envconfig:"UCP_WEBHOOK_URL"`
	Timeout time.Duration `envconfig:"UCP_WEBHOOK_TIMEOUT" default:"15s"`
}

type DiscoveryConfig struct {
	BaseURL string `envconfig:"UCP_DISCOVERY_BASE_URL" default:"http://localhost:8080"`
}
