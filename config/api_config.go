package config

import "github.com/vaultmesh/checkout/database/mysql"

// APIConfig configures cmd/api: the checkout, webhook and order REST
// surface.
type APIConfig struct {
	MySQL mysql.Config `json:"mysql"`
	Port  int          `json:"port"`

	CORSOrigins       []string `json:"cors_origins"`
	RateLimitWindowMS int      `json:"rate_limit_window_ms"`
	RateLimitMax      int      `json:"rate_limit_max_requests"`

	Payment   PaymentConfig    `json:"payment"`
	Providers []ProviderConfig `json:"providers"`
}

// PaymentConfig carries the payment-processor credentials. Per
// spec.md §6, missing keys fail startup fast.
type PaymentConfig struct {
	SecretKey     string `json:"secret_key"`
	WebhookSecret string `json:"webhook_secret"`
	BaseURL       string `json:"base_url"`
}
