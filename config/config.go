// Package config handles loading and managing application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Supported gateway providers.
const (
	ProviderDLocal      = "dlocal"
	ProviderMercadoPago = "mercadopago"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Wallet   WalletConfig
	Gateway  GatewayConfig
	Checkout CheckoutConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	GinMode         string // "debug", "release", or "test"
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings. An empty DSN keeps orders in memory.
type DatabaseConfig struct {
	DSN string
}

// RedisConfig holds Redis settings. An empty address keeps token claims in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WalletConfig describes the merchant to the wallet. It is rendered into
// every checkout context and never taken from the client.
type WalletConfig struct {
	Environment       string // "TEST" or "PRODUCTION"
	MerchantID        string
	MerchantName      string
	GatewayMerchantID string
	Networks          []string
	AuthMethods       []string
}

// GatewayConfig selects and configures the charging gateway.
type GatewayConfig struct {
	Provider    string
	DLocal      DLocalConfig
	MercadoPago MercadoPagoConfig
}

// DLocalConfig holds dLocal credentials.
type DLocalConfig struct {
	BaseURL         string
	Login           string
	TransKey        string
	SecretKey       string
	NotificationURL string
	Timeout         time.Duration
}

// MercadoPagoConfig holds Mercado Pago credentials.
type MercadoPagoConfig struct {
	AccessToken     string
	WebhookSecret   string
	NotificationURL string
}

// Configured reports whether an access token is set.
func (c MercadoPagoConfig) Configured() bool { return c.AccessToken != "" }

// Configured reports whether dLocal credentials are set.
func (c DLocalConfig) Configured() bool {
	return c.Login != "" && c.TransKey != "" && c.SecretKey != ""
}

// CheckoutConfig configures the headless checkout client.
type CheckoutConfig struct {
	BackendURL     string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PayerName      string
	PayerEmail     string
	PayerDocument  string
	Country        string
}

// Load reads configuration from a .env file, if present, and the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Wallet: WalletConfig{
			Environment:       strings.ToUpper(getEnv("GPAY_ENVIRONMENT", "TEST")),
			MerchantID:        getEnv("GPAY_MERCHANT_ID", ""),
			MerchantName:      getEnv("GPAY_MERCHANT_NAME", "Your Shop Name"),
			GatewayMerchantID: getEnv("GPAY_GATEWAY_MERCHANT_ID", ""),
			Networks:          getEnvList("GPAY_CARD_NETWORKS", []string{"VISA", "MASTERCARD"}),
			AuthMethods:       getEnvList("GPAY_AUTH_METHODS", []string{"PAN_ONLY", "CRYPTOGRAM_3DS"}),
		},
		Gateway: GatewayConfig{
			Provider: strings.ToLower(getEnv("GATEWAY_PROVIDER", ProviderDLocal)),
			DLocal: DLocalConfig{
				BaseURL:         getEnv("DLOCAL_BASE_URL", "https://sandbox.dlocal.com"),
				Login:           getEnv("DLOCAL_X_LOGIN", ""),
				TransKey:        getEnv("DLOCAL_X_TRANS_KEY", ""),
				SecretKey:       getEnv("DLOCAL_SECRET_KEY", ""),
				NotificationURL: getEnv("DLOCAL_NOTIFICATION_URL", ""),
				Timeout:         getEnvDuration("DLOCAL_TIMEOUT", 30*time.Second),
			},
			MercadoPago: MercadoPagoConfig{
				AccessToken:     getEnv("MP_ACCESS_TOKEN", ""),
				WebhookSecret:   getEnv("MP_WEBHOOK_SECRET", ""),
				NotificationURL: getEnv("MP_NOTIFICATION_URL", ""),
			},
		},
		Checkout: CheckoutConfig{
			BackendURL:     getEnv("CHECKOUT_BACKEND_URL", "http://localhost:8080"),
			Timeout:        getEnvDuration("CHECKOUT_TIMEOUT", 10*time.Second),
			MaxRetries:     getEnvInt("CHECKOUT_MAX_RETRIES", 2),
			InitialBackoff: getEnvDuration("CHECKOUT_INITIAL_BACKOFF", 200*time.Millisecond),
			MaxBackoff:     getEnvDuration("CHECKOUT_MAX_BACKOFF", 5*time.Second),
			PayerName:      getEnv("CHECKOUT_PAYER_NAME", ""),
			PayerEmail:     getEnv("CHECKOUT_PAYER_EMAIL", ""),
			PayerDocument:  getEnv("CHECKOUT_PAYER_DOCUMENT", ""),
			Country:        strings.ToUpper(getEnv("CHECKOUT_COUNTRY", "ES")),
		},
	}
}

// GatewayName returns the tokenization gateway identifier for the active provider.
func (c *Config) GatewayName() string { return c.Gateway.Provider }

// NotificationURL returns the callback URL for the active provider.
func (c *Config) NotificationURL() string {
	if c.Gateway.Provider == ProviderMercadoPago {
		return c.Gateway.MercadoPago.NotificationURL
	}
	return c.Gateway.DLocal.NotificationURL
}

// Validate checks the settings the backend cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.Wallet.MerchantID == "" {
		errs = append(errs, errors.New("GPAY_MERCHANT_ID is required"))
	}
	if c.Wallet.Environment != "TEST" && c.Wallet.Environment != "PRODUCTION" {
		errs = append(errs, fmt.Errorf("GPAY_ENVIRONMENT must be TEST or PRODUCTION, got %q", c.Wallet.Environment))
	}
	if len(c.Wallet.Networks) == 0 || len(c.Wallet.AuthMethods) == 0 {
		errs = append(errs, errors.New("GPAY_CARD_NETWORKS and GPAY_AUTH_METHODS must not be empty"))
	}

	switch c.Gateway.Provider {
	case ProviderDLocal:
		if !c.Gateway.DLocal.Configured() {
			errs = append(errs, errors.New("DLOCAL_X_LOGIN, DLOCAL_X_TRANS_KEY and DLOCAL_SECRET_KEY are required"))
		}
	case ProviderMercadoPago:
		if !c.Gateway.MercadoPago.Configured() {
			errs = append(errs, errors.New("MP_ACCESS_TOKEN is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("GATEWAY_PROVIDER must be %s or %s, got %q",
			ProviderDLocal, ProviderMercadoPago, c.Gateway.Provider))
	}

	if c.Wallet.Environment == "PRODUCTION" && c.Wallet.GatewayMerchantID == "" {
		errs = append(errs, errors.New("GPAY_GATEWAY_MERCHANT_ID is required in PRODUCTION"))
	}

	return errors.Join(errs...)
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer with a fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := cast.ToIntE(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("750ms") or plain nanoseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := cast.ToDurationE(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
