package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/dukalink/ipay-gateway/internal/ipay"
)

// Demo credentials published by iPay for sandbox integration. They are
// insecure by definition and only ever applied in development.
const (
	demoVendorID = "demo"
	demoHashKey  = "demoCHANGED"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv string
	Port   string

	VendorID        string
	HashKey         string
	Live            bool
	CallbackBaseURL string
	Channels        ipay.Channels

	RedisURL           string
	WebhookReplayTTL   time.Duration
	IdempotencyTTL     time.Duration
	WebhookRateMax     int
	WebhookRateWindow  time.Duration
	CORSAllowedOrigins []string

	PaymentSuccessURL string
	PaymentFailureURL string
}

// Load reads configuration from environment variables and optional .env
// files. Missing gateway credentials are fatal outside development; in
// development they fall back to the iPay demo account.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:          valueOrDefault(k.String("APP_ENV"), "development"),
		Port:            valueOrDefault(k.String("PORT"), "9000"),
		VendorID:        strings.TrimSpace(k.String("IPAY_VID")),
		HashKey:         strings.TrimSpace(k.String("IPAY_HASH_KEY")),
		Live:            parseBool(k.String("IPAY_LIVE")),
		CallbackBaseURL: valueOrDefault(strings.TrimSpace(k.String("IPAY_CALLBACK_BASE_URL")), "http://localhost:9000"),
		Channels: ipay.Channels{
			MPesa:      parseBoolDefault(k.String("IPAY_CHANNEL_MPESA"), true),
			Airtel:     parseBoolDefault(k.String("IPAY_CHANNEL_AIRTEL"), true),
			CreditCard: parseBoolDefault(k.String("IPAY_CHANNEL_CREDITCARD"), true),
			Pesalink:   parseBoolDefault(k.String("IPAY_CHANNEL_PESALINK"), true),
		},
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		WebhookReplayTTL:   parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "24h"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		WebhookRateMax:     int(k.Int64("WEBHOOK_RATE_MAX")),
		WebhookRateWindow:  parseDuration(k.String("WEBHOOK_RATE_WINDOW"), "1m"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PaymentSuccessURL:  valueOrDefault(strings.TrimSpace(k.String("PAYMENT_SUCCESS_URL")), "/payment/success"),
		PaymentFailureURL:  valueOrDefault(strings.TrimSpace(k.String("PAYMENT_FAILURE_URL")), "/payment/failed"),
	}

	if cfg.AppEnv == "development" {
		if cfg.VendorID == "" {
			cfg.VendorID = demoVendorID
		}
		if cfg.HashKey == "" {
			cfg.HashKey = demoHashKey
		}
	}
	if cfg.VendorID == "" {
		return nil, errors.New("IPAY_VID is required")
	}
	if cfg.HashKey == "" {
		return nil, errors.New("IPAY_HASH_KEY is required")
	}

	return cfg, nil
}

// ProviderOptions assembles the gateway options consumed by the provider
// service.
func (c *Config) ProviderOptions() ipay.Options {
	return ipay.Options{
		VendorID:        c.VendorID,
		SecretKey:       c.HashKey,
		Live:            c.Live,
		CallbackBaseURL: c.CallbackBaseURL,
		Channels:        c.Channels,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "9000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return fallback
	}
	switch trimmed {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests allows tests to override environment variables without
// touching the real environment.
func LoadForTests(environ map[string]string) (*Config, error) {
	original := make(map[string]string, len(environ))
	for key := range environ {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, environ[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
