package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "BAZAARLY_APP_ENV"
	EnvPort   = "BAZAARLY_APP_PORT"
	EnvDBDSN  = "BAZAARLY_DB_DSN"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Razorpay     RazorpayConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BAZAARLY_APP_ENV" required:"true"`
	Port         string `envconfig:"BAZAARLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BAZAARLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAZAARLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BAZAARLY_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"BAZAARLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAZAARLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAZAARLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAZAARLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAZAARLY_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"BAZAARLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAZAARLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAZAARLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAZAARLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAZAARLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAZAARLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAZAARLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAZAARLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// PricingConfig carries the checkout pricing constants. Amounts are in
// paise so the threshold of ₹5000 is 500000 and the flat fee of ₹100 is
// 10000.
type PricingConfig struct {
	TaxRatePercent             float64 `envconfig:"BAZAARLY_TAX_RATE_PERCENT" default:"18"`
	FreeShippingThresholdPaise int64   `envconfig:"BAZAARLY_FREE_SHIPPING_THRESHOLD_PAISE" default:"500000"`
	FlatShippingFeePaise       int64   `envconfig:"BAZAARLY_FLAT_SHIPPING_FEE_PAISE" default:"10000"`
	Currency                   string  `envconfig:"BAZAARLY_CURRENCY" default:"INR"`
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"BAZAARLY_CHECKOUT_SESSION_TTL" default:"30m"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"BAZAARLY_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"BAZAARLY_RAZORPAY_KEY_SECRET"`
	BaseURL   string `envconfig:"BAZAARLY_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
}

// Configured reports whether gateway credentials are present. An
// unconfigured gateway is treated as unavailable rather than a boot
// failure, since cash on delivery still works without it.
func (r RazorpayConfig) Configured() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"BAZAARLY_CRON_INTERVAL" default:"1h"`
	PendingPaymentTTL time.Duration `envconfig:"BAZAARLY_PENDING_PAYMENT_TTL" default:"24h"`
	LockTTL           time.Duration `envconfig:"BAZAARLY_CRON_LOCK_TTL" default:"55m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAZAARLY_AUTO_MIGRATE" default:"false"`
}
