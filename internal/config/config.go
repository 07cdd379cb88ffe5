package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Payment      PaymentConfig
	Images       ImagesConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	ReportBurstLimit      int
	ReportBurstWindowSec  int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines identity-token verification parameters. Tokens are
// issued by the external identity provider and verified here with a shared
// secret.
type AuthConfig struct {
	JWTSecret  string
	BcryptCost int
}

// PaymentConfig points at the hosted-checkout payment provider and fixes the
// two product prices.
type PaymentConfig struct {
	BaseURL            string
	APIKey             string
	Currency           string
	BoostAmountCents   int64
	PremiumAmountCents int64
	SuccessURL         string
	CancelURL          string
}

// ImagesConfig points at the external image hosting API.
type ImagesConfig struct {
	UploadURL string
	APIKey    string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ReportBurstLimit:      getEnvAsInt("REPORT_BURST_LIMIT", 5),
			ReportBurstWindowSec:  getEnvAsInt("REPORT_BURST_WINDOW_SECONDS", 86400),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("AUTH_JWT_SECRET", "dev-secret"),
			BcryptCost: getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Payment: PaymentConfig{
			BaseURL:            getEnv("PAYMENT_BASE_URL", "https://checkout.example.com"),
			APIKey:             os.Getenv("PAYMENT_API_KEY"),
			Currency:           getEnv("PAYMENT_CURRENCY", "BDT"),
			BoostAmountCents:   int64(getEnvAsInt("PAYMENT_BOOST_AMOUNT_CENTS", 10000)),
			PremiumAmountCents: int64(getEnvAsInt("PAYMENT_PREMIUM_AMOUNT_CENTS", 100000)),
			SuccessURL:         getEnv("PAYMENT_SUCCESS_URL", "http://localhost:5173/payment/ok"),
			CancelURL:          getEnv("PAYMENT_CANCEL_URL", "http://localhost:5173/payment/fail"),
		},
		Images: ImagesConfig{
			UploadURL: getEnv("IMAGES_UPLOAD_URL", "https://api.imgbb.com/1/upload"),
			APIKey:    os.Getenv("IMAGES_API_KEY"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ReportBurstWindow returns the rate-limiter window duration.
func (a AppConfig) ReportBurstWindow() time.Duration {
	if a.ReportBurstWindowSec <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.ReportBurstWindowSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
