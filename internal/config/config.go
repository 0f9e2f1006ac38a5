package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Promo    PromoConfig
	Payment  PaymentConfig
	Notify   NotifyConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// APIKey guards internal service-to-service endpoints.
	APIKey string
	// JWTSecret verifies bearer tokens issued by the identity service.
	JWTSecret string
	// JWTIssuer, when set, must match the token's iss claim.
	JWTIssuer string
}

// S3Config holds AWS S3 configuration for promo catalog files.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "promos/")
}

// PromoConfig controls the promo catalog import run at start-up.
type PromoConfig struct {
	CatalogFiles []string
}

// PaymentConfig holds payment provider configuration.
type PaymentConfig struct {
	StripeAPIKey      string
	StripeAccountID   string
	Currency          string
	SuccessURL        string
	CancelURL         string
	CardMethodTypes   []string
	WalletMethodTypes []string
	SessionTimeout    time.Duration
}

// NotifyConfig holds guest notification configuration.
type NotifyConfig struct {
	Backend    string // "memory" or "amqp"
	Workers    int
	QueueSize  int
	MaxRetries int
	AMQPURL    string
	Queue      string

	EmailEndpoint string
	EmailAPIKey   string
	EmailFrom     string

	WhatsAppEndpoint      string
	WhatsAppToken         string
	WhatsAppPhoneNumberID string

	SendTimeout time.Duration
}

// RedisConfig holds the tracking cache connection. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TrackingConfig holds order tracking display settings.
type TrackingConfig struct {
	EstimateDays int
	CacheTTL     time.Duration
}

// Load loads configuration from environment variables. Values from a .env
// file in the working directory are applied first when the file exists;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "storefront"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey:    getEnv("API_KEY", ""),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "promos/"),
		},
		Promo: PromoConfig{
			CatalogFiles: getEnvAsList("PROMO_CATALOG_FILES", nil),
		},
		Payment: PaymentConfig{
			StripeAPIKey:      getEnv("STRIPE_API_KEY", ""),
			StripeAccountID:   getEnv("STRIPE_ACCOUNT_ID", ""),
			Currency:          getEnv("PAYMENT_CURRENCY", "usd"),
			SuccessURL:        getEnv("PAYMENT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
			CancelURL:         getEnv("PAYMENT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
			CardMethodTypes:   getEnvAsList("PAYMENT_CARD_METHOD_TYPES", []string{"card"}),
			WalletMethodTypes: getEnvAsList("PAYMENT_WALLET_METHOD_TYPES", []string{"paypal"}),
			SessionTimeout:    getEnvAsDuration("PAYMENT_SESSION_TIMEOUT", 10*time.Second),
		},
		Notify: NotifyConfig{
			Backend:               getEnv("NOTIFY_BACKEND", "memory"),
			Workers:               getEnvAsInt("NOTIFY_WORKERS", 4),
			QueueSize:             getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxRetries:            getEnvAsInt("NOTIFY_MAX_RETRIES", 3),
			AMQPURL:               getEnv("AMQP_URL", ""),
			Queue:                 getEnv("NOTIFY_QUEUE", "guest_notifications"),
			EmailEndpoint:         getEnv("EMAIL_ENDPOINT", ""),
			EmailAPIKey:           getEnv("EMAIL_API_KEY", ""),
			EmailFrom:             getEnv("EMAIL_FROM", "orders@storefront.local"),
			WhatsAppEndpoint:      getEnv("WHATSAPP_ENDPOINT", "https://graph.facebook.com/v19.0"),
			WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
			WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			SendTimeout:           getEnvAsDuration("NOTIFY_SEND_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Tracking: TrackingConfig{
			EstimateDays: getEnvAsInt("TRACKING_ESTIMATE_DAYS", 7),
			CacheTTL:     getEnvAsDuration("TRACKING_CACHE_TTL", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Payment.SessionTimeout <= 0 {
		return fmt.Errorf("payment session timeout must be positive")
	}

	if c.Payment.Currency == "" {
		return fmt.Errorf("payment currency is required")
	}

	switch c.Notify.Backend {
	case "memory":
		if c.Notify.Workers < 1 {
			return fmt.Errorf("notify workers must be at least 1")
		}
		if c.Notify.QueueSize < 1 {
			return fmt.Errorf("notify queue size must be at least 1")
		}
	case "amqp":
		if c.Notify.AMQPURL == "" {
			return fmt.Errorf("AMQP URL is required when notify backend is amqp")
		}
		if c.Notify.Queue == "" {
			return fmt.Errorf("notify queue is required when notify backend is amqp")
		}
	default:
		return fmt.Errorf("invalid notify backend: %s (must be memory or amqp)", c.Notify.Backend)
	}

	if c.Notify.MaxRetries < 0 {
		return fmt.Errorf("notify max retries cannot be negative")
	}

	if c.Tracking.EstimateDays < 0 {
		return fmt.Errorf("tracking estimate days cannot be negative")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "10s") or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated environment variable.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
