package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/pkg/retry"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBDriver   string
	DBMigrate  bool

	LogLevel  string
	LogFormat string

	LockTimeout         time.Duration
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	PaymentTTL          time.Duration
	ExpirySchedule      string

	KafkaBrokers    string
	KafkaStageTopic string

	AMQPURL             string
	AMQPPaymentExchange string
	AMQPPaymentQueue    string
}

// LoadConfig reads envFile into the environment, when it exists, and builds the
// configuration from environment variables. A missing file is not an error; the second
// result reports whether it was loaded.
func LoadConfig(envFile string) (Config, bool, error) {
	loaded := true
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, false, fmt.Errorf("load %s: %w", envFile, err)
		}
		loaded = false
	}

	cfg, err := ConfigFromEnv()
	return cfg, loaded, err
}

// ConfigFromEnv builds the configuration from the current environment. Every malformed
// value is reported.
func ConfigFromEnv() (Config, error) {
	var problems []error

	cfg := Config{
		HTTPPort:   getString("HTTP_PORT", "8080"),
		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getString("DB_PORT", "5432"),
		DBUser:     getString("DB_USER", "postgres"),
		DBPassword: getString("DB_PASSWORD", ""),
		DBName:     getString("DB_NAME", "fulfillment"),
		DBSslMode:  getString("DB_SSLMODE", "disable"),
		DBDriver:   strings.ToLower(getString("DB_DRIVER", DriverPgx)),
		DBMigrate:  getBool("DB_MIGRATE", false, &problems),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "json"),

		LockTimeout:         getDuration("LOCK_TIMEOUT", 2*time.Second, &problems),
		RetryMaxAttempts:    getInt("RETRY_MAX_ATTEMPTS", 3, &problems),
		RetryInitialBackoff: getDuration("RETRY_INITIAL_BACKOFF", 50*time.Millisecond, &problems),
		PaymentTTL:          getDuration("PAYMENT_TTL", 30*time.Minute, &problems),
		ExpirySchedule:      getString("EXPIRY_SCHEDULE", "0 * * * * *"),

		KafkaBrokers:    getString("KAFKA_BROKERS", ""),
		KafkaStageTopic: getString("KAFKA_STAGE_TOPIC", "order-stage-events"),

		AMQPURL:             getString("AMQP_URL", ""),
		AMQPPaymentExchange: getString("AMQP_PAYMENT_EXCHANGE", "payments"),
		AMQPPaymentQueue:    getString("AMQP_PAYMENT_QUEUE", "fulfillment.payments"),
	}

	if cfg.DBDriver != DriverPgx && cfg.DBDriver != DriverPQ {
		problems = append(problems, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver))
	}
	if cfg.RetryMaxAttempts < 1 {
		problems = append(problems, fmt.Errorf("RETRY_MAX_ATTEMPTS: must be at least 1, got %d", cfg.RetryMaxAttempts))
	}

	if err := errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Database drivers selectable with DB_DRIVER.
const (
	DriverPgx = "pgx"
	DriverPQ  = "postgres"
)

// DSN returns the PostgreSQL connection string in key=value form, understood by both drivers.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// RetryPolicy returns the backoff used for retryable transition and restock attempts.
// RETRY_MAX_ATTEMPTS counts the first attempt.
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = c.RetryMaxAttempts - 1
	p.InitialBackoff = c.RetryInitialBackoff
	return p
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int, problems *[]error) int {
	raw := getString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getBool(key string, fallback bool, problems *[]error) bool {
	raw := getString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, problems *[]error) time.Duration {
	raw := getString(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	if v <= 0 {
		*problems = append(*problems, fmt.Errorf("%s: must be positive, got %s", key, v))
		return fallback
	}
	return v
}
