// Package app assembles the billing engine from configuration: storage
// driver, services and the HTTP router. cmd/server and cmd/billingctl share it.
package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leasebill/internal/domain/billing"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	StorageDriver string
	DatabaseURL   string
	DBMaxConns    int

	BillingTimezone   string
	BillingMaxPeriods int

	JWTSecret              string
	CORSAllowedOrigins     []string
	AuditCompressThreshold int
	ShutdownTimeout        time.Duration
}

// LoadEnv loads .env files when present. Variables already set win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Env:                    getEnv("APP_ENV", "development"),
		Port:                   getEnv("APP_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		StorageDriver:          getEnv("STORAGE_DRIVER", DriverPostgres),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DBMaxConns:             getEnvInt("DB_MAX_CONNS", 20),
		BillingTimezone:        getEnv("BILLING_TIMEZONE", "America/Sao_Paulo"),
		BillingMaxPeriods:      getEnvInt("BILLING_MAX_PERIODS", billing.DefaultMaxPeriods),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		AuditCompressThreshold: getEnvInt("AUDIT_COMPRESS_THRESHOLD", 10*1024),
		ShutdownTimeout:        getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
	return cfg, cfg.Validate()
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", c.StorageDriver, DriverPostgres, DriverMemory)
	}
	if c.BillingMaxPeriods <= 0 {
		return fmt.Errorf("BILLING_MAX_PERIODS must be positive")
	}
	if _, err := time.LoadLocation(c.BillingTimezone); err != nil {
		return fmt.Errorf("invalid BILLING_TIMEZONE %q: %w", c.BillingTimezone, err)
	}
	return nil
}

// IsDevelopment reports whether the development mode is on.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves BillingTimezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BillingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
