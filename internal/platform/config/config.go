package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	JWTSecret      string
	StorageDriver  string
	MigrationsPath string

	// Unit of work retry budget for serialization failures and sequence races.
	TxMaxRetries     int
	TxRetryBaseDelay time.Duration

	AnalyticsSoftTimeout time.Duration
	AnalyticsCacheSize   int
	AnalyticsCacheTTL    time.Duration

	// Background jobs run by the server process.
	LateFeeInterval       time.Duration
	StatusRefreshInterval time.Duration

	RateLimit              string
	CORSAllowedOrigins     []string
	InvoiceNumberWidth     int
	DefaulterThresholdDays int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("STORAGE_DRIVER", StoragePostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("TX_MAX_RETRIES", 3)
	viper.SetDefault("TX_RETRY_BASE_DELAY", "20ms")
	viper.SetDefault("ANALYTICS_SOFT_TIMEOUT", "5s")
	viper.SetDefault("ANALYTICS_CACHE_SIZE", 256)
	viper.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	viper.SetDefault("LATE_FEE_INTERVAL", "24h")
	viper.SetDefault("STATUS_REFRESH_INTERVAL", "1h")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("INVOICE_NUMBER_WIDTH", 6)
	viper.SetDefault("DEFAULTER_THRESHOLD_DAYS", 0)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:            viper.GetString("PGSQL_URL"),
		Port:                   viper.GetString("PORT"),
		IsProduction:           viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:          viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:              viper.GetString("JWT_SECRET"),
		StorageDriver:          strings.ToLower(viper.GetString("STORAGE_DRIVER")),
		MigrationsPath:         viper.GetString("MIGRATIONS_PATH"),
		TxMaxRetries:           viper.GetInt("TX_MAX_RETRIES"),
		TxRetryBaseDelay:       viper.GetDuration("TX_RETRY_BASE_DELAY"),
		AnalyticsSoftTimeout:   viper.GetDuration("ANALYTICS_SOFT_TIMEOUT"),
		AnalyticsCacheSize:     viper.GetInt("ANALYTICS_CACHE_SIZE"),
		AnalyticsCacheTTL:      viper.GetDuration("ANALYTICS_CACHE_TTL"),
		LateFeeInterval:        viper.GetDuration("LATE_FEE_INTERVAL"),
		StatusRefreshInterval:  viper.GetDuration("STATUS_REFRESH_INTERVAL"),
		RateLimit:              viper.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:     splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		InvoiceNumberWidth:     viper.GetInt("INVOICE_NUMBER_WIDTH"),
		DefaulterThresholdDays: viper.GetInt("DEFAULTER_THRESHOLD_DAYS"),
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StorageMemory:
		log.Println("Warning: STORAGE_DRIVER=memory keeps all finance data in process memory.")
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.TxMaxRetries < 0 {
		return nil, fmt.Errorf("TX_MAX_RETRIES must not be negative, got %d", cfg.TxMaxRetries)
	}
	if cfg.InvoiceNumberWidth < 6 {
		log.Printf("Warning: INVOICE_NUMBER_WIDTH %d is below the minimum. Using 6.\n", cfg.InvoiceNumberWidth)
		cfg.InvoiceNumberWidth = 6
	}
	if cfg.AnalyticsCacheSize <= 0 {
		cfg.AnalyticsCacheSize = 256
	}
	if cfg.DefaulterThresholdDays < 0 {
		return nil, fmt.Errorf("DEFAULTER_THRESHOLD_DAYS must not be negative, got %d", cfg.DefaulterThresholdDays)
	}
	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET is the default insecure key. THIS IS NOT FOR PRODUCTION.")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
