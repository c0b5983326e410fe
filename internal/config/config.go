package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the feed sync service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Shopify
	ShopifyStoreURL    string // store host, e.g. example.myshopify.com
	ShopifyAccessToken string
	ShopifyRateLimit   int // requests per second
	ShopifyTimeout     time.Duration

	// Location selection for quantity mutations. The named location is
	// preferred; the first location returned is the fallback.
	LocationName string

	// Resolver limits. The catalog API caps both the page size and the
	// practical length of a SKU filter expression, so both are bounded.
	ResolverChunkSize int
	ResolverPageSize  int

	// Mutation limits
	MutationBatchSize int
	MutationReason    string

	// Roster refresh
	RosterPageSize int

	// Feeds
	FeedTimeout    time.Duration
	BenutaFeedURL  string
	SolluxFeedURL  string
	VidaXLFeedURL  string
	PriceMarkup    decimal.Decimal
	PriceExportDir string
}

// Load loads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "feed_sync")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8099"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		ShopifyStoreURL:    getEnv("SHOPIFY_STORE_URL", ""),
		ShopifyAccessToken: getEnv("SHOPIFY_ACCESS_TOKEN", ""),
		ShopifyRateLimit:   getEnvAsInt("SHOPIFY_RATE_LIMIT", 2),
		ShopifyTimeout:     getEnvAsDuration("SHOPIFY_TIMEOUT", 30*time.Second),

		LocationName: getEnv("SHOPIFY_LOCATION_NAME", "Shop location"),

		ResolverChunkSize: getEnvAsInt("RESOLVER_CHUNK_SIZE", 250),
		ResolverPageSize:  getEnvAsInt("RESOLVER_PAGE_SIZE", 250),

		MutationBatchSize: getEnvAsInt("MUTATION_BATCH_SIZE", 100),
		MutationReason:    getEnv("MUTATION_REASON", "correction"),

		RosterPageSize: getEnvAsInt("ROSTER_PAGE_SIZE", 250),

		FeedTimeout:    getEnvAsDuration("FEED_TIMEOUT", 30*time.Second),
		BenutaFeedURL:  getEnv("BENUTA_FEED_URL", ""),
		SolluxFeedURL:  getEnv("SOLLUX_FEED_URL", ""),
		VidaXLFeedURL:  getEnv("VIDAXL_FEED_URL", ""),
		PriceMarkup:    getEnvAsDecimal("PRICE_MARKUP", decimal.NewFromFloat(1.60)),
		PriceExportDir: getEnv("PRICE_EXPORT_DIR", "output"),
	}

	// The platform address and credential are required before any network
	// call is attempted.
	if config.ShopifyStoreURL == "" {
		log.Fatal("SHOPIFY_STORE_URL is required")
	}
	if config.ShopifyAccessToken == "" {
		log.Fatal("SHOPIFY_ACCESS_TOKEN is required")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsDecimal gets an environment variable as a decimal with a default value
func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}
	return d
}
