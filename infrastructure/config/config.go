package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Cache store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// Cache store configuration
	CacheBackend  string
	CacheKeyspace string

	// AWS configuration (dynamodb backend)
	AWSRegion     string
	DynamoDBTable string

	// Catalog database (system of record)
	BadgerPath     string
	BadgerInMemory bool

	// Write-behind flushing
	FlushInterval  time.Duration
	FlushBatchSize int

	// Cache warm-up
	WarmupEnabled bool
	WarmupTopK    int

	// Circuit breaker in front of the catalog database
	BreakerEnabled bool

	// Per-client rate limiting on listen ingestion
	RateLimitEnabled bool
	IngestRateBurst  int
	IngestRateRefill time.Duration

	// Logging and features
	LogLevel   string
	EnableCORS bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		CacheBackend:  getEnv("CACHE_BACKEND", BackendMemory),
		CacheKeyspace: getEnv("CACHE_KEYSPACE", "catalog"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("DYNAMODB_TABLE", ""),

		BadgerPath:     getEnv("BADGER_PATH", "data/catalog"),
		BadgerInMemory: getEnvBool("BADGER_IN_MEMORY", false),

		FlushInterval:  getEnvDuration("FLUSH_INTERVAL", 5*time.Second),
		FlushBatchSize: getEnvInt("FLUSH_BATCH_SIZE", 50),

		WarmupEnabled: getEnvBool("WARMUP_ENABLED", true),
		WarmupTopK:    getEnvInt("WARMUP_TOP_K", 20),

		BreakerEnabled: getEnvBool("BREAKER_ENABLED", true),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		IngestRateBurst:  getEnvInt("INGEST_RATE_BURST", 120),
		IngestRateRefill: getEnvDuration("INGEST_RATE_REFILL", 500*time.Millisecond),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q, got %q", BackendMemory, BackendDynamoDB, c.CacheBackend)
	}
	if c.CacheBackend == BackendDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("FLUSH_INTERVAL must be positive")
	}
	if c.FlushBatchSize <= 0 {
		return fmt.Errorf("FLUSH_BATCH_SIZE must be positive")
	}
	if c.WarmupEnabled && c.WarmupTopK <= 0 {
		return fmt.Errorf("WARMUP_TOP_K must be positive when warm-up is enabled")
	}
	if c.RateLimitEnabled && (c.IngestRateBurst <= 0 || c.IngestRateRefill <= 0) {
		return fmt.Errorf("INGEST_RATE_BURST and INGEST_RATE_REFILL must be positive when rate limiting is enabled")
	}
	if c.IsProduction() && !c.BadgerInMemory && c.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH is required in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
