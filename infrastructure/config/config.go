package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chatapi/application/ports"

	"github.com/joho/godotenv"
)

const (
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"

	SecretsProviderEnv            = "env"
	SecretsProviderSecretsManager = "secretsmanager"
)

// JWTSecretName is the secret holding the token signing key.
const JWTSecretName = "JWT_SECRET"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion    string
	TableName    string
	EventBusName string
	Bucket       string
	// DownloadPrefix is prepended to download keys; raw text extracted
	// from uploads lives under it.
	DownloadPrefix string

	// Storage
	StoreDriver string
	// PageSize applies to the memory store only.
	PageSize int

	// Principal cache. An empty address keeps the cache in process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Secrets
	SecretsProvider string
	SecretsPrefix   string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret        string
	JWTIssuer        string
	TokenTTL         time.Duration
	BcryptCost       int
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// Feature flags
	MetricsNamespace string
	EnableMetrics    bool
	EnableTracing    bool
	EnableCORS       bool
	AllowedOrigins   []string

	// RequestsPerMinute bounds API requests per client IP; zero disables it.
	RequestsPerMinute int
}

// LoadConfig loads configuration from environment variables. Outside
// production an optional .env file is read first; variables already set
// in the environment take precedence.
func LoadConfig() (*Config, error) {
	environment := getEnv("ENVIRONMENT", "development")
	if environment != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    environment,
		AWSRegion:      getEnv("AWS_REGION", "us-west-2"),
		TableName:      getEnv("TABLE_NAME", "chatapi"),
		EventBusName:   getEnv("EVENT_BUS_NAME", ""),
		Bucket:         getEnv("BUCKET", ""),
		DownloadPrefix: getEnv("DOWNLOAD_PREFIX", "raw/"),

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverDynamoDB),
		PageSize:    getEnvInt("PAGE_SIZE", 100),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 5*time.Minute),

		SecretsProvider: getEnv("SECRETS_PROVIDER", SecretsProviderEnv),
		SecretsPrefix:   getEnv("SECRETS_PREFIX", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTIssuer:        getEnv("JWT_ISSUER", "chatapi"),
		TokenTTL:         getEnvDuration("TOKEN_TTL", 0),
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),
		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "ChatAPI/"+environment),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
		EnableCORS:       getEnvBool("ENABLE_CORS", true),
		AllowedOrigins:   getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		RequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveSecrets fills secret-bearing fields from provider. It runs once at
// startup, before any client is built.
func (c *Config) ResolveSecrets(ctx context.Context, provider ports.SecretProvider) error {
	secret, err := provider.GetSecret(ctx, JWTSecretName)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", JWTSecretName, err)
	}
	c.JWTSecret = secret
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverDynamoDB, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.SecretsProvider {
	case SecretsProviderEnv, SecretsProviderSecretsManager:
	default:
		return fmt.Errorf("unknown SECRETS_PROVIDER %q", c.SecretsProvider)
	}
	if c.StoreDriver == StoreDriverDynamoDB && c.TableName == "" {
		return fmt.Errorf("TABLE_NAME is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}

	if c.Environment == "production" {
		if c.StoreDriver != StoreDriverDynamoDB {
			return fmt.Errorf("STORE_DRIVER must be %s in production", StoreDriverDynamoDB)
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
		if c.Bucket == "" {
			return fmt.Errorf("BUCKET is required")
		}
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
