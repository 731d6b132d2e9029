package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
	"github.com/vitalbite/wearable-sync/internal/domain"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Auth     AuthConfig     `env:",prefix=AUTH_"`
	Terra    TerraConfig    `env:",prefix=TERRA_"`
	Summary  SummaryConfig  `env:",prefix=SUMMARY_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=wearable_sync"`
	Password string `env:"PASSWORD,default=wearable_sync_password"`
	DBName   string `env:"DB,default=wearable_sync_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// AuthConfig configures validation of access tokens minted by the main
// application. The secret is shared with the token issuer.
type AuthConfig struct {
	TokenSecret string `env:"TOKEN_SECRET,required"`
}

// TerraConfig configures the aggregation provider integration. An empty
// SigningSecret disables webhook signature verification entirely, which is
// only acceptable for development deployments.
type TerraConfig struct {
	DevID          string   `env:"DEV_ID,required"`
	APIKey         string   `env:"API_KEY,required"`
	SigningSecret  string   `env:"SIGNING_SECRET,default="`
	BaseURL        string   `env:"BASE_URL,default=https://api.tryterra.co/v2"`
	SuccessURL     string   `env:"AUTH_SUCCESS_URL,default="`
	FailureURL     string   `env:"AUTH_FAILURE_URL,default="`
	RequestTimeout Duration `env:"REQUEST_TIMEOUT,default=10s"`
}

type SummaryConfig struct {
	// Reconciliation decides how entries from two simultaneously active
	// providers combine: sum, prefer_primary or max
	Reconciliation string   `env:"RECONCILIATION,default=sum"`
	CacheTTL       Duration `env:"CACHE_TTL,default=60s"`
}

type SecurityConfig struct {
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=30"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Strategy returns the configured reconciliation strategy
func (s SummaryConfig) Strategy() domain.ReconciliationStrategy {
	return domain.ReconciliationStrategy(s.Reconciliation)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Auth.TokenSecret) < 32 {
		return nil, fmt.Errorf("AUTH_TOKEN_SECRET must be at least 32 characters long")
	}

	if !domain.ValidReconciliationStrategy(config.Summary.Reconciliation) {
		return nil, fmt.Errorf("SUMMARY_RECONCILIATION must be one of sum, prefer_primary, max, got %q", config.Summary.Reconciliation)
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
