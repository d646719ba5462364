package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Bus       BusConfig
	Proxy     ProxyConfig
	RateLimit RateLimitConfig
	Directory DirectoryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. The pool is optional: without a
// DSN the gateway runs on the in-memory user directory.
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

// AuthConfig defines token issuance and revocation parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	RefreshTokenTTLHours    int
	RevocationWindowMinutes int
	SweepIntervalMinutes    int
	BcryptCost              int
}

// BusConfig sizes the notification bus.
type BusConfig struct {
	Capacity  int
	QueueSize int
}

// ProxyConfig lists upstream base URLs and the outbound timeout.
type ProxyConfig struct {
	UsersServiceURL   string
	CatalogServiceURL string
	TimeoutSeconds    int
}

// RateLimitConfig controls the Redis-backed limiter on public auth routes.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DirectoryConfig controls user directory seeding.
type DirectoryConfig struct {
	SeedFile string
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
			Name:                  getEnv("APP_NAME", "edge-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3100"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			RefreshTokenTTLHours:    getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_HOURS", 168),
			RevocationWindowMinutes: getEnvAsInt("AUTH_REVOCATION_WINDOW_MINUTES", 120),
			SweepIntervalMinutes:    getEnvAsInt("AUTH_SWEEP_INTERVAL_MINUTES", 20),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Bus: BusConfig{
			Capacity:  getEnvAsInt("BUS_CAPACITY", 50),
			QueueSize: getEnvAsInt("BUS_QUEUE_SIZE", 256),
		},
		Proxy: ProxyConfig{
			UsersServiceURL:   getEnv("PROXY_USERS_SERVICE_URL", "http://localhost:4001"),
			CatalogServiceURL: getEnv("PROXY_CATALOG_SERVICE_URL", "http://localhost:4002"),
			TimeoutSeconds:    getEnvAsInt("PROXY_TIMEOUT_SECONDS", 10),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Directory: DirectoryConfig{
			SeedFile: os.Getenv("GATEWAY_SEED_FILE"),
		},
	}

	// Serving traffic with a guessable signing key is worse than not starting.
	if cfg.App.Env != "development" && (cfg.Auth.JWTSecret == "" || cfg.Auth.JWTSecret == "dev-secret") {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set when APP_ENV=%s", cfg.App.Env)
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

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
}

// RevocationWindow returns the fallback retention for revoked token ids.
func (a AuthConfig) RevocationWindow() time.Duration {
	return time.Duration(a.RevocationWindowMinutes) * time.Minute
}

// SweepInterval returns how often the revocation registry is swept.
func (a AuthConfig) SweepInterval() time.Duration {
	return time.Duration(a.SweepIntervalMinutes) * time.Minute
}

// UpstreamTimeout returns the outbound proxy timeout.
func (p ProxyConfig) UpstreamTimeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
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
