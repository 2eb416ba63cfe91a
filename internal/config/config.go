package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/Mehidi-hridoy/dokan/pkg/config"
)

// Recognized search engine backends.
const (
	EngineMemory        = "memory"
	EngineElasticsearch = "elasticsearch"
)

// Config holds all configuration for the dokan store service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8004"`

	// Redis (session carts, wishlists, notices)
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL (catalog, newsletter subscribers)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"dokan"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"dokan_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"dokan_store"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Connection pool tuning
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Queries slower than this are logged. Zero disables slow query logging.
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Cache-Control max-age in seconds for public catalog reads. Zero
	// disables the header.
	CacheMaxAgeSecs int `env:"CACHE_MAX_AGE_SECS" envDefault:"60"`

	// Session collection TTL in hours (default: 7 days). Applies to both
	// carts and wishlists; abandoned session state expires on its own.
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// Notice lifetime in milliseconds. Notices auto-expire after this.
	NoticeTTLMs int `env:"NOTICE_TTL_MS" envDefault:"3000"`

	// Trigger loading-state reset delay in milliseconds.
	TriggerResetMs int `env:"TRIGGER_RESET_MS" envDefault:"1000"`

	// Newsletter provider acknowledgement latency in milliseconds
	// (simulated provider only).
	NewsletterAckMs int `env:"NEWSLETTER_ACK_MS" envDefault:"1000"`

	// NewsletterProviderURL switches the newsletter acknowledgement from the
	// simulated provider to a real HTTP endpoint when set.
	NewsletterProviderURL string `env:"NEWSLETTER_PROVIDER_URL" envDefault:""`

	// Scroll reveal threshold in pixels.
	RevealThreshold float64 `env:"REVEAL_THRESHOLD_PX" envDefault:"100"`

	// Search engine selection (memory or elasticsearch)
	SearchEngine       string `env:"SEARCH_ENGINE" envDefault:"memory"`
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"dokan_products"`

	// Admin credentials. The password is stored as a bcrypt hash; the
	// plaintext never appears in configuration.
	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH" envDefault:""`

	// JWT
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessTTLMin int    `env:"JWT_ACCESS_TTL_MIN" envDefault:"60"`

	// Rate limiting for trigger endpoints (per client IP).
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof access control. Debug endpoints are served only to these CIDRs.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative: %d", c.CartTTL)
	}
	if c.NoticeTTLMs <= 0 {
		return fmt.Errorf("NOTICE_TTL_MS must be positive: %d", c.NoticeTTLMs)
	}
	if c.SearchEngine != EngineMemory && c.SearchEngine != EngineElasticsearch {
		return fmt.Errorf("invalid SEARCH_ENGINE %q, must be %q or %q", c.SearchEngine, EngineMemory, EngineElasticsearch)
	}
	if c.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be at least 1: %d", c.RateLimitRPS)
	}
	if c.RateLimitBurst < c.RateLimitRPS {
		return fmt.Errorf("RATE_LIMIT_BURST (%d) must be at least RATE_LIMIT_RPS (%d)", c.RateLimitBurst, c.RateLimitRPS)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}

	// In non-development environments, require explicitly set secrets.
	if c.Environment != "development" {
		if c.JWTSecret == "change-this-to-a-secure-secret" {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be set in %q mode", c.Environment)
		}
	}

	return nil
}

// CartTTLDuration returns the session collection TTL as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// NoticeTTL returns the notice lifetime as a duration.
func (c *Config) NoticeTTL() time.Duration {
	return time.Duration(c.NoticeTTLMs) * time.Millisecond
}

// TriggerReset returns the trigger reset delay as a duration.
func (c *Config) TriggerReset() time.Duration {
	return time.Duration(c.TriggerResetMs) * time.Millisecond
}

// NewsletterAck returns the simulated provider latency as a duration.
func (c *Config) NewsletterAck() time.Duration {
	return time.Duration(c.NewsletterAckMs) * time.Millisecond
}

// JWTAccessTTL returns the access token lifetime as a duration.
func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMin) * time.Minute
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
