package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	pkgconfig "github.com/atlasplast/brandadmin/pkg/config"
)

// Config holds all configuration for the admin server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`

	// Upstream brand backend
	UpstreamBaseURL        string        `env:"UPSTREAM_BASE_URL,required"`
	UpstreamTimeout        time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	UpstreamCircuitBreaker bool          `env:"UPSTREAM_CIRCUIT_BREAKER" envDefault:"false"`

	// Proxy
	ProxyErrorDetails   bool  `env:"PROXY_ERROR_DETAILS" envDefault:"false"`
	ProxyMaxUploadBytes int64 `env:"PROXY_MAX_UPLOAD_BYTES" envDefault:"33554432"`

	// Presentation layer. Empty means http://localhost:<HTTP_PORT>.
	AdminAPIBaseURL string `env:"ADMIN_API_BASE_URL"`

	// Empty disables JWT auth on /api.
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	// Rate limiting
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"200"`

	// Delete guard
	IdempotencyBackend string        `env:"IDEMPOTENCY_BACKEND" envDefault:"memory"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"10m"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,::1/128"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load admin config: %w", err)
	}
	if cfg.AdminAPIBaseURL == "" {
		cfg.AdminAPIBaseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if err := validateHTTPURL("UPSTREAM_BASE_URL", c.UpstreamBaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("ADMIN_API_BASE_URL", c.AdminAPIBaseURL); err != nil {
		return err
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	if c.ProxyMaxUploadBytes <= 0 {
		return fmt.Errorf("PROXY_MAX_UPLOAD_BYTES must be positive, got %d", c.ProxyMaxUploadBytes)
	}
	switch c.IdempotencyBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("IDEMPOTENCY_BACKEND must be memory or redis, got %q", c.IdempotencyBackend)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}
	for _, cidr := range c.MetricsAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("METRICS_ALLOWED_CIDRS: invalid CIDR %q", cidr)
		}
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// DevBackendConfig configures cmd/devbackend.
type DevBackendConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"DEVBACKEND_HTTP_PORT" envDefault:"5000"`
}

// LoadDevBackend reads the dev backend configuration.
func LoadDevBackend() (*DevBackendConfig, error) {
	cfg := &DevBackendConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load devbackend config: %w", err)
	}
	return cfg, nil
}

// SeedConfig configures cmd/seed.
type SeedConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// BaseURL is any origin serving /api/brands: the admin server or the
	// upstream itself.
	BaseURL        string `env:"SEED_BASE_URL" envDefault:"http://localhost:8080"`
	Count          int    `env:"SEED_COUNT" envDefault:"25"`
	RandomSeed     int64  `env:"SEED_RANDOM_SEED" envDefault:"42"`
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`
}

// LoadSeed reads the seed command configuration.
func LoadSeed() (*SeedConfig, error) {
	cfg := &SeedConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load seed config: %w", err)
	}
	if err := validateHTTPURL("SEED_BASE_URL", cfg.BaseURL); err != nil {
		return nil, err
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("SEED_COUNT must be positive, got %d", cfg.Count)
	}
	return cfg, nil
}
