package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Portal  PortalConfig
	Backend BackendConfig
	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig

	HTTP HTTPConfig

	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

// HTTPConfig covers browser-facing concerns of the API.
type HTTPConfig struct {
	CORSOrigins []string `env:"CORS_ORIGINS,    default=http://localhost:5173"`
	AuthRate    float64  `env:"AUTH_RATE_LIMIT, default=5"`
}

// PortalConfig signs the portal token handed to the browser.
type PortalConfig struct {
	Secret   string        `env:"PORTAL_SECRET"`
	TokenTTL time.Duration `env:"PORTAL_TOKEN_TTL, default=24h"`
}

type BackendConfig struct {
	URL     string        `env:"BACKEND_URL,     default=http://localhost:3000/api"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT, default=15s"`
}

type SessionConfig struct {
	TTL    time.Duration `env:"SESSION_TTL, default=168h"`
	TabTTL time.Duration `env:"TAB_TTL,     default=30m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=atreo"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the process runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

func (c *Config) validate() error {
	if c.Portal.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("PORTAL_SECRET is required outside development")
		}
		c.Portal.Secret = "atreo-dev-secret"
	}
	if c.Portal.TokenTTL <= 0 || c.Session.TTL <= 0 || c.Session.TabTTL <= 0 {
		return errors.New("token, session and tab TTLs must be positive")
	}
	if c.Backend.URL == "" {
		return errors.New("BACKEND_URL must not be empty")
	}
	return nil
}
