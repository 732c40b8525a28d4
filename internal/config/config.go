// Package config loads server settings from the environment.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// minSecretLength matches auth.NewTokenService.
const minSecretLength = 16

type Config struct {
	Port      int    `env:"PORT,       default=8080"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"`

	Store StoreConfig
	Auth  AuthConfig
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=sqlite"`
	DBPath      string `env:"DB_PATH,      default=data/speakout.db"`
	RedisAddr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	RedisDB     int    `env:"REDIS_DB,     default=0"`
	RedisPrefix string `env:"REDIS_PREFIX, default=speakout:"`
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET, required"`
	SessionTTL   time.Duration `env:"SESSION_TTL,   default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
	BcryptCost   int           `env:"BCRYPT_COST,   default=12"`
}

// Load reads the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFromMap reads settings from m instead of the environment.
func LoadFromMap(ctx context.Context, m map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(m))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %s or %s, got %q", DriverSQLite, DriverRedis, c.Store.Driver)
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive, got %s", c.Auth.SessionTTL)
	}
	return nil
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the process logger: text or JSON to w at the configured
// level. Values are assumed to have passed Validate.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
