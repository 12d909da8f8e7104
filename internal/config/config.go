// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

// Package config loads and validates hub configuration.
//
// Sources are applied in order, later ones winning: built-in defaults, the
// YAML file, a .env file, LABHUB_* environment variables, then command-line
// flags that were set explicitly.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// PlaceholderSecret is the sample secret shipped in example configuration.
// It is rejected outside development.
const PlaceholderSecret = "your-super-secret-jwt-key-change-this"

// Config is the complete hub configuration.
type Config struct {
	Environment string         `koanf:"environment" env:"ENVIRONMENT" jsonschema:"enum=development,enum=staging,enum=production"`
	Log         LogConfig      `koanf:"log" envPrefix:"LOG_"`
	HTTP        HTTPConfig     `koanf:"http" envPrefix:"HTTP_"`
	Metrics     MetricsConfig  `koanf:"metrics" envPrefix:"METRICS_"`
	Auth        AuthConfig     `koanf:"auth"`
	Backend     BackendConfig  `koanf:"backend" envPrefix:"BACKEND_"`
	Registry    RegistryConfig `koanf:"registry" envPrefix:"REGISTRY_"`
	Session     SessionConfig  `koanf:"session" envPrefix:"SESSION_"`
	Spawner     SpawnerConfig  `koanf:"spawner" envPrefix:"SPAWNER_"`
	Roles       []Role         `koanf:"roles"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Format string `koanf:"format" env:"FORMAT" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" env:"LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// HTTPConfig controls the login surface.
type HTTPConfig struct {
	Addr        string   `koanf:"addr" env:"ADDR"`
	PublicURL   string   `koanf:"public_url" env:"PUBLIC_URL" jsonschema:"description=External base URL used in generated login links"`
	LoginURL    string   `koanf:"login_url" env:"LOGIN_URL"`
	SpawnURL    string   `koanf:"spawn_url" env:"SPAWN_URL"`
	AllowedNext []string `koanf:"allowed_next" env:"ALLOWED_NEXT" jsonschema:"description=Glob patterns a next path must match"`
}

// MetricsConfig controls the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" env:"ADDR"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `koanf:"token_ttl" env:"TOKEN_TTL"`
	AdminUsers []string      `koanf:"admin_users" env:"ADMIN_USERS"`
	BcryptCost int           `koanf:"bcrypt_cost" env:"BCRYPT_COST" jsonschema:"minimum=4,maximum=31"`
}

// PoolConfig sizes a database pool.
type PoolConfig struct {
	MinConns int32 `koanf:"min_conns" env:"MIN_CONNS" jsonschema:"minimum=0"`
	MaxConns int32 `koanf:"max_conns" env:"MAX_CONNS" jsonschema:"minimum=1"`
}

// BackendConfig points at the credential store owned by the backend service.
type BackendConfig struct {
	DSN        string     `koanf:"dsn" env:"DSN"`
	UsersTable string     `koanf:"users_table" env:"USERS_TABLE"`
	Pool       PoolConfig `koanf:"pool" envPrefix:"POOL_"`
}

// RegistryConfig points at the hub's own identity database.
type RegistryConfig struct {
	DSN  string     `koanf:"dsn" env:"DSN"`
	Pool PoolConfig `koanf:"pool" envPrefix:"POOL_"`
}

// SessionConfig controls hub sessions.
type SessionConfig struct {
	RedisURL     string        `koanf:"redis_url" env:"REDIS_URL"`
	TTL          time.Duration `koanf:"ttl" env:"TTL"`
	CookieName   string        `koanf:"cookie_name" env:"COOKIE_NAME"`
	CookieSecure bool          `koanf:"cookie_secure" env:"COOKIE_SECURE"`
}

// SpawnerConfig carries limits for the external container spawner. The hub
// validates them but does not act on them.
type SpawnerConfig struct {
	Image                string        `koanf:"image" env:"IMAGE"`
	MemLimit             string        `koanf:"mem_limit" env:"MEM_LIMIT" jsonschema:"pattern=^[0-9]+[KMGT]?$"`
	CPULimit             float64       `koanf:"cpu_limit" env:"CPU_LIMIT" jsonschema:"minimum=0"`
	ConcurrentSpawnLimit int           `koanf:"concurrent_spawn_limit" env:"CONCURRENT_SPAWN_LIMIT" jsonschema:"minimum=0"`
	ActiveServerLimit    int           `koanf:"active_server_limit" env:"ACTIVE_SERVER_LIMIT" jsonschema:"minimum=0,description=0 means unlimited"`
	IdleTimeout          time.Duration `koanf:"idle_timeout" env:"IDLE_TIMEOUT"`
	CullEvery            time.Duration `koanf:"cull_every" env:"CULL_EVERY"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: EnvProduction,
		Log:         LogConfig{Format: "json", Level: "info"},
		HTTP: HTTPConfig{
			Addr:        ":8000",
			LoginURL:    "/hub/login",
			SpawnURL:    "/hub/spawn",
			AllowedNext: []string{"/hub/**", "/user/**"},
		},
		Metrics: MetricsConfig{Addr: ":9100"},
		Auth: AuthConfig{
			TokenTTL:   5 * time.Minute,
			AdminUsers: []string{"admin"},
			BcryptCost: 10,
		},
		Backend: BackendConfig{
			UsersTable: "backend.users",
			Pool:       PoolConfig{MinConns: 1, MaxConns: 10},
		},
		Registry: RegistryConfig{
			Pool: PoolConfig{MinConns: 1, MaxConns: 10},
		},
		Session: SessionConfig{
			RedisURL:   "redis://localhost:6379/0",
			TTL:        24 * time.Hour,
			CookieName: "labhub-session",
		},
		Spawner: SpawnerConfig{
			Image:                "jupyter/scipy-notebook:latest",
			MemLimit:             "2G",
			CPULimit:             1.0,
			ConcurrentSpawnLimit: 10,
			ActiveServerLimit:    50,
			IdleTimeout:          time.Hour,
			CullEvery:            10 * time.Minute,
		},
		Roles: DefaultRoles(),
	}
}

// IsDevelopment reports whether development-only relaxations apply.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Validate checks the configuration for values the hub cannot run with.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return invalid("environment", c.Environment, "unknown environment")
	}

	if err := c.ValidateSecret(); err != nil {
		return err
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", c.Auth.TokenTTL, "must be positive")
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", c.Log.Format, "must be json or text")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	for key, path := range map[string]string{"http.login_url": c.HTTP.LoginURL, "http.spawn_url": c.HTTP.SpawnURL} {
		if !strings.HasPrefix(path, "/") {
			return invalid(key, path, "must be an absolute path")
		}
	}
	for _, pattern := range c.HTTP.AllowedNext {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return oops.Code("CONFIG_INVALID").With("key", "http.allowed_next").With("value", pattern).Wrap(err)
		}
	}

	if c.Backend.DSN == "" {
		return invalid("backend.dsn", "", "is required")
	}
	if c.Registry.DSN == "" {
		return invalid("registry.dsn", "", "is required")
	}
	if err := c.Backend.Pool.validate("backend.pool"); err != nil {
		return err
	}
	if err := c.Registry.Pool.validate("registry.pool"); err != nil {
		return err
	}

	if c.Session.TTL <= 0 {
		return invalid("session.ttl", c.Session.TTL, "must be positive")
	}
	if c.Session.CookieName == "" {
		return invalid("session.cookie_name", "", "is required")
	}

	if err := c.Spawner.validate(); err != nil {
		return err
	}
	return ValidateRoles(c.Roles)
}

// ValidateSecret rejects an empty or placeholder token secret outside development.
func (c *Config) ValidateSecret() error {
	if c.IsDevelopment() {
		return nil
	}
	switch c.Auth.JWTSecret {
	case "":
		return invalid("auth.jwt_secret", "", "is required")
	case PlaceholderSecret:
		return invalid("auth.jwt_secret", "[placeholder]", "placeholder secret is only allowed in development")
	}
	return nil
}

func (p PoolConfig) validate(key string) error {
	if p.MaxConns < 1 {
		return invalid(key+".max_conns", p.MaxConns, "must be at least 1")
	}
	if p.MinConns < 0 || p.MinConns > p.MaxConns {
		return invalid(key+".min_conns", p.MinConns, "must be between 0 and max_conns")
	}
	return nil
}

func (s SpawnerConfig) validate() error {
	if s.ConcurrentSpawnLimit < 0 {
		return invalid("spawner.concurrent_spawn_limit", s.ConcurrentSpawnLimit, "must not be negative")
	}
	if s.ActiveServerLimit < 0 {
		return invalid("spawner.active_server_limit", s.ActiveServerLimit, "must not be negative")
	}
	if s.CPULimit < 0 {
		return invalid("spawner.cpu_limit", s.CPULimit, "must not be negative")
	}
	if s.IdleTimeout < 0 || s.CullEvery < 0 {
		return invalid("spawner.idle_timeout", s.IdleTimeout, "durations must not be negative")
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, oops.Code("CONFIG_INVALID").With("key", "log.level").With("value", level).Wrap(err)
	}
	return l, nil
}

func invalid(key string, value any, msg string) error {
	return oops.Code("CONFIG_INVALID").With("key", key).With("value", value).Errorf("%s %s", key, msg)
}
