// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labhub/labhub/pkg/errutil"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Auth.JWTSecret = "a-real-secret"
	cfg.Backend.DSN = "postgres://backend@localhost/backend"
	cfg.Registry.DSN = "postgres://hub@localhost/hub"
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, int32(1), cfg.Backend.Pool.MinConns)
	assert.Equal(t, int32(10), cfg.Backend.Pool.MaxConns)
	assert.Equal(t, "backend.users", cfg.Backend.UsersTable)
	assert.Equal(t, []string{"admin"}, cfg.Auth.AdminUsers)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Spawner.ConcurrentSpawnLimit)
	assert.Equal(t, 50, cfg.Spawner.ActiveServerLimit)
	assert.Equal(t, "/hub/spawn", cfg.HTTP.SpawnURL)
	assert.Len(t, cfg.Roles, 2)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantKey string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantKey: "auth.jwt_secret"},
		{name: "placeholder secret", mutate: func(c *Config) { c.Auth.JWTSecret = PlaceholderSecret }, wantKey: "auth.jwt_secret"},
		{name: "placeholder allowed in development", mutate: func(c *Config) {
			c.Environment = EnvDevelopment
			c.Auth.JWTSecret = PlaceholderSecret
		}},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "qa" }, wantKey: "environment"},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantKey: "auth.token_ttl"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantKey: "log.format"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantKey: "log.level"},
		{name: "relative spawn url", mutate: func(c *Config) { c.HTTP.SpawnURL = "spawn" }, wantKey: "http.spawn_url"},
		{name: "bad glob", mutate: func(c *Config) { c.HTTP.AllowedNext = []string{"/hub/[a"} }, wantKey: "http.allowed_next"},
		{name: "missing backend dsn", mutate: func(c *Config) { c.Backend.DSN = "" }, wantKey: "backend.dsn"},
		{name: "missing registry dsn", mutate: func(c *Config) { c.Registry.DSN = "" }, wantKey: "registry.dsn"},
		{name: "min above max", mutate: func(c *Config) { c.Backend.Pool.MinConns = 20 }, wantKey: "backend.pool.min_conns"},
		{name: "zero max", mutate: func(c *Config) { c.Registry.Pool.MaxConns = 0 }, wantKey: "registry.pool.max_conns"},
		{name: "zero session ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, wantKey: "session.ttl"},
		{name: "negative spawn limit", mutate: func(c *Config) { c.Spawner.ConcurrentSpawnLimit = -1 }, wantKey: "spawner.concurrent_spawn_limit"},
		{name: "unlimited active servers", mutate: func(c *Config) { c.Spawner.ActiveServerLimit = 0 }},
		{name: "unknown scope", mutate: func(c *Config) { c.Roles[0].Scopes = append(c.Roles[0].Scopes, "root") }, wantKey: "roles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantKey == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "key", tt.wantKey)
		})
	}
}

func TestValidate_SecretNeverInError(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = PlaceholderSecret
	err := cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), PlaceholderSecret)
}

func TestValidateRoles(t *testing.T) {
	require.NoError(t, ValidateRoles(DefaultRoles()))

	err := ValidateRoles([]Role{{Name: "a", Scopes: []string{"servers"}}, {Name: "a", Scopes: []string{"servers"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate role")

	err = ValidateRoles([]Role{{Name: "empty"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scopes")

	err = ValidateRoles([]Role{{Scopes: []string{"servers"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	l, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("chatty")
	require.Error(t, err)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := writeFile(t, "labhub.yaml", `
environment: staging
log:
  format: text
http:
  addr: ":7000"
  allowed_next: ["/hub/**"]
auth:
  jwt_secret: from-file
  token_ttl: 2m
  admin_users: [root, ops]
backend:
  dsn: postgres://file@db/backend
  users_table: accounts.users
  pool:
    max_conns: 4
registry:
  dsn: postgres://file@db/hub
spawner:
  active_server_limit: 0
`)
	t.Setenv("LABHUB_JWT_SECRET", "from-env")
	t.Setenv("LABHUB_SESSION_TTL", "90m")
	t.Setenv("LABHUB_BACKEND_POOL_MIN_CONNS", "2")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--listen", ":9000"}))

	cfg, err := Load(LoadOptions{File: path, EnvFile: writeFile(t, "empty.env", ""), Flags: fs})
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.Environment)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset flag keeps file/default value")
	assert.Equal(t, ":9000", cfg.HTTP.Addr, "flag beats file")
	assert.Equal(t, []string{"/hub/**"}, cfg.HTTP.AllowedNext)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret, "env beats file")
	assert.Equal(t, 2*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"root", "ops"}, cfg.Auth.AdminUsers)
	assert.Equal(t, "accounts.users", cfg.Backend.UsersTable)
	assert.Equal(t, int32(2), cfg.Backend.Pool.MinConns)
	assert.Equal(t, int32(4), cfg.Backend.Pool.MaxConns)
	assert.Equal(t, int32(10), cfg.Registry.Pool.MaxConns, "untouched defaults survive")
	assert.Equal(t, 90*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 0, cfg.Spawner.ActiveServerLimit)
	assert.Equal(t, 10, cfg.Spawner.ConcurrentSpawnLimit)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := writeFile(t, "test.env", "LABHUB_ENVIRONMENT=development\nLABHUB_BACKEND_DSN=postgres://dotenv@db/b\nLABHUB_REGISTRY_DSN=postgres://dotenv@db/h\n")
	// Variables godotenv sets outlive the test; register them for cleanup.
	t.Setenv("LABHUB_ENVIRONMENT", "")
	t.Setenv("LABHUB_BACKEND_DSN", "")
	t.Setenv("LABHUB_REGISTRY_DSN", "")
	os.Unsetenv("LABHUB_ENVIRONMENT")
	os.Unsetenv("LABHUB_BACKEND_DSN")
	os.Unsetenv("LABHUB_REGISTRY_DSN")

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres://dotenv@db/b", cfg.Backend.DSN)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")})
		errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
	})

	t.Run("missing explicit env file", func(t *testing.T) {
		_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
		errutil.AssertErrorCode(t, err, "CONFIG_READ_FAILED")
	})

	t.Run("unknown key rejected by schema", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "auth:\n  jwt_secrett: typo\n")
		_, err := Load(LoadOptions{File: path})
		errutil.AssertErrorCode(t, err, "CONFIG_SCHEMA_INVALID")
	})

	t.Run("invalid after merge", func(t *testing.T) {
		path := writeFile(t, "weak.yaml", "auth:\n  jwt_secret: "+PlaceholderSecret+"\n")
		_, err := Load(LoadOptions{File: path, EnvFile: writeFile(t, "empty.env", "")})
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestLoad_RolesReplaceDefaults(t *testing.T) {
	path := writeFile(t, "roles.yaml", `
environment: development
backend:
  dsn: postgres://b
registry:
  dsn: postgres://h
roles:
  - name: reader
    scopes: [read:users]
`)
	cfg, err := Load(LoadOptions{File: path, EnvFile: writeFile(t, "empty.env", "")})
	require.NoError(t, err)
	require.Len(t, cfg.Roles, 1)
	assert.Equal(t, Role{Name: "reader", Scopes: []string{"read:users"}}, cfg.Roles[0])
}
