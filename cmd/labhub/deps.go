// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/labhub/labhub/internal/auth/postgres"
	"github.com/labhub/labhub/internal/observability"
	"github.com/labhub/labhub/internal/session"
	"github.com/labhub/labhub/internal/store"
)

// Pool is a database pool the repositories can run on.
type Pool interface {
	postgres.DB
	Close()
}

// RedisClient is the session store client plus Close.
type RedisClient interface {
	session.Client
	Close() error
}

// ObservabilityServer is the metrics and health server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolConnector opens a database pool.
	// Default: store.Connect
	PoolConnector func(ctx context.Context, cfg store.PoolConfig, logger *slog.Logger) (Pool, error)

	// RedisConnector opens the session Redis client.
	// Default: session.Connect
	RedisConnector func(ctx context.Context, url string) (RedisClient, error)

	// SchemaMigrator brings the registry schema up to date.
	// Default: store.NewMigrator(dsn).Up()
	SchemaMigrator func(dsn string) error

	// ObservabilityServerFactory creates the metrics server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker) ObservabilityServer
}

func (d *ServeDeps) setDefaults() {
	if d.PoolConnector == nil {
		d.PoolConnector = func(ctx context.Context, cfg store.PoolConfig, logger *slog.Logger) (Pool, error) {
			return store.Connect(ctx, cfg, logger)
		}
	}
	if d.RedisConnector == nil {
		d.RedisConnector = func(ctx context.Context, url string) (RedisClient, error) {
			return session.Connect(ctx, url)
		}
	}
	if d.SchemaMigrator == nil {
		d.SchemaMigrator = migrateUp
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readiness)
		}
	}
}

func migrateUp(dsn string) (err error) {
	m, err := store.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}
