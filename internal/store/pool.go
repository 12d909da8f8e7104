// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig sizes a connection pool.
type PoolConfig struct {
	DSN      string
	MinConns int32
	MaxConns int32

	// ConnectAttempts bounds the start-up ping. Zero means 5.
	ConnectAttempts uint64
	// ConnectBackoff is the first retry delay, doubled each attempt. Zero means 200ms.
	ConnectBackoff time.Duration
}

// pinger is the check Connect retries. *pgxpool.Pool satisfies it.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool and waits until the database answers a ping.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse dsn").Wrap(err)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if poolCfg.MinConns > poolCfg.MaxConns {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("min_conns", poolCfg.MinConns).
			With("max_conns", poolCfg.MaxConns).
			Errorf("min_conns exceeds max_conns")
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitReady(ctx, pool, cfg, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, db pinger, cfg PoolConfig, logger *slog.Logger) error {
	attempts := cfg.ConnectAttempts
	if attempts == 0 {
		attempts = 5
	}
	backoffBase := cfg.ConnectBackoff
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoffBase))

	var try int
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		try++
		if err := db.Ping(ctx); err != nil {
			logger.Warn("database not ready", "attempt", try, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "ping").With("attempts", try).Wrap(err)
	}
	return nil
}
