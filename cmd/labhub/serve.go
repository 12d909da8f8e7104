// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/labhub/labhub/internal/auth"
	"github.com/labhub/labhub/internal/auth/postgres"
	"github.com/labhub/labhub/internal/config"
	"github.com/labhub/labhub/internal/logging"
	"github.com/labhub/labhub/internal/session"
	"github.com/labhub/labhub/internal/store"
	"github.com/labhub/labhub/internal/web"
)

const shutdownTimeout = 10 * time.Second

// shutdownSignals stop serve gracefully.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hub login service",
		Long: `Serve /hub/token-login, /hub/login and /hub/logout, plus the metrics
and health endpoints. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(loadOptions(cmd))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
			defer stop()
			return runServe(ctx, cfg, autoMigrate, nil)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending registry migrations on start")
	return cmd
}

// runServe wires the service and blocks until ctx is done or a server fails.
// If deps is nil, default implementations are used.
func runServe(ctx context.Context, cfg *config.Config, autoMigrate bool, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	deps.setDefaults()

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault("labhub", version, cfg.Log.Format, level)
	logger.Info("starting labhub",
		"environment", cfg.Environment,
		"addr", cfg.HTTP.Addr,
	)

	var ready atomic.Bool
	obs := deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load)
	metrics := obs.Metrics()

	backendPool, err := deps.PoolConnector(ctx, poolConfig(cfg.Backend.DSN, cfg.Backend.Pool), logger)
	if err != nil {
		return oops.With("database", "backend").Wrap(err)
	}
	defer backendPool.Close()

	if autoMigrate {
		if err := deps.SchemaMigrator(cfg.Registry.DSN); err != nil {
			return oops.With("database", "registry").Wrap(err)
		}
	}

	registryPool, err := deps.PoolConnector(ctx, poolConfig(cfg.Registry.DSN, cfg.Registry.Pool), logger)
	if err != nil {
		return oops.With("database", "registry").Wrap(err)
	}
	defer registryPool.Close()

	redisClient, err := deps.RedisConnector(ctx, cfg.Session.RedisURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logger.Warn("error closing redis client", "error", closeErr)
		}
	}()

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}
	users, err := postgres.NewUserStore(backendPool, cfg.Backend.UsersTable)
	if err != nil {
		return err
	}
	validator, err := auth.NewValidator(verifier, users, auth.NewHasher(cfg.Auth.BcryptCost),
		auth.WithLogger(logger),
		auth.WithObserver(metrics),
	)
	if err != nil {
		return err
	}

	registry := postgres.NewRegistryRepository(registryPool)
	provisioner, err := auth.NewProvisioner(registry,
		auth.WithAdminUsers(cfg.Auth.AdminUsers...),
		auth.WithProvisionerLogger(logger),
		auth.WithProvisionerObserver(metrics),
	)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(redisClient, cfg.Session.TTL)
	if err != nil {
		return err
	}
	next, err := web.NewNextPolicy(cfg.HTTP.AllowedNext, cfg.HTTP.SpawnURL)
	if err != nil {
		return err
	}
	handler, err := web.NewHandler(web.Deps{
		Validator:   validator,
		Provisioner: provisioner,
		Users:       registry,
		Sessions:    sessions,
		Next:        next,
		Recorder:    metrics,
		Logger:      logger,
	}, cfg.HTTP.LoginURL, web.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})
	if err != nil {
		return err
	}

	webServer := web.NewServer(cfg.HTTP.Addr, handler, logger)
	webErrs, err := webServer.Start()
	if err != nil {
		return err
	}

	var obsErrs <-chan error
	if cfg.Metrics.Addr != "" {
		obsErrs, err = obs.Start()
		if err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := webServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("failed to stop web server during cleanup", "error", stopErr)
			}
			return err
		}
	}

	ready.Store(true)
	logger.Info("labhub ready", "addr", webServer.Addr(), "metrics_addr", obs.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watchServer(gctx, webErrs, "web") })
	if obsErrs != nil {
		g.Go(func() error { return watchServer(gctx, obsErrs, "observability") })
	}
	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		logger.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(webServer.Stop(stopCtx), obs.Stop(stopCtx))
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// watchServer returns the first serve error of a server, or nil once ctx is
// done or the server stopped cleanly.
func watchServer(ctx context.Context, errs <-chan error, name string) error {
	select {
	case err, ok := <-errs:
		if ok && err != nil {
			return oops.Code("SERVER_FAILED").With("server", name).Wrap(err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

func poolConfig(dsn string, p config.PoolConfig) store.PoolConfig {
	return store.PoolConfig{
		DSN:      dsn,
		MinConns: p.MinConns,
		MaxConns: p.MaxConns,
	}
}
