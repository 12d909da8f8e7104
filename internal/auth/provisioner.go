// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/labhub/labhub/pkg/errutil"
)

// Provisioner resolves token-authenticated usernames to registry users,
// creating a minimal record on first login.
type Provisioner struct {
	registry Registry
	admins   map[string]struct{}
	logger   *slog.Logger
	observer Observer
	inflight singleflight.Group
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithAdminUsers marks the named users as admins when they are first created.
func WithAdminUsers(names ...string) ProvisionerOption {
	return func(p *Provisioner) {
		for _, name := range names {
			p.admins[name] = struct{}{}
		}
	}
}

// WithProvisionerLogger sets the logger. Defaults to slog.Default().
func WithProvisionerLogger(logger *slog.Logger) ProvisionerOption {
	return func(p *Provisioner) { p.logger = logger }
}

// WithProvisionerObserver sets the outcome observer.
func WithProvisionerObserver(observer Observer) ProvisionerOption {
	return func(p *Provisioner) { p.observer = observer }
}

// NewProvisioner creates a Provisioner backed by registry.
func NewProvisioner(registry Registry, opts ...ProvisionerOption) (*Provisioner, error) {
	if registry == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("registry is required")
	}
	p := &Provisioner{
		registry: registry,
		admins:   make(map[string]struct{}),
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p, nil
}

// ResolveOrCreate returns the registry user for username, creating it if it
// does not exist yet. Concurrent calls for the same name share one lookup
// within this process; across processes the registry's unique constraint
// decides, and the loser returns the winner's record.
//
// The shared lookup is detached from any single caller's cancellation. Each
// caller stops waiting when its own ctx is done.
//
// A name the registry cannot hold is reported as ReasonInvalidUsername. Any
// persistence failure is reported as ReasonBackendError.
func (p *Provisioner) ResolveOrCreate(ctx context.Context, username string) (*User, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := p.inflight.DoChan(username, func() (any, error) {
		return p.resolveOrCreate(flightCtx, username)
	})

	select {
	case <-ctx.Done():
		return nil, p.backendFailure(ctx, username, "provisioning abandoned", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight each get their own copy.
		return res.Val.(*User).Clone(), nil
	}
}

func (p *Provisioner) resolveOrCreate(ctx context.Context, username string) (*User, error) {
	existing, err := p.registry.GetByName(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, p.backendFailure(ctx, username, "registry lookup failed", err)
	}

	_, admin := p.admins[username]
	user, err := NewUser(username, admin)
	if err != nil {
		p.logger.LogAttrs(ctx, slog.LevelWarn, "provisioning rejected",
			slog.String("method", string(MethodToken)),
			slog.String("reason", ReasonInvalidUsername.Label()),
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, failure(ReasonInvalidUsername, MethodToken, username, "username cannot be registered")
	}

	err = p.registry.Create(ctx, user)
	if errors.Is(err, ErrAlreadyExists) {
		winner, getErr := p.registry.GetByName(ctx, username)
		if getErr != nil {
			return nil, p.backendFailure(ctx, username, "registry lookup after conflict failed", getErr)
		}
		p.logger.LogAttrs(ctx, slog.LevelDebug, "user created concurrently",
			slog.String("username", username),
		)
		return winner, nil
	}
	if err != nil {
		return nil, p.backendFailure(ctx, username, "registry create failed", err)
	}

	p.observer.UserProvisioned()
	p.logger.LogAttrs(ctx, slog.LevelInfo, "provisioned user",
		slog.String("username", user.Name),
		slog.String("user_id", user.ID.String()),
		slog.Bool("admin", user.Admin),
	)
	return user, nil
}

func (p *Provisioner) backendFailure(ctx context.Context, username, msg string, err error) error {
	errutil.LogError(ctx, p.logger, msg, err)
	return oops.Code(string(ReasonBackendError)).
		With("username", username).
		Errorf("identity registry unavailable")
}
