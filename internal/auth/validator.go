// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/labhub/labhub/pkg/errutil"
)

// Validator authenticates login attempts: token first, then password.
type Validator struct {
	tokens    TokenVerifier
	users     UserStore
	hasher    PasswordHasher
	logger    *slog.Logger
	observer  Observer
	dummyHash string
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLogger sets the audit logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = logger }
}

// WithObserver sets the outcome observer.
func WithObserver(observer Observer) ValidatorOption {
	return func(v *Validator) { v.observer = observer }
}

// NewValidator creates a Validator. It hashes a random password once so that
// checks for unknown or disabled users cost the same as real comparisons.
func NewValidator(tokens TokenVerifier, users UserStore, hasher PasswordHasher, opts ...ValidatorOption) (*Validator, error) {
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("token verifier is required")
	}
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("user store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}

	v := &Validator{
		tokens:   tokens,
		users:    users,
		hasher:   hasher,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger cannot be nil")
	}
	if v.observer == nil {
		v.observer = nopObserver{}
	}

	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").With("operation", "seed dummy hash").Wrap(err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(seed))
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").With("operation", "compute dummy hash").Wrap(err)
	}
	v.dummyHash = dummy

	return v, nil
}

// Authenticate returns the identity for the attempt or a coded failure.
//
// A non-empty token is verified first. Any token failure, including a valid
// token without a username, is logged and falls through to the password
// path, even when no password was supplied.
func (v *Validator) Authenticate(ctx context.Context, attempt LoginAttempt) (Identity, error) {
	v.logger.LogAttrs(ctx, slog.LevelDebug, "login attempt", slog.Any("attempt", attempt))

	if attempt.Token != "" {
		identity, err := v.authenticateToken(ctx, attempt.Token)
		if err == nil {
			return identity, nil
		}
	}
	return v.authenticatePassword(ctx, attempt.Username, attempt.Password)
}

func (v *Validator) authenticateToken(ctx context.Context, token string) (Identity, error) {
	fingerprint := TokenFingerprint(token)

	payload, err := v.tokens.Verify(token)
	if err != nil {
		v.observer.AttemptFinished(MethodToken, ReasonTokenInvalid)
		v.logger.LogAttrs(ctx, slog.LevelWarn, "authentication failed",
			slog.String("method", string(MethodToken)),
			slog.String("reason", ReasonTokenInvalid.Label()),
			slog.String("token_fp", fingerprint),
			slog.String("error", err.Error()),
		)
		return Identity{}, err
	}

	v.observer.AttemptFinished(MethodToken, ReasonNone)
	v.logger.LogAttrs(ctx, slog.LevelInfo, "authenticated",
		slog.String("method", string(MethodToken)),
		slog.String("username", payload.Username),
		slog.String("token_fp", fingerprint),
	)
	return Identity{Username: payload.Username, Method: MethodToken}, nil
}

func (v *Validator) authenticatePassword(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return v.reject(ctx, ReasonMissingCredentials, username, "username and password are required")
	}

	record, err := v.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		v.burn(password)
		return v.reject(ctx, ReasonUnknownUser, username, "invalid username or password")
	case err != nil:
		errutil.LogError(ctx, v.logger, "backend user lookup failed", err)
		return v.reject(ctx, ReasonBackendError, username, "credential backend unavailable")
	case !record.IsActive:
		// The stored hash of a disabled account is never compared.
		v.burn(password)
		return v.reject(ctx, ReasonAccountDisabled, username, "account is disabled")
	}

	ok, err := v.hasher.Verify(password, record.PasswordHash)
	if err != nil {
		errutil.LogError(ctx, v.logger, "stored password hash unusable", err)
		return v.reject(ctx, ReasonBackendError, username, "credential backend unavailable")
	}
	if !ok {
		return v.reject(ctx, ReasonBadPassword, username, "invalid username or password")
	}

	v.observer.AttemptFinished(MethodPassword, ReasonNone)
	v.logger.LogAttrs(ctx, slog.LevelInfo, "authenticated",
		slog.String("method", string(MethodPassword)),
		slog.String("username", record.Username),
	)
	return Identity{Username: record.Username, Method: MethodPassword}, nil
}

// burn runs a comparison against the dummy hash so every password-path
// rejection spends one hash verification.
func (v *Validator) burn(password string) {
	_, _ = v.hasher.Verify(password, v.dummyHash) //nolint:errcheck // timing only
}

func (v *Validator) reject(ctx context.Context, reason Reason, username, msg string) (Identity, error) {
	v.observer.AttemptFinished(MethodPassword, reason)
	v.logger.LogAttrs(ctx, slog.LevelWarn, "authentication failed",
		slog.String("method", string(MethodPassword)),
		slog.String("reason", reason.Label()),
		slog.String("username", username),
	)
	return Identity{}, failure(reason, MethodPassword, username, msg)
}
