// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

// Package session keeps hub sessions in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/labhub/labhub/internal/auth"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "labhub:session:"

// Client is the subset of redis.Cmdable the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store implements auth.SessionAuthority. Sessions are stored as JSON under
// the SHA-256 of their token; the plaintext token only lives in the cookie.
type Store struct {
	client Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewStore creates a Store whose sessions expire after ttl.
// A non-positive ttl uses auth.SessionTokenExpiry.
func NewStore(client Client, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, oops.Code("SESSION_INVALID_CONFIG").Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = auth.SessionTokenExpiry
	}
	return &Store{client: client, ttl: ttl, prefix: DefaultKeyPrefix, now: time.Now}, nil
}

// TTL returns the session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(hash string) string {
	return s.prefix + hash
}

// Issue creates a session for user.
func (s *Store) Issue(ctx context.Context, user *auth.User) (string, *auth.Session, error) {
	token, hash, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, err
	}

	sess, err := auth.NewSession(user, hash, s.now().Add(s.ttl))
	if err != nil {
		return "", nil, err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", nil, oops.Code("SESSION_STORE_FAILED").With("operation", "marshal session").Wrap(err)
	}
	if err := s.client.Set(ctx, s.key(hash), data, s.ttl).Err(); err != nil {
		return "", nil, oops.Code("SESSION_STORE_FAILED").
			With("operation", "store session").
			With("username", user.Name).
			Wrap(err)
	}
	return token, sess, nil
}

// Validate returns the live session for token.
func (s *Store) Validate(ctx context.Context, token string) (*auth.Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	hash := auth.HashSessionToken(token)

	data, err := s.client.Get(ctx, s.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").Wrap(err)
	}

	var sess auth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, oops.Code("SESSION_LOOKUP_FAILED").With("operation", "unmarshal session").Wrap(err)
	}
	if sess.IsExpiredAt(s.now()) {
		return nil, oops.Code("SESSION_EXPIRED").Wrap(auth.ErrNotFound)
	}
	sess.TokenHash = hash
	return &sess, nil
}

// Revoke deletes the session for token.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(auth.HashSessionToken(token))).Err(); err != nil {
		return oops.Code("SESSION_REVOKE_FAILED").Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.SessionAuthority = (*Store)(nil)
