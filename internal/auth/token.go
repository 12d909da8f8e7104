// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// LoginTokenTTL is the lifetime of tokens minted by Issue when no TTL is given.
const LoginTokenTTL = 5 * time.Minute

// signingMethod is the only algorithm accepted for login tokens.
var signingMethod = jwt.SigningMethodHS256

// TokenPayload holds the decoded claims of a verified login token.
type TokenPayload struct {
	Username  string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// TokenVerifier verifies signed login tokens.
type TokenVerifier interface {
	// Verify checks signature, algorithm and expiry and returns the payload.
	// A token without a username claim is rejected.
	Verify(token string) (*TokenPayload, error)
}

// loginClaims is the claim set of a login token. Other claims are ignored.
type loginClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTVerifier implements TokenVerifier with HS256 tokens and a shared secret.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret []byte) (*JWTVerifier, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_SECRET_EMPTY").Errorf("token secret cannot be empty")
	}
	return &JWTVerifier{secret: secret, now: time.Now}, nil
}

// Verify validates the token and extracts the username claim.
func (v *JWTVerifier) Verify(token string) (*TokenPayload, error) {
	if token == "" {
		return nil, oops.Code("TOKEN_EMPTY").Errorf("token cannot be empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(v.now),
	)

	claims := &loginClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, oops.Code("TOKEN_EXPIRED").Wrap(err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, oops.Code("TOKEN_BAD_SIGNATURE").Wrap(err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, oops.Code("TOKEN_MALFORMED").Wrap(err)
		default:
			return nil, oops.Code("TOKEN_INVALID").Wrap(err)
		}
	}

	if claims.Username == "" {
		return nil, oops.Code("TOKEN_MISSING_USERNAME").Errorf("token has no username claim")
	}

	payload := &TokenPayload{Username: claims.Username}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}

// Issue mints a login token for username that expires after ttl.
// A non-positive ttl uses LoginTokenTTL.
func (v *JWTVerifier) Issue(username string, ttl time.Duration) (string, error) {
	if username == "" {
		return "", oops.Code("TOKEN_MISSING_USERNAME").Errorf("username cannot be empty")
	}
	if ttl <= 0 {
		ttl = LoginTokenTTL
	}

	now := v.now()
	claims := loginClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(v.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("username", username).Wrap(err)
	}
	return signed, nil
}

// Compile-time interface check.
var _ TokenVerifier = (*JWTVerifier)(nil)
