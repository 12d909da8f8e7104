// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/labhub/labhub/internal/auth"
	"github.com/labhub/labhub/internal/auth/mocks"
	"github.com/labhub/labhub/pkg/errutil"
)

const (
	testSecret = "S-test-secret"
	dummyHash  = "$2a$04$dummydummydummydummydu"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, secret, username string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"username": username}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newVerifier(t *testing.T) *auth.JWTVerifier {
	t.Helper()
	v, err := auth.NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	return v
}

// newMockedValidator wires a validator to a mock store and hasher. The hasher
// returns dummyHash for the construction-time dummy.
func newMockedValidator(t *testing.T, opts ...auth.ValidatorOption) (*auth.Validator, *mocks.MockUserStore, *mocks.MockPasswordHasher) {
	t.Helper()
	users := mocks.NewMockUserStore(t)
	hasher := mocks.NewMockPasswordHasher(t)
	hasher.On("Hash", mock.AnythingOfType("string")).Return(dummyHash, nil).Once()

	opts = append([]auth.ValidatorOption{auth.WithLogger(quietLogger())}, opts...)
	v, err := auth.NewValidator(newVerifier(t), users, hasher, opts...)
	require.NoError(t, err)
	return v, users, hasher
}

func TestNewValidator_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		tokens      auth.TokenVerifier
		users       auth.UserStore
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil token verifier",
			users:       mocks.NewMockUserStore(t),
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "token verifier is required",
		},
		{
			name:        "nil user store",
			tokens:      mocks.NewMockTokenVerifier(t),
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "user store is required",
		},
		{
			name:        "nil password hasher",
			tokens:      mocks.NewMockTokenVerifier(t),
			users:       mocks.NewMockUserStore(t),
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := auth.NewValidator(tt.tokens, tt.users, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.Contains(t, err.Error(), tt.expectError)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_CONFIG")
		})
	}
}

func TestNewValidator_NilLogger(t *testing.T) {
	_, err := auth.NewValidator(mocks.NewMockTokenVerifier(t), mocks.NewMockUserStore(t),
		mocks.NewMockPasswordHasher(t), auth.WithLogger(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger cannot be nil")
}

func TestNewValidator_DummyHashFailure(t *testing.T) {
	hasher := mocks.NewMockPasswordHasher(t)
	hasher.On("Hash", mock.AnythingOfType("string")).Return("", errors.New("entropy exhausted"))

	_, err := auth.NewValidator(mocks.NewMockTokenVerifier(t), mocks.NewMockUserStore(t), hasher)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_CONFIG")
}

func TestAuthenticate_TokenSuccessSkipsPasswordPath(t *testing.T) {
	// No store or Verify expectations: the password path must not run.
	v, _, _ := newMockedValidator(t)

	identity, err := v.Authenticate(context.Background(), auth.LoginAttempt{
		Token:    signToken(t, testSecret, "alice", time.Now().Add(5*time.Minute)),
		Username: "mallory",
		Password: "irrelevant",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Username: "alice", Method: auth.MethodToken}, identity)
}

func TestAuthenticate_TokenWithoutExpiry(t *testing.T) {
	v, _, _ := newMockedValidator(t)

	identity, err := v.Authenticate(context.Background(), auth.LoginAttempt{
		Token: signToken(t, testSecret, "alice", time.Time{}),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
}

func TestAuthenticate_BadTokenWithoutPasswordIsMissingCredentials(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, "wrong", "alice", time.Now().Add(time.Minute))
		}},
		{"expired", func(t *testing.T) string {
			return signToken(t, testSecret, "alice", time.Now().Add(-time.Minute))
		}},
		{"missing username", func(t *testing.T) string {
			return signToken(t, testSecret, "", time.Now().Add(time.Minute))
		}},
		{"malformed", func(*testing.T) string { return "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, _ := newMockedValidator(t)

			identity, err := v.Authenticate(context.Background(), auth.LoginAttempt{Token: tt.token(t)})
			require.Error(t, err)
			assert.Empty(t, identity.Username)
			assert.Equal(t, auth.ReasonMissingCredentials, auth.ReasonOf(err))
		})
	}
}

func TestAuthenticate_BadTokenFallsThroughToPassword(t *testing.T) {
	v, users, hasher := newMockedValidator(t)
	ctx := context.Background()

	users.On("GetByUsername", ctx, "carol").
		Return(&auth.UserRecord{Username: "carol", PasswordHash: "$2a$04$carol", IsActive: true}, nil)
	hasher.On("Verify", "pw", "$2a$04$carol").Return(true, nil)

	identity, err := v.Authenticate(ctx, auth.LoginAttempt{
		Token:    signToken(t, "wrong", "alice", time.Now().Add(time.Minute)),
		Username: "carol",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Username: "carol", Method: auth.MethodPassword}, identity)
}

func TestAuthenticate_PasswordPath(t *testing.T) {
	backendDown := errors.New("connection refused")

	tests := []struct {
		name       string
		attempt    auth.LoginAttempt
		setup      func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher)
		wantReason auth.Reason
		wantUser   string
	}{
		{
			name:    "valid credentials",
			attempt: auth.LoginAttempt{Username: "carol", Password: "pw"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "carol").
					Return(&auth.UserRecord{Username: "carol", PasswordHash: "$2a$04$carol", IsActive: true}, nil)
				hasher.On("Verify", "pw", "$2a$04$carol").Return(true, nil)
			},
			wantUser: "carol",
		},
		{
			name:       "missing username",
			attempt:    auth.LoginAttempt{Password: "pw"},
			wantReason: auth.ReasonMissingCredentials,
		},
		{
			name:       "missing password",
			attempt:    auth.LoginAttempt{Username: "carol"},
			wantReason: auth.ReasonMissingCredentials,
		},
		{
			name:    "unknown user burns dummy hash",
			attempt: auth.LoginAttempt{Username: "eve", Password: "x"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "eve").Return(nil, auth.ErrNotFound)
				hasher.On("Verify", "x", dummyHash).Return(false, nil).Once()
			},
			wantReason: auth.ReasonUnknownUser,
		},
		{
			name:    "disabled account never compares real hash",
			attempt: auth.LoginAttempt{Username: "bob", Password: "correct"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "bob").
					Return(&auth.UserRecord{Username: "bob", PasswordHash: "$2a$04$bob", IsActive: false}, nil)
				hasher.On("Verify", "correct", dummyHash).Return(false, nil).Once()
			},
			wantReason: auth.ReasonAccountDisabled,
		},
		{
			name:    "bad password",
			attempt: auth.LoginAttempt{Username: "carol", Password: "wrong"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "carol").
					Return(&auth.UserRecord{Username: "carol", PasswordHash: "$2a$04$carol", IsActive: true}, nil)
				hasher.On("Verify", "wrong", "$2a$04$carol").Return(false, nil)
			},
			wantReason: auth.ReasonBadPassword,
		},
		{
			name:    "store unavailable",
			attempt: auth.LoginAttempt{Username: "carol", Password: "pw"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, _ *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "carol").Return(nil, backendDown)
			},
			wantReason: auth.ReasonBackendError,
		},
		{
			name:    "unparseable stored hash",
			attempt: auth.LoginAttempt{Username: "carol", Password: "pw"},
			setup: func(ctx context.Context, users *mocks.MockUserStore, hasher *mocks.MockPasswordHasher) {
				users.On("GetByUsername", ctx, "carol").
					Return(&auth.UserRecord{Username: "carol", PasswordHash: "plaintext", IsActive: true}, nil)
				hasher.On("Verify", "pw", "plaintext").Return(false, errors.New("unsupported hash format"))
			},
			wantReason: auth.ReasonBackendError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			v, users, hasher := newMockedValidator(t)
			if tt.setup != nil {
				tt.setup(ctx, users, hasher)
			}

			identity, err := v.Authenticate(ctx, tt.attempt)
			if tt.wantReason != auth.ReasonNone {
				require.Error(t, err)
				assert.Empty(t, identity.Username)
				assert.Equal(t, tt.wantReason, auth.ReasonOf(err))
				errutil.AssertErrorCode(t, err, string(tt.wantReason))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, auth.Identity{Username: tt.wantUser, Method: auth.MethodPassword}, identity)
		})
	}
}

func TestAuthenticate_BackendErrorDoesNotLeakCause(t *testing.T) {
	ctx := context.Background()
	v, users, _ := newMockedValidator(t)
	users.On("GetByUsername", ctx, "carol").Return(nil, errors.New("dial tcp 10.0.0.7:5432: refused"))

	_, err := v.Authenticate(ctx, auth.LoginAttempt{Username: "carol", Password: "pw"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "10.0.0.7")
}

func TestAuthenticate_ObserverOutcomes(t *testing.T) {
	ctx := context.Background()
	observer := mocks.NewMockObserver(t)
	v, users, hasher := newMockedValidator(t, auth.WithObserver(observer))

	observer.On("AttemptFinished", auth.MethodToken, auth.ReasonTokenInvalid).Once()
	observer.On("AttemptFinished", auth.MethodPassword, auth.ReasonUnknownUser).Once()
	users.On("GetByUsername", ctx, "eve").Return(nil, auth.ErrNotFound)
	hasher.On("Verify", "x", dummyHash).Return(false, nil)

	_, err := v.Authenticate(ctx, auth.LoginAttempt{Token: "garbage", Username: "eve", Password: "x"})
	require.Error(t, err)

	observer.On("AttemptFinished", auth.MethodToken, auth.ReasonNone).Once()
	_, err = v.Authenticate(ctx, auth.LoginAttempt{Token: signToken(t, testSecret, "alice", time.Time{})})
	require.NoError(t, err)
}

func TestAuthenticate_AuditNeverLogsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	users := mocks.NewMockUserStore(t)
	hasher := auth.NewHasher(bcrypt.MinCost)
	v, err := auth.NewValidator(newVerifier(t), users, hasher, auth.WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	hash, err := hasher.Hash("hunter2-correct")
	require.NoError(t, err)
	users.On("GetByUsername", ctx, "carol").
		Return(&auth.UserRecord{Username: "carol", PasswordHash: hash, IsActive: true}, nil)

	badToken := signToken(t, "wrong", "alice", time.Time{})
	_, err = v.Authenticate(ctx, auth.LoginAttempt{Token: badToken, Username: "carol", Password: "hunter2-wrong"})
	require.Error(t, err)
	_, err = v.Authenticate(ctx, auth.LoginAttempt{Username: "carol", Password: "hunter2-correct"})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, badToken)
	assert.Contains(t, out, auth.TokenFingerprint(badToken))
	assert.Contains(t, out, `"reason":"bad_password"`)
	assert.Contains(t, out, `"msg":"authenticated"`)
	assert.Contains(t, out, `"msg":"login attempt"`)
}

func TestAuthenticate_RealHasherScenarios(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewHasher(bcrypt.MinCost)
	users := mocks.NewMockUserStore(t)
	v, err := auth.NewValidator(newVerifier(t), users, hasher, auth.WithLogger(quietLogger()))
	require.NoError(t, err)

	bobHash, err := hasher.Hash("bob-pw")
	require.NoError(t, err)
	carolHash, err := hasher.Hash("carol-pw")
	require.NoError(t, err)

	users.On("GetByUsername", ctx, "bob").
		Return(&auth.UserRecord{Username: "bob", PasswordHash: bobHash, IsActive: false}, nil)
	users.On("GetByUsername", ctx, "carol").
		Return(&auth.UserRecord{Username: "carol", PasswordHash: carolHash, IsActive: true}, nil)
	users.On("GetByUsername", ctx, "eve").Return(nil, auth.ErrNotFound)

	_, err = v.Authenticate(ctx, auth.LoginAttempt{Username: "bob", Password: "bob-pw"})
	assert.Equal(t, auth.ReasonAccountDisabled, auth.ReasonOf(err))

	_, err = v.Authenticate(ctx, auth.LoginAttempt{Username: "eve", Password: "x"})
	assert.Equal(t, auth.ReasonUnknownUser, auth.ReasonOf(err))

	_, err = v.Authenticate(ctx, auth.LoginAttempt{Username: "carol", Password: "nope"})
	assert.Equal(t, auth.ReasonBadPassword, auth.ReasonOf(err))

	identity, err := v.Authenticate(ctx, auth.LoginAttempt{Username: "carol", Password: "carol-pw"})
	require.NoError(t, err)
	assert.Equal(t, "carol", identity.Username)
}
