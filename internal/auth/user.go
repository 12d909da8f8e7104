// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"context"
	"regexp"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxUsernameLength bounds hub user names.
const MaxUsernameLength = 128

// Built-in registry roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// usernameRegex rejects whitespace and path separators; names end up in
// per-user URLs and volume names.
var usernameRegex = regexp.MustCompile(`^[^\s/\\]+$`)

// UserRecord is a credential row from the backend store.
type UserRecord struct {
	Username     string
	PasswordHash string
	IsActive     bool
}

// UserStore reads credential rows from the backend store.
type UserStore interface {
	// GetByUsername returns the row with exactly this username, or ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)
}

// User is a hub registry identity with its role assignments.
type User struct {
	ID        ulid.ULID
	Name      string
	Admin     bool
	Roles     []string
	CreatedAt time.Time
}

// NewUser creates a minimal registry user. Every user holds RoleUser;
// admins additionally hold RoleAdmin.
func NewUser(name string, admin bool) (*User, error) {
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}
	roles := []string{RoleUser}
	if admin {
		roles = append(roles, RoleAdmin)
	}
	return &User{
		ID:        ulid.Make(),
		Name:      name,
		Admin:     admin,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

// ValidateUsername checks a hub user name.
func ValidateUsername(name string) error {
	if name == "" {
		return oops.Code(string(ReasonInvalidUsername)).Errorf("username cannot be empty")
	}
	if len(name) > MaxUsernameLength {
		return oops.Code(string(ReasonInvalidUsername)).
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(name) {
		return oops.Code(string(ReasonInvalidUsername)).
			Errorf("username must not contain whitespace or path separators")
	}
	return nil
}

// Registry persists hub identities and their role assignments.
type Registry interface {
	// GetByName retrieves a user by exact name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (*User, error)

	// Create stores a new user and its roles atomically. A name that already
	// exists yields an error wrapping ErrAlreadyExists.
	Create(ctx context.Context, user *User) error
}
