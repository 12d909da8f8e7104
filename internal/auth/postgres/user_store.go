// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/labhub/labhub/internal/auth"
)

// DefaultUsersTable is the backend table holding credential rows.
const DefaultUsersTable = "backend.users"

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// UserStore implements auth.UserStore against the backend users table.
type UserStore struct {
	db    DB
	query string
}

// NewUserStore creates a UserStore reading from table, an optionally
// schema-qualified name such as "backend.users". An empty table uses
// DefaultUsersTable.
func NewUserStore(db DB, table string) (*UserStore, error) {
	if db == nil {
		return nil, oops.Code("USER_STORE_INVALID_CONFIG").Errorf("database is required")
	}
	ident, err := ParseTableName(table)
	if err != nil {
		return nil, err
	}
	return &UserStore{
		db:    db,
		query: fmt.Sprintf(`SELECT username, password_hash, is_active FROM %s WHERE username = $1`, ident.Sanitize()),
	}, nil
}

// ParseTableName splits a dotted table name into a quoted identifier.
func ParseTableName(table string) (pgx.Identifier, error) {
	if table == "" {
		table = DefaultUsersTable
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, oops.Code("USER_STORE_INVALID_CONFIG").
			With("table", table).
			Errorf("table name must be table or schema.table")
	}
	for _, part := range parts {
		if !identPart.MatchString(part) {
			return nil, oops.Code("USER_STORE_INVALID_CONFIG").
				With("table", table).
				Errorf("invalid identifier %q", part)
		}
	}
	return pgx.Identifier(parts), nil
}

// GetByUsername returns the credential row with exactly this username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*auth.UserRecord, error) {
	var rec auth.UserRecord
	err := s.db.QueryRow(ctx, s.query, username).Scan(&rec.Username, &rec.PasswordHash, &rec.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_QUERY_FAILED").With("username", username).Wrap(err)
	}
	return &rec, nil
}

// Compile-time interface check.
var _ auth.UserStore = (*UserStore)(nil)
