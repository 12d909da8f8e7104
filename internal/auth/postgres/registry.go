// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/labhub/labhub/internal/auth"
)

// RegistryRepository implements auth.Registry on the hub_users and
// hub_user_roles tables.
type RegistryRepository struct {
	db DB
}

// NewRegistryRepository creates a new RegistryRepository.
func NewRegistryRepository(db DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// GetByName retrieves a user and its roles by exact name.
func (r *RegistryRepository) GetByName(ctx context.Context, name string) (*auth.User, error) {
	var (
		idStr     string
		user      auth.User
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT u.id, u.name, u.admin, u.created_at,
		       COALESCE(array_agg(r.role ORDER BY r.role) FILTER (WHERE r.role IS NOT NULL), '{}')
		FROM hub_users u
		LEFT JOIN hub_user_roles r ON r.user_id = u.id
		WHERE u.name = $1
		GROUP BY u.id
	`, name).Scan(&idStr, &user.Name, &user.Admin, &createdAt, &user.Roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REGISTRY_USER_NOT_FOUND").With("name", name).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REGISTRY_QUERY_FAILED").With("name", name).Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("REGISTRY_QUERY_FAILED").
			With("name", name).
			With("operation", "parse user id").
			Wrap(err)
	}
	user.ID = id
	user.CreatedAt = createdAt.UTC()
	return &user, nil
}

// Create inserts the user and its role assignments in one transaction.
func (r *RegistryRepository) Create(ctx context.Context, user *auth.User) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO hub_users (id, name, admin, created_at) VALUES ($1, $2, $3, $4)`,
			user.ID.String(), user.Name, user.Admin, user.CreatedAt,
		); err != nil {
			return err
		}
		for _, role := range user.Roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO hub_user_roles (user_id, role) VALUES ($1, $2)`,
				user.ID.String(), role,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return oops.Code("REGISTRY_USER_EXISTS").With("name", user.Name).Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("REGISTRY_CREATE_FAILED").With("name", user.Name).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.Registry = (*RegistryRepository)(nil)
