// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package config

import (
	"slices"

	"github.com/samber/oops"
)

// Role declares a named set of scopes granted to users or services.
// Declarations are handed to the external scope engine as-is.
type Role struct {
	Name        string   `koanf:"name" jsonschema:"required"`
	Description string   `koanf:"description"`
	Scopes      []string `koanf:"scopes" jsonschema:"required"`
	Users       []string `koanf:"users"`
	Services    []string `koanf:"services"`
}

// KnownScopes is the scope vocabulary roles may use.
var KnownScopes = []string{
	"access:servers",
	"admin:groups",
	"admin:servers",
	"admin:users",
	"groups",
	"list:servers",
	"list:users",
	"proxy",
	"read:groups",
	"read:hub",
	"read:servers",
	"read:tokens",
	"read:users",
	"read:users:activity",
	"read:users:name",
	"servers",
	"shutdown",
	"tokens",
	"users",
	"users:activity",
}

// DefaultRoles returns the roles for the backend API service and the idle culler.
func DefaultRoles() []Role {
	return []Role{
		{
			Name:        "backend-api-role",
			Description: "Backend service managing users and their servers",
			Scopes: []string{
				"admin:users",
				"admin:servers",
				"read:users",
				"read:servers",
				"servers",
				"access:servers",
			},
			Services: []string{"backend-api"},
		},
		{
			Name:        "idle-culler",
			Description: "Stops servers that have been idle too long",
			Scopes: []string{
				"read:users:activity",
				"servers",
				"admin:users",
			},
			Services: []string{"idle-culler"},
		},
	}
}

// ValidateRoles checks names are unique and every scope is known.
func ValidateRoles(roles []Role) error {
	seen := make(map[string]struct{}, len(roles))
	for i, role := range roles {
		if role.Name == "" {
			return oops.Code("CONFIG_INVALID").With("key", "roles").With("index", i).Errorf("role name is required")
		}
		if _, dup := seen[role.Name]; dup {
			return oops.Code("CONFIG_INVALID").With("key", "roles").With("role", role.Name).Errorf("duplicate role %q", role.Name)
		}
		seen[role.Name] = struct{}{}

		if len(role.Scopes) == 0 {
			return oops.Code("CONFIG_INVALID").With("key", "roles").With("role", role.Name).Errorf("role %q has no scopes", role.Name)
		}
		for _, scope := range role.Scopes {
			if !slices.Contains(KnownScopes, scope) {
				return oops.Code("CONFIG_INVALID").
					With("key", "roles").
					With("role", role.Name).
					With("scope", scope).
					Errorf("role %q uses unknown scope %q", role.Name, scope)
			}
		}
	}
	return nil
}
