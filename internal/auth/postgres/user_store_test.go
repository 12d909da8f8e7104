// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labhub/labhub/internal/auth"
	"github.com/labhub/labhub/pkg/errutil"
)

func TestParseTableName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "", want: `"backend"."users"`},
		{input: "backend.users", want: `"backend"."users"`},
		{input: "accounts", want: `"accounts"`},
		{input: "a.b.c", wantErr: true},
		{input: "users; DROP TABLE x", wantErr: true},
		{input: `back"end.users`, wantErr: true},
		{input: ".users", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ident, err := ParseTableName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "USER_STORE_INVALID_CONFIG")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ident.Sanitize())
		})
	}
}

func TestNewUserStore_NilDB(t *testing.T) {
	_, err := NewUserStore(nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is required")
}

func TestUserStore_GetByUsername(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT username, password_hash, is_active FROM "backend"."users" WHERE username = $1`)

	tests := []struct {
		name      string
		username  string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *auth.UserRecord
		wantErr   error
		wantCode  string
	}{
		{
			name:     "active user",
			username: "carol",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("carol").
					WillReturnRows(pgxmock.NewRows([]string{"username", "password_hash", "is_active"}).
						AddRow("carol", "$2a$04$hash", true))
			},
			want: &auth.UserRecord{Username: "carol", PasswordHash: "$2a$04$hash", IsActive: true},
		},
		{
			name:     "disabled user",
			username: "bob",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("bob").
					WillReturnRows(pgxmock.NewRows([]string{"username", "password_hash", "is_active"}).
						AddRow("bob", "$2a$04$hash", false))
			},
			want: &auth.UserRecord{Username: "bob", PasswordHash: "$2a$04$hash", IsActive: false},
		},
		{
			name:     "no such user",
			username: "eve",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("eve").
					WillReturnRows(pgxmock.NewRows([]string{"username", "password_hash", "is_active"}))
			},
			wantErr:  auth.ErrNotFound,
			wantCode: "USER_NOT_FOUND",
		},
		{
			name:     "connection failure",
			username: "carol",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("carol").
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "USER_QUERY_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			store, err := NewUserStore(mock, "")
			require.NoError(t, err)

			got, err := store.GetByUsername(context.Background(), tt.username)

			if tt.wantCode != "" {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NotErrorIs(t, err, auth.ErrNotFound)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserStore_CustomTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "accounts" WHERE username = $1`)).WithArgs("carol").
		WillReturnRows(pgxmock.NewRows([]string{"username", "password_hash", "is_active"}).
			AddRow("carol", "h", true))

	store, err := NewUserStore(mock, "accounts")
	require.NoError(t, err)

	_, err = store.GetByUsername(context.Background(), "carol")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
