// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func setupPostgresTest(t *testing.T) (*PostgresTokenStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}

	store := &PostgresTokenStore{
		db:    db,
		query: DefaultTokenQuery,
	}

	return store, mock
}

func TestPostgresTokenStore(t *testing.T) {
	store, mock := setupPostgresTest(t)
	defer store.Close()
	ctx := context.Background()

	t.Run("ValidateValidToken", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("valid-token").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		valid, err := store.ValidateToken(ctx, "valid-token")
		assert.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("ValidateInvalidToken", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("invalid-token").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		valid, err := store.ValidateToken(ctx, "invalid-token")
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("NoRows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("missing-token").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}))

		valid, err := store.ValidateToken(ctx, "missing-token")
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("error-token").
			WillReturnError(sqlmock.ErrCancelled)

		valid, err := store.ValidateToken(ctx, "error-token")
		assert.Error(t, err)
		assert.False(t, valid)
	})

	t.Run("CacheIsNoop", func(t *testing.T) {
		assert.NoError(t, store.CacheToken(ctx, "anything"))
	})
}
