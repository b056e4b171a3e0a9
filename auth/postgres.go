// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/project-3-sem/backend/config"
	_ "github.com/lib/pq"
)

// DefaultTokenQuery is used when auth.postgres.query is not configured.
const DefaultTokenQuery = "SELECT EXISTS(SELECT 1 FROM api_tokens WHERE token = $1 AND valid_until > NOW())"

// PostgresTokenStore checks tokens with a single parameterized query.
type PostgresTokenStore struct {
	db    *sql.DB
	query string
}

func NewPostgresTokenStore(cfg *config.Config) (*PostgresTokenStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Auth.Postgres.Host,
		cfg.Auth.Postgres.Port,
		cfg.Auth.Postgres.User,
		cfg.Auth.Postgres.Password,
		cfg.Auth.Postgres.DBName,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	query := cfg.Auth.Postgres.Query
	if query == "" {
		query = DefaultTokenQuery
	}

	return &PostgresTokenStore{
		db:    db,
		query: query,
	}, nil
}

func (s *PostgresTokenStore) ValidateToken(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, s.query, token).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CacheToken does nothing; tokens are only read from Postgres.
func (s *PostgresTokenStore) CacheToken(ctx context.Context, token string) error {
	return nil
}

func (s *PostgresTokenStore) Close() error {
	return s.db.Close()
}
