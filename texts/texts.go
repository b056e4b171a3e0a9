// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package texts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// DefaultQuery looks a reference text up by its numeric id.
const DefaultQuery = "SELECT body FROM texts_text WHERE id = $1"

var ErrNotFound = errors.New("text not found")

// Resolver returns the body of a stored reference text.
type Resolver interface {
	ReferenceText(ctx context.Context, id int64) (string, error)
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Query    string
}

// PostgresResolver reads reference texts from the texts catalogue table.
type PostgresResolver struct {
	db    *sql.DB
	query string
}

func NewPostgresResolver(cfg PostgresConfig) (*PostgresResolver, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return NewPostgresResolverFromDB(db, cfg.Query), nil
}

// NewPostgresResolverFromDB wraps an open database handle.
func NewPostgresResolverFromDB(db *sql.DB, query string) *PostgresResolver {
	if query == "" {
		query = DefaultQuery
	}
	return &PostgresResolver{db: db, query: query}
}

func (r *PostgresResolver) ReferenceText(ctx context.Context, id int64) (string, error) {
	var body string
	err := r.db.QueryRowContext(ctx, r.query, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load text %d: %w", id, err)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrNotFound
	}
	return body, nil
}

func (r *PostgresResolver) Close() error {
	return r.db.Close()
}
