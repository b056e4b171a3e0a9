// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package auth holds the bearer token stores behind the process endpoint.
package auth

import "context"

// TokenStore looks up bearer tokens. CacheToken records a token that another
// source accepted; stores that cannot write ignore it.
type TokenStore interface {
	ValidateToken(ctx context.Context, token string) (bool, error)
	CacheToken(ctx context.Context, token string) error
}
