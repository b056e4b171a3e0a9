// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// memoryTokenStore is an in-memory TokenStore for tests.
type memoryTokenStore struct {
	tokens map[string]bool
}

func (m *memoryTokenStore) ValidateToken(_ context.Context, token string) (bool, error) {
	return m.tokens[token], nil
}

func (m *memoryTokenStore) CacheToken(_ context.Context, token string) error {
	m.tokens[token] = true
	return nil
}

func TestTokenStoreInterface(t *testing.T) {
	ctx := context.Background()
	var store TokenStore = &memoryTokenStore{tokens: make(map[string]bool)}

	// Test token validation
	valid, err := store.ValidateToken(ctx, "test-token")
	assert.NoError(t, err)
	assert.False(t, valid)

	// Test token caching
	err = store.CacheToken(ctx, "test-token")
	assert.NoError(t, err)

	// Test cached token validation
	valid, err = store.ValidateToken(ctx, "test-token")
	assert.NoError(t, err)
	assert.True(t, valid)
}

var (
	_ TokenStore = (*RedisTokenStore)(nil)
	_ TokenStore = (*PostgresTokenStore)(nil)
)
