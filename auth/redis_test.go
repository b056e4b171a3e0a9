// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/project-3-sem/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisTest(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Auth.Redis.Host = mr.Host()
	cfg.Auth.Redis.Port = mr.Server().Addr().Port
	cfg.Auth.Redis.KeyTTL = 1 // 1 second TTL for testing

	store, err := NewRedisTokenStore(cfg)
	require.NoError(t, err)

	return store, mr
}

func TestRedisTokenStore(t *testing.T) {
	store, mr := setupRedisTest(t)
	defer mr.Close()
	defer store.Close()
	ctx := context.Background()

	t.Run("ValidateNonExistentToken", func(t *testing.T) {
		valid, err := store.ValidateToken(ctx, "non-existent")
		assert.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("CacheAndValidateToken", func(t *testing.T) {
		err := store.CacheToken(ctx, "test-token")
		assert.NoError(t, err)

		valid, err := store.ValidateToken(ctx, "test-token")
		assert.NoError(t, err)
		assert.True(t, valid)
		assert.True(t, mr.Exists(tokenKeyPrefix+"test-token"))
	})

	t.Run("TokenExpiration", func(t *testing.T) {
		err := store.CacheToken(ctx, "expiring-token")
		assert.NoError(t, err)

		mr.FastForward(2 * time.Second)

		valid, err := store.ValidateToken(ctx, "expiring-token")
		assert.NoError(t, err)
		assert.False(t, valid)
	})
}

func TestNewRedisTokenStore_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Server().Addr()
	mr.Close()

	cfg := &config.Config{}
	cfg.Auth.Redis.Host = addr.IP.String()
	cfg.Auth.Redis.Port = addr.Port

	_, err = NewRedisTokenStore(cfg)
	assert.ErrorContains(t, err, "redis connection failed")
}
