// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/project-3-sem/backend/config"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "pronunciation:token:"

// RedisTokenStore caches accepted tokens as keys that expire after the
// configured TTL.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenStore connects using auth.redis and fails fast when the server
// does not answer a ping.
func NewRedisTokenStore(cfg *config.Config) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Auth.Redis.Host, cfg.Auth.Redis.Port),
		Password: cfg.Auth.Redis.Password,
		DB:       cfg.Auth.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisTokenStore{
		client: client,
		ttl:    time.Duration(cfg.Auth.Redis.KeyTTL) * time.Second,
	}, nil
}

func (s *RedisTokenStore) ValidateToken(ctx context.Context, token string) (bool, error) {
	exists, err := s.client.Exists(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (s *RedisTokenStore) CacheToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, tokenKeyPrefix+token, "1", s.ttl).Err()
}

func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
