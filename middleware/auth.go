// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package middleware

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/project-3-sem/backend/auth"
	"github.com/project-3-sem/backend/config"
	"github.com/project-3-sem/backend/metrics"
)

// Store constructors, replaced in tests.
var (
	openRedisTokens = func(cfg *config.Config) (auth.TokenStore, error) {
		return auth.NewRedisTokenStore(cfg)
	}
	openPostgresTokens = func(cfg *config.Config) (auth.TokenStore, error) {
		return auth.NewPostgresTokenStore(cfg)
	}
)

type tokenSource struct {
	name  string
	store auth.TokenStore
}

// AuthMiddleware guards the analysis endpoint with bearer tokens. Tokens are
// checked against the Redis cache, then Postgres, then the static list from
// the config. Tokens accepted by a slower source are written to the cache.
type AuthMiddleware struct {
	enabled bool
	static  map[string]struct{}
	cache   auth.TokenStore
	sources []tokenSource
	logger  *slog.Logger
}

// NewAuthMiddleware opens the token stores enabled in cfg. No store is opened
// when auth is disabled.
func NewAuthMiddleware(cfg *config.Config, logger *slog.Logger) (*AuthMiddleware, error) {
	m := newAuthMiddleware(cfg.Auth.Enabled, cfg.Auth.Tokens, logger)
	if !m.enabled {
		return m, nil
	}

	if cfg.Auth.Redis.Enabled {
		store, err := openRedisTokens(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis token store: %w", err)
		}
		m.cache = store
		m.sources = append(m.sources, tokenSource{name: "redis", store: store})
	}

	if cfg.Auth.Postgres.Enabled {
		store, err := openPostgresTokens(cfg)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to initialize Postgres token store: %w", err)
		}
		m.sources = append(m.sources, tokenSource{name: "postgres", store: store})
	}

	return m, nil
}

func newAuthMiddleware(enabled bool, tokens []string, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	static := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			static[t] = struct{}{}
		}
	}
	return &AuthMiddleware{enabled: enabled, static: static, logger: logger}
}

func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthRequests.WithLabelValues("missing").Inc()
			abortUnauthorized(c, "Authorization header required")
			return
		}

		source, ok := m.authorize(c.Request.Context(), token)
		if !ok {
			metrics.AuthRequests.WithLabelValues("rejected").Inc()
			abortUnauthorized(c, "Invalid token")
			return
		}

		metrics.AuthRequests.WithLabelValues(source).Inc()
		c.Next()
	}
}

// authorize returns the name of the source that accepted token.
func (m *AuthMiddleware) authorize(ctx context.Context, token string) (string, bool) {
	for _, src := range m.sources {
		valid, err := src.store.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token lookup failed", "source", src.name, "err", err)
			continue
		}
		if valid {
			if src.store != m.cache {
				m.remember(ctx, token)
			}
			return src.name, true
		}
	}

	if _, ok := m.static[token]; ok {
		m.remember(ctx, token)
		return "static", true
	}
	return "", false
}

func (m *AuthMiddleware) remember(ctx context.Context, token string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.CacheToken(ctx, token); err != nil {
		m.logger.Warn("failed to cache token", "err", err)
	}
}

// Close releases the token stores.
func (m *AuthMiddleware) Close() {
	for _, src := range m.sources {
		if c, ok := src.store.(io.Closer); ok {
			c.Close()
		}
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// bearerToken parses "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
