// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package retention removes task and upload directories that have aged out.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/project-3-sem/backend/metrics"
)

const DefaultMaxAge = 7 * 24 * time.Hour

// Sweeper deletes child directories of its roots whose modification time is
// older than MaxAge. Plain files directly under a root are left alone.
type Sweeper struct {
	Roots  []string
	MaxAge time.Duration
	Logger *slog.Logger

	now func() time.Time
}

func NewSweeper(maxAge time.Duration, logger *slog.Logger, roots ...string) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{Roots: roots, MaxAge: maxAge, Logger: logger, now: time.Now}
}

// Sweep returns how many directories were removed. Failures on individual
// directories are logged and do not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.MaxAge)
	deleted := 0

	for _, root := range s.Roots {
		entries, err := os.ReadDir(root)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list %s: %w", root, err)
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return deleted, err
			}
			if !entry.IsDir() {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				s.Logger.Warn("failed to stat directory", "path", filepath.Join(root, entry.Name()), "err", err)
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(root, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				s.Logger.Error("failed to delete directory", "path", path, "err", err)
				continue
			}
			metrics.RetentionRemoved.WithLabelValues(filepath.Base(root)).Inc()
			deleted++
		}
	}

	return deleted, nil
}

// Schedule runs Sweep on a cron spec (standard five-field or descriptors
// such as "@daily") until ctx is done.
func (s *Sweeper) Schedule(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		deleted, err := s.Sweep(ctx)
		if err != nil {
			s.Logger.Error("retention sweep failed", "err", err)
			return
		}
		s.Logger.Info("retention sweep completed", "deleted", deleted)
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}
