// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package speech

import (
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ModelCache loads each model at most once per resolved path and shares it
// between callers. It is safe for concurrent use.
type ModelCache struct {
	engine Engine

	mu     sync.RWMutex
	models map[string]Model
	group  singleflight.Group
}

func NewModelCache(engine Engine) *ModelCache {
	return &ModelCache{
		engine: engine,
		models: make(map[string]Model),
	}
}

// Get returns the model stored at path, loading it on first use.
func (c *ModelCache) Get(path string) (Model, error) {
	key := canonicalPath(path)

	if m, ok := c.lookup(key); ok {
		return m, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if m, ok := c.lookup(key); ok {
			return m, nil
		}

		m, err := c.engine.LoadModel(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s model: %w", c.engine.Name(), err)
		}

		c.mu.Lock()
		c.models[key] = m
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Model), nil
}

// Len reports how many models are loaded.
func (c *ModelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// Close frees every loaded model.
func (c *ModelCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, m := range c.models {
		m.Close()
		delete(c.models, key)
	}
}

func (c *ModelCache) lookup(key string) (Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[key]
	return m, ok
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
