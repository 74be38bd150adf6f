// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the entry bound used when none is configured.
const DefaultCapacity = 50

// Handle is a decoded, renderable reference to a stored media record.
type Handle struct {
	ID        string
	URL       string
	MIMEType  string
	SizeBytes int
	LoadedAt  time.Time
}

// Loader fetches and decodes the record for id. A (nil, nil) result means
// the id is absent; absence is returned to the caller but never cached.
type Loader func(ctx context.Context, id string) (*Handle, error)

type entry struct {
	handle     *Handle
	lastAccess atomic.Int64
}

func (e *entry) touch() {
	e.lastAccess.Store(time.Now().UnixNano())
}

// Cache is a bounded LRU of handles in front of the durable store.
// Concurrent misses for the same id share one underlying load.
type Cache struct {
	lru   *lru.Cache[string, *entry]
	group singleflight.Group
}

// New creates a Cache holding at most capacity entries; capacity <= 0
// selects DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{lru: l}, nil
}

// GetOrLoad returns the cached handle for id, or runs loader to fill the
// cache. A hit refreshes recency and returns without suspension. On a
// miss, at most one loader runs per id at a time; every concurrent caller
// receives that single load's result. Loader failures and absent ids are
// not cached, so a later call retries.
func (c *Cache) GetOrLoad(ctx context.Context, id string, loader Loader) (*Handle, error) {
	if e, ok := c.lru.Get(id); ok {
		e.touch()
		return e.handle, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		// A racing caller may have populated the entry between our
		// miss and joining the group.
		if e, ok := c.lru.Get(id); ok {
			e.touch()
			return e.handle, nil
		}

		h, err := loader(ctx, id)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return (*Handle)(nil), nil
		}

		e := &entry{handle: h}
		e.touch()
		c.lru.Add(id, e)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Peek returns the cached handle without refreshing recency.
func (c *Cache) Peek(id string) (*Handle, bool) {
	e, ok := c.lru.Peek(id)
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Contains reports whether id is cached, without refreshing recency.
func (c *Cache) Contains(id string) bool {
	return c.lru.Contains(id)
}

// Remove drops the entry for id, if cached.
func (c *Cache) Remove(id string) {
	c.lru.Remove(id)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// SweepOlderThan drops entries whose last access is older than maxAge and
// returns how many were removed. This is the periodic idle sweep; it is
// independent of LRU capacity eviction.
func (c *Cache) SweepOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge).UnixNano()
	removed := 0
	for _, id := range c.lru.Keys() {
		e, ok := c.lru.Peek(id)
		if !ok {
			continue
		}
		if e.lastAccess.Load() < cutoff {
			c.lru.Remove(id)
			removed++
		}
	}
	return removed
}
