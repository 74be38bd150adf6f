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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fawa-io/mediavault/pkg/fwlog"
	"github.com/fawa-io/mediavault/pkg/util"
)

// Options configures the capacity management of a ContentStore. Zero
// values select the defaults.
type Options struct {
	// SoftCeilingBytes triggers preventive eviction when the summed
	// record size exceeds it. Default 4 MiB.
	SoftCeilingBytes int64
	// MaxRecords triggers preventive eviction when the record count
	// exceeds it. Default 20.
	MaxRecords int
	// PreventiveFraction of records (oldest first) removed by a
	// preventive eviction. Default 0.3.
	PreventiveFraction float64
	// AggressiveFraction of records removed after a capacity failure.
	// Default 0.55.
	AggressiveFraction float64
	// MinAggressiveEvict is the floor on records removed by an
	// aggressive eviction. Default 5.
	MinAggressiveEvict int
}

func (o Options) withDefaults() Options {
	if o.SoftCeilingBytes <= 0 {
		o.SoftCeilingBytes = 4 << 20
	}
	if o.MaxRecords <= 0 {
		o.MaxRecords = 20
	}
	if o.PreventiveFraction <= 0 {
		o.PreventiveFraction = 0.3
	}
	if o.AggressiveFraction <= 0 {
		o.AggressiveFraction = 0.55
	}
	if o.MinAggressiveEvict <= 0 {
		o.MinAggressiveEvict = 5
	}
	return o
}

// ContentStore persists MediaRecords in a Backend and keeps the total
// size under a soft ceiling by evicting the oldest records.
type ContentStore struct {
	backend Backend
	opts    Options

	// mu serializes writes so the eviction that protects a Put always
	// happens before the write itself.
	mu sync.Mutex
}

// NewContentStore wraps a Backend with capacity management.
func NewContentStore(backend Backend, opts Options) *ContentStore {
	return &ContentStore{backend: backend, opts: opts.withDefaults()}
}

// Put serializes a new immutable MediaRecord for the payload and writes
// it under a freshly generated content id. If the backend refuses the
// write for lack of space despite preventive eviction, the store evicts
// aggressively and retries exactly once; a second failure surfaces
// ErrStorageExhausted and leaves no partial record behind.
func (s *ContentStore) Put(ctx context.Context, payload []byte, meta Metadata) (string, error) {
	id := util.NewContentID()
	encoded := EncodeDataURL(meta.MIMEType, payload)
	rec := MediaRecord{
		ID:                id,
		EncodedPayload:    encoded,
		MIMEType:          meta.MIMEType,
		OriginalFileName:  meta.OriginalFileName,
		OriginalSizeBytes: meta.OriginalSize,
		SizeBytes:         len(encoded),
		CreatedAt:         time.Now().UnixMilli(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.preventiveEvict(ctx); err != nil {
		fwlog.Warnf("store: preventive eviction failed: %v", err)
	}

	err = s.backend.Put(ctx, id, value)
	if errors.Is(err, ErrCapacity) {
		fwlog.Warnf("store: write of %s hit capacity, evicting aggressively", id)
		if evictErr := s.aggressiveEvict(ctx); evictErr != nil {
			return "", fmt.Errorf("%w: eviction failed: %v", ErrStorageExhausted, evictErr)
		}
		err = s.backend.Put(ctx, id, value)
		if errors.Is(err, ErrCapacity) {
			return "", fmt.Errorf("%w: retry after aggressive eviction failed", ErrStorageExhausted)
		}
	}
	if err != nil {
		return "", fmt.Errorf("write record %s: %w", id, err)
	}
	return id, nil
}

// Get returns the record for id, or (nil, nil) when the id is unknown.
// A stored value that fails to parse as a MediaRecord is treated as
// absent as well: corrupt records are log-worthy, not fatal.
func (s *ContentStore) Get(ctx context.Context, id string) (*MediaRecord, error) {
	value, err := s.backend.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", id, err)
	}

	var rec MediaRecord
	if err := json.Unmarshal(value, &rec); err != nil || rec.ID == "" || rec.EncodedPayload == "" {
		fwlog.Warnf("store: corrupt record under %s, treating as absent: %v", id, err)
		return nil, nil
	}
	return &rec, nil
}

// Delete removes the record for id, if any.
func (s *ContentStore) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, id)
}

// EstimateUsedBytes sums the stored size of all parseable records.
// Corrupt records are skipped, so the estimate is best-effort.
func (s *ContentStore) EstimateUsedBytes(ctx context.Context) (int64, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, key := range keys {
		value, err := s.backend.Get(ctx, key)
		if err != nil {
			continue
		}
		var rec MediaRecord
		if json.Unmarshal(value, &rec) != nil {
			continue
		}
		total += int64(rec.SizeBytes)
	}
	return total, nil
}

// Count returns the number of stored records.
func (s *ContentStore) Count(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear removes every record.
func (s *ContentStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying backend.
func (s *ContentStore) Close() error {
	return s.backend.Close()
}

// preventiveEvict removes the oldest PreventiveFraction of records when
// the store is over either soft ceiling. Caller holds s.mu.
func (s *ContentStore) preventiveEvict(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return err
	}

	over := len(keys) > s.opts.MaxRecords
	if !over {
		used, err := s.EstimateUsedBytes(ctx)
		if err != nil {
			return err
		}
		over = used > s.opts.SoftCeilingBytes
	}
	if !over {
		return nil
	}

	n := int(float64(len(keys)) * s.opts.PreventiveFraction)
	if n < 1 {
		n = 1
	}
	return s.evictOldest(ctx, keys, n)
}

// aggressiveEvict removes the oldest AggressiveFraction of records, at
// least MinAggressiveEvict. Caller holds s.mu.
func (s *ContentStore) aggressiveEvict(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return err
	}

	n := int(float64(len(keys)) * s.opts.AggressiveFraction)
	if n < s.opts.MinAggressiveEvict {
		n = s.opts.MinAggressiveEvict
	}
	return s.evictOldest(ctx, keys, n)
}

// evictOldest deletes up to n keys, oldest CreatedAt first. Timestamps
// come from the id itself; keys with no parseable timestamp sort first
// in lexical order, so eviction always makes forward progress.
func (s *ContentStore) evictOldest(ctx context.Context, keys []string, n int) error {
	if len(keys) == 0 {
		return nil
	}
	if n > len(keys) {
		n = len(keys)
	}

	sort.Slice(keys, func(i, j int) bool {
		ti, oki := createdAtFromID(keys[i])
		tj, okj := createdAtFromID(keys[j])
		if oki != okj {
			return !oki
		}
		if ti != tj {
			return ti < tj
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys[:n] {
		if err := s.backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("evict %s: %w", key, err)
		}
	}
	fwlog.Infof("store: evicted %d of %d records", n, len(keys))
	return nil
}
