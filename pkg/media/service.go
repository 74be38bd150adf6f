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

// Package media is the boundary surface consumed by UI code: upload with
// adaptive compression, synchronous URL resolution, lazy image binding,
// background preload, and the debug/ops operations.
package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fawa-io/mediavault/pkg/cache"
	"github.com/fawa-io/mediavault/pkg/fwlog"
	"github.com/fawa-io/mediavault/pkg/lazyload"
	"github.com/fawa-io/mediavault/pkg/planner"
	"github.com/fawa-io/mediavault/pkg/store"
)

// Config holds the service-level knobs. Zero values select defaults.
type Config struct {
	// MaxUploadBytes is the hard input ceiling. Default 10 MiB.
	MaxUploadBytes int
	// CompressOverBytes: images above this size get compressed, smaller
	// ones and videos pass through unchanged. Default 500 KiB.
	CompressOverBytes int
	// CompressionProfile names the planner profile used for uploads.
	// Default "standard".
	CompressionProfile string
	// CacheCapacity bounds the in-memory handle cache. Default 50.
	CacheCapacity int
	// SentinelIDs are reserved placeholder/demo identifiers that always
	// resolve to absence.
	SentinelIDs []string
}

func (c Config) withDefaults() Config {
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
	if c.CompressOverBytes <= 0 {
		c.CompressOverBytes = 500 << 10
	}
	if c.CompressionProfile == "" {
		c.CompressionProfile = "standard"
	}
	if c.SentinelIDs == nil {
		c.SentinelIDs = []string{"placeholder", "demo"}
	}
	return c
}

// Upload is one inbound media file.
type Upload struct {
	FileName string
	// MIMEType may be empty; the content is sniffed then.
	MIMEType string
	Data     []byte
}

// UsageStats is the debug/ops snapshot of the subsystem.
type UsageStats struct {
	UsedBytes   int64
	RecordCount int
	CachedItems int
}

// Service wires the planner, durable store and memory cache together.
// Construct one per isolated media universe; there is no ambient
// singleton.
type Service struct {
	cfg       Config
	store     *store.ContentStore
	cache     *cache.Cache
	planner   *planner.Planner
	pre       *preloader
	sentinels map[string]struct{}
}

// NewService builds a Service on top of an already-constructed store and
// planner.
func NewService(cs *store.ContentStore, pl *planner.Planner, cfg Config) (*Service, error) {
	cfg = cfg.withDefaults()

	c, err := cache.New(cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	sentinels := make(map[string]struct{}, len(cfg.SentinelIDs))
	for _, id := range cfg.SentinelIDs {
		sentinels[id] = struct{}{}
	}

	s := &Service{
		cfg:       cfg,
		store:     cs,
		cache:     c,
		planner:   pl,
		sentinels: sentinels,
	}
	s.pre = newPreloader(s)
	return s, nil
}

// Upload validates, optionally compresses, and persists one media file,
// returning its content id.
//
// Rejections are distinguishable: ErrUnsupportedMediaType for non-media
// input, ErrPayloadTooLarge for oversize input, ErrStorageExhausted when
// capacity could not be reclaimed. Compression failure is absorbed: the
// original bytes are stored instead.
func (s *Service) Upload(ctx context.Context, up Upload) (string, error) {
	mimeType := up.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(up.Data)
	}

	isImage := strings.HasPrefix(mimeType, "image/")
	isVideo := strings.HasPrefix(mimeType, "video/")
	if !isImage && !isVideo {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mimeType)
	}
	if len(up.Data) > s.cfg.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(up.Data), s.cfg.MaxUploadBytes)
	}

	payload := up.Data
	if isImage && len(up.Data) > s.cfg.CompressOverBytes {
		res, err := s.planner.Plan(ctx, up.Data, s.cfg.CompressionProfile, nil)
		if err != nil {
			return "", err
		}
		payload = res.Encoded
		if !res.FellBack {
			mimeType = res.MIMEType
			fwlog.Debugf("media: compressed %s from %d to %d bytes in %d attempts",
				up.FileName, len(up.Data), res.AchievedSizeBytes, res.Attempts)
		}
	}

	id, err := s.store.Put(ctx, payload, store.Metadata{
		MIMEType:         mimeType,
		OriginalFileName: up.FileName,
		OriginalSize:     len(up.Data),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetOrLoad resolves a content id through the two-tier read path:
// memory cache first, durable store on a miss. Absent ids yield
// (nil, nil).
func (s *Service) GetOrLoad(ctx context.Context, id string) (*cache.Handle, error) {
	if s.isSentinel(id) {
		return nil, nil
	}
	return s.cache.GetOrLoad(ctx, id, s.loadHandle)
}

// MediaURL is the synchronous convenience wrapper: a renderable data URL,
// or the empty string when the id is absent, reserved, or unreadable.
func (s *Service) MediaURL(ctx context.Context, id string) string {
	h, err := s.GetOrLoad(ctx, id)
	if err != nil {
		fwlog.Warnf("media: resolving %s: %v", id, err)
		return ""
	}
	if h == nil {
		return ""
	}
	return h.URL
}

// LazyImage binds a visibility-gated loader to the id. The caller owns
// the returned loader and must Close it on teardown.
func (s *Service) LazyImage(id string, opts lazyload.Options) *lazyload.Loader {
	l := lazyload.New(s.GetOrLoad, opts)
	l.SetTarget(id)
	return l
}

// Preload warms the memory cache for the given ids in the background,
// one load at a time. Best effort: absent ids and failures are skipped.
func (s *Service) Preload(ids []string) {
	s.pre.enqueue(ids)
}

// Stats reports current usage for the debug surface.
func (s *Service) Stats(ctx context.Context) (UsageStats, error) {
	used, err := s.store.EstimateUsedBytes(ctx)
	if err != nil {
		return UsageStats{}, err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		return UsageStats{}, err
	}
	return UsageStats{
		UsedBytes:   used,
		RecordCount: count,
		CachedItems: s.cache.Len(),
	}, nil
}

// Delete removes one record and its cached handle.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	return s.store.Delete(ctx, id)
}

// ClearCache drops every cached handle; the durable store is untouched.
func (s *Service) ClearCache() {
	s.cache.Purge()
}

// SweepCache drops cached handles not accessed within maxAge.
func (s *Service) SweepCache(maxAge time.Duration) int {
	return s.cache.SweepOlderThan(maxAge)
}

// Wipe clears the durable store and the cache.
func (s *Service) Wipe(ctx context.Context) error {
	s.cache.Purge()
	return s.store.Clear(ctx)
}

// Close stops the preload worker and releases the store.
func (s *Service) Close() error {
	s.pre.close()
	return s.store.Close()
}

func (s *Service) isSentinel(id string) bool {
	_, ok := s.sentinels[id]
	return ok || id == ""
}

// loadHandle is the cache loader: read the record, decode its payload
// into a renderable handle. Absence stays (nil, nil); a payload that no
// longer parses is a decode failure, fatal for this key only.
func (s *Service) loadHandle(ctx context.Context, id string) (*cache.Handle, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	mimeType, payload, err := store.DecodeDataURL(rec.EncodedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", ErrDecodeFailed, id, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: record %s is empty", ErrDecodeFailed, id)
	}

	return &cache.Handle{
		ID:        rec.ID,
		URL:       rec.EncodedPayload,
		MIMEType:  mimeType,
		SizeBytes: rec.SizeBytes,
		LoadedAt:  time.Now(),
	}, nil
}
