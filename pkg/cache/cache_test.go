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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLoader(h *Handle) Loader {
	return func(context.Context, string) (*Handle, error) {
		return h, nil
	}
}

func handleFor(id string) *Handle {
	return &Handle{ID: id, URL: "data:image/png;base64,AAAA", MIMEType: "image/png"}
}

func TestGetOrLoad_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	var calls atomic.Int32
	loader := func(_ context.Context, id string) (*Handle, error) {
		calls.Add(1)
		return handleFor(id), nil
	}

	h1, err := c.GetOrLoad(ctx, "a", loader)
	require.NoError(t, err)
	require.NotNil(t, h1)
	assert.Equal(t, int32(1), calls.Load())

	// Second call is a hit: same handle, no new load.
	h2, err := c.GetOrLoad(ctx, "a", loader)
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrLoad_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c, err := New(3)
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		_, err := c.GetOrLoad(ctx, id, staticLoader(handleFor(id)))
		require.NoError(t, err)
	}

	// Touch "a" so "b" becomes the least recently used.
	_, err = c.GetOrLoad(ctx, "a", staticLoader(nil))
	require.NoError(t, err)

	_, err = c.GetOrLoad(ctx, "d", staticLoader(handleFor("d")))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"), "least recently used entry must be the one evicted")
	assert.True(t, c.Contains("c"))
	assert.True(t, c.Contains("d"))
}

func TestGetOrLoad_InsertionOrderTieBreak(t *testing.T) {
	ctx := context.Background()
	c, err := New(2)
	require.NoError(t, err)

	for _, id := range []string{"first", "second", "third"} {
		_, err := c.GetOrLoad(ctx, id, staticLoader(handleFor(id)))
		require.NoError(t, err)
	}

	// Without any intervening access the earliest insertion goes first.
	assert.False(t, c.Contains("first"))
	assert.True(t, c.Contains("second"))
	assert.True(t, c.Contains("third"))
}

func TestGetOrLoad_DedupConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	var calls atomic.Int32
	began := make(chan struct{})
	release := make(chan struct{})
	loader := func(_ context.Context, id string) (*Handle, error) {
		if calls.Add(1) == 1 {
			close(began)
		}
		<-release
		return handleFor(id), nil
	}

	var wg sync.WaitGroup
	results := make([]*Handle, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.GetOrLoad(ctx, "shared", loader)
			assert.NoError(t, err)
			results[i] = h
		}(i)
		if i == 0 {
			<-began
		}
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "loader must run exactly once")
	assert.Same(t, results[0], results[1])
}

func TestGetOrLoad_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	var calls atomic.Int32
	failing := func(context.Context, string) (*Handle, error) {
		calls.Add(1)
		return nil, errors.New("decode failed")
	}

	_, err = c.GetOrLoad(ctx, "x", failing)
	assert.Error(t, err)
	assert.False(t, c.Contains("x"))

	// The failure was not cached: the next call loads again.
	_, err = c.GetOrLoad(ctx, "x", failing)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrLoad_AbsenceNotCached(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	h, err := c.GetOrLoad(ctx, "ghost", staticLoader(nil))
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.False(t, c.Contains("ghost"))
}

func TestSweepOlderThan(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("s%d", i)
		_, err := c.GetOrLoad(ctx, id, staticLoader(handleFor(id)))
		require.NoError(t, err)
	}

	// Nothing is stale yet.
	assert.Zero(t, c.SweepOlderThan(time.Hour))

	// With a zero age everything is stale.
	time.Sleep(time.Millisecond)
	assert.Equal(t, 4, c.SweepOlderThan(0))
	assert.Zero(t, c.Len())
}

func TestRemoveAndPurge(t *testing.T) {
	ctx := context.Background()
	c, err := New(10)
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		_, err := c.GetOrLoad(ctx, id, staticLoader(handleFor(id)))
		require.NoError(t, err)
	}

	c.Remove("a")
	assert.False(t, c.Contains("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}
