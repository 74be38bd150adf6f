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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewFSBackend(t.TempDir(), 0)
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "media_1_abc", []byte("hello")))

	value, err := b.Get(ctx, "media_1_abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), value)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"media_1_abc"}, keys)

	require.NoError(t, b.Delete(ctx, "media_1_abc"))
	_, err = b.Get(ctx, "media_1_abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSBackend_GetMissing(t *testing.T) {
	b, err := NewFSBackend(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = b.Get(context.Background(), "media_1_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSBackend_DeleteMissingIsNoop(t *testing.T) {
	b, err := NewFSBackend(t.TempDir(), 0)
	require.NoError(t, err)
	assert.NoError(t, b.Delete(context.Background(), "media_1_nope"))
}

func TestFSBackend_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	b, err := NewFSBackend(t.TempDir(), 100)
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "media_1_a", make([]byte, 60)))

	err = b.Put(ctx, "media_2_b", make([]byte, 60))
	assert.ErrorIs(t, err, ErrCapacity)

	// The refused write left nothing behind.
	_, err = b.Get(ctx, "media_2_b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSBackend_RejectsTraversalKeys(t *testing.T) {
	ctx := context.Background()
	b, err := NewFSBackend(t.TempDir(), 0)
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, b.Put(ctx, key, []byte("x")), "key %q", key)
	}
}
