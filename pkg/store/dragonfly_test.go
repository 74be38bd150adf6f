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
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragonflyBackend_Put(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		value   []byte
		mocker  func(mock redismock.ClientMock)
		wantErr error
	}{
		{
			name:  "success",
			key:   "media_1_a",
			value: []byte("payload"),
			mocker: func(mock redismock.ClientMock) {
				mock.ExpectSet("media:media_1_a", []byte("payload"), 0).SetVal("OK")
			},
		},
		{
			name:  "out of memory maps to capacity",
			key:   "media_2_b",
			value: []byte("payload"),
			mocker: func(mock redismock.ClientMock) {
				mock.ExpectSet("media:media_2_b", []byte("payload"), 0).
					SetErr(errors.New("OOM command not allowed when used memory > 'maxmemory'"))
			},
			wantErr: ErrCapacity,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			tc.mocker(mock)

			b := NewDragonflyBackendWithClient(client, "media")
			err := b.Put(context.Background(), tc.key, tc.value)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDragonflyBackend_Get(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("media:media_1_a").SetVal("payload")

		b := NewDragonflyBackendWithClient(client, "media")
		value, err := b.Get(context.Background(), "media_1_a")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss maps to not found", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		mock.ExpectGet("media:media_1_gone").RedisNil()

		b := NewDragonflyBackendWithClient(client, "media")
		_, err := b.Get(context.Background(), "media_1_gone")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDragonflyBackend_Delete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectDel("media:media_1_a").SetVal(1)

	b := NewDragonflyBackendWithClient(client, "media")
	assert.NoError(t, b.Delete(context.Background(), "media_1_a"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDragonflyBackend_Keys(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectScan(0, "media:*", 100).SetVal([]string{"media:media_1_a", "media:media_2_b"}, 0)

	b := NewDragonflyBackendWithClient(client, "media")
	keys, err := b.Keys(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"media_1_a", "media_2_b"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}
