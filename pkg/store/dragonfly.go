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
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DragonflyBackend implements Backend on Dragonfly/Redis. Keys live under
// a namespace prefix so several stores can share one instance.
type DragonflyBackend struct {
	client    redis.Cmdable
	namespace string
	closer    func() error
}

// NewDragonflyBackend connects to addr and verifies the connection.
func NewDragonflyBackend(addr, namespace string) (*DragonflyBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping dragonfly: %w", err)
	}
	return &DragonflyBackend{
		client:    client,
		namespace: namespace,
		closer:    client.Close,
	}, nil
}

// NewDragonflyBackendWithClient wraps an existing client; used by tests
// with redismock.
func NewDragonflyBackendWithClient(client redis.Cmdable, namespace string) *DragonflyBackend {
	return &DragonflyBackend{client: client, namespace: namespace}
}

func (d *DragonflyBackend) fullKey(key string) string {
	return d.namespace + ":" + key
}

// Put stores the value without a TTL; records are durable until evicted.
func (d *DragonflyBackend) Put(ctx context.Context, key string, value []byte) error {
	err := d.client.Set(ctx, d.fullKey(key), value, 0).Err()
	if err != nil && strings.Contains(err.Error(), "OOM") {
		return fmt.Errorf("%w: %v", ErrCapacity, err)
	}
	return err
}

func (d *DragonflyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := d.client.Get(ctx, d.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (d *DragonflyBackend) Delete(ctx context.Context, key string) error {
	return d.client.Del(ctx, d.fullKey(key)).Err()
}

// Keys scans the namespace and returns bare keys (prefix stripped).
func (d *DragonflyBackend) Keys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	prefix := d.namespace + ":"
	for {
		batch, next, err := d.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (d *DragonflyBackend) Close() error {
	if d.closer != nil {
		return d.closer()
	}
	return nil
}
