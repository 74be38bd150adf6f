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

import "context"

// Backend is the key/value medium under the ContentStore. It decouples the
// capacity and eviction logic from the concrete storage implementation.
//
// Get returns ErrNotFound for a missing key. Put returns ErrCapacity when
// the medium refuses the write for lack of space; the ContentStore reacts
// with aggressive eviction. Each Put is atomic: after it returns nil the
// full value is readable, after an error nothing partial is visible.
type Backend interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
