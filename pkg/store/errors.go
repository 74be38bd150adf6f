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

import "errors"

var (
	// ErrNotFound is returned by a Backend for a key with no value.
	ErrNotFound = errors.New("store: key not found")

	// ErrCapacity is returned by a Backend when a write is refused
	// because the underlying medium is out of space.
	ErrCapacity = errors.New("store: backend capacity exceeded")

	// ErrStorageExhausted means a write failed even after aggressive
	// eviction and one retry. It propagates to the original caller.
	ErrStorageExhausted = errors.New("store: storage exhausted")
)
