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

package media

import (
	"errors"

	"github.com/fawa-io/mediavault/pkg/store"
)

var (
	// ErrUnsupportedMediaType rejects payloads that are neither image
	// nor video, before any work begins.
	ErrUnsupportedMediaType = errors.New("media: unsupported media type")

	// ErrPayloadTooLarge rejects inputs over the configured ceiling,
	// before compression.
	ErrPayloadTooLarge = errors.New("media: payload too large")

	// ErrStorageExhausted is the store's hard capacity failure,
	// surfaced unchanged so callers can distinguish it.
	ErrStorageExhausted = store.ErrStorageExhausted

	// ErrDecodeFailed means a stored payload could not be decoded into
	// a renderable handle.
	ErrDecodeFailed = errors.New("media: decode failed")
)
