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

package util

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var runesofrandom = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

var r = rand.New(rand.NewSource(time.Now().UnixNano()))

// Generaterandomstring returns a random alphanumeric string of length n.
func Generaterandomstring(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = runesofrandom[r.Intn(len(runesofrandom))]
	}
	return string(b)
}

// NewContentID generates an opaque content id: the epoch-millisecond
// timestamp followed by a random suffix. The timestamp prefix doubles as
// the recency signal for eviction ordering; the suffix keeps ids created
// within the same millisecond unique.
func NewContentID() string {
	return fmt.Sprintf("media_%d_%s", time.Now().UnixMilli(), Generaterandomstring(9))
}

// NewRequestID returns a UUID, used to tag preload batches in logs.
func NewRequestID() string {
	return uuid.NewString()
}
