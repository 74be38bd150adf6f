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
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// MediaRecord is the persisted unit: one immutable record per content id.
// Records are never mutated after creation, only deleted.
type MediaRecord struct {
	ID                string `json:"id"`
	EncodedPayload    string `json:"encodedPayload"`
	MIMEType          string `json:"mimeType"`
	OriginalFileName  string `json:"originalFileName"`
	OriginalSizeBytes int    `json:"originalSizeBytes"`
	SizeBytes         int    `json:"sizeBytes"`
	CreatedAt         int64  `json:"createdAt"`
}

// Metadata carries the caller-supplied fields of a new record.
type Metadata struct {
	MIMEType         string
	OriginalFileName string
	OriginalSize     int
}

// EncodeDataURL wraps encoded payload bytes in a self-describing data URL.
func EncodeDataURL(mimeType string, payload []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// DecodeDataURL extracts the raw payload bytes from a data URL produced by
// EncodeDataURL.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	mimeType, b64, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("missing base64 marker")
	}
	payload, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return mimeType, payload, nil
}

// createdAtFromID recovers the epoch-ms timestamp embedded in a content id
// of the form "media_<epochms>_<suffix>". The second return is false for
// foreign or malformed ids; eviction then falls back to lexical key order
// so forward progress is always possible.
func createdAtFromID(id string) (int64, bool) {
	parts := strings.Split(id, "_")
	if len(parts) < 3 || parts[0] != "media" {
		return 0, false
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
