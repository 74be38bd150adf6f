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

package planner

import (
	"context"
	"fmt"

	"github.com/fawa-io/mediavault/pkg/codec"
	"github.com/fawa-io/mediavault/pkg/fwlog"
)

const (
	// maxAttempts bounds the iterative quality search.
	maxAttempts = 5
	// qualityFloor is the lowest quality the search will try.
	qualityFloor = 0.3
)

// Result is the outcome of a Plan call. When the codec fails mid-search,
// Encoded holds the original bytes unchanged and FellBack is true;
// compression failure is never fatal to the upload path.
type Result struct {
	Encoded           []byte
	MIMEType          string
	Format            codec.Format
	AchievedSizeBytes int
	AchievedQuality   float64
	Attempts          int
	Width             int
	Height            int
	FellBack          bool
}

// Planner drives a Codec through a bounded search to fit an image into a
// profile's byte-size budget.
type Planner struct {
	codec    codec.Codec
	profiles map[string]Profile
}

// New creates a Planner. A nil profiles map selects the built-in set.
func New(c codec.Codec, profiles map[string]Profile) *Planner {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Planner{codec: c, profiles: profiles}
}

// Profile looks up a named compression profile.
func (p *Planner) Profile(name string) (Profile, bool) {
	prof, ok := p.profiles[name]
	return prof, ok
}

// Plan compresses data toward the named profile's budget.
//
// Format choice: sources with a live alpha channel keep PNG (lossless,
// alpha-capable); everything else goes to JPEG, the most size-efficient
// encoder the runtime supports without CGo. Dimensions only ever scale
// down, preserving aspect ratio, with a 1px floor per axis.
func (p *Planner) Plan(ctx context.Context, data []byte, profileName string, overrides *Overrides) (Result, error) {
	prof, ok := p.profiles[profileName]
	if !ok {
		return Result{}, fmt.Errorf("unknown compression profile %q", profileName)
	}
	prof = prof.apply(overrides)

	fallback := Result{
		Encoded:           data,
		AchievedSizeBytes: len(data),
		Attempts:          0,
		FellBack:          true,
	}

	info, img, err := codec.Inspect(data)
	if err != nil {
		fwlog.Warnf("planner: source not decodable, storing original: %v", err)
		return fallback, nil
	}

	format := codec.FormatJPEG
	if info.HasAlpha {
		format = codec.FormatPNG
	}

	width, height := fitWithin(info.Width, info.Height, prof.MaxWidth, prof.MaxHeight)

	quality := prof.Quality
	achieved := quality
	var best []byte
	attempts := 0

	for attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		attempts++
		achieved = quality
		encoded, err := p.codec.Encode(img, width, height, format, quality)
		if err != nil {
			fwlog.Warnf("planner: encode attempt %d failed, storing original: %v", attempts, err)
			fallback.Attempts = attempts
			return fallback, nil
		}
		best = encoded

		if len(encoded) <= prof.TargetSizeBytes || quality <= qualityFloor {
			break
		}

		// Shrink quality proportionally to how far over budget we are.
		// The ratio is > 1 here, so the sequence is strictly decreasing.
		ratio := float64(len(encoded)) / float64(prof.TargetSizeBytes)
		quality *= 0.8 / ratio
		if quality < qualityFloor {
			quality = qualityFloor
		}
	}

	return Result{
		Encoded:           best,
		MIMEType:          format.MIMEType(),
		Format:            format,
		AchievedSizeBytes: len(best),
		AchievedQuality:   achieved,
		Attempts:          attempts,
		Width:             width,
		Height:            height,
	}, nil
}

// fitWithin scales (w, h) down so both fit inside (maxW, maxH), keeping
// aspect ratio. Never upscales; each axis stays at least 1px.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}

	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && float64(h)*scale > float64(maxH) {
		scale = float64(maxH) / float64(h)
	}
	if scale >= 1 {
		return w, h
	}

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
