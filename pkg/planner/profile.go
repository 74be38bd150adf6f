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

// Profile bundles target dimensions, starting quality and a byte-size
// budget under a name. TargetSizeBytes is advisory: the search terminates
// at the quality floor even when the budget is unreachable.
type Profile struct {
	Name            string  `mapstructure:"name"`
	MaxWidth        int     `mapstructure:"maxWidth"`
	MaxHeight       int     `mapstructure:"maxHeight"`
	Quality         float64 `mapstructure:"quality"`
	TargetSizeBytes int     `mapstructure:"targetSizeBytes"`
}

// DefaultProfiles returns the built-in compression profiles.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"thumbnail": {
			Name:            "thumbnail",
			MaxWidth:        320,
			MaxHeight:       320,
			Quality:         0.7,
			TargetSizeBytes: 30 << 10,
		},
		"standard": {
			Name:            "standard",
			MaxWidth:        1200,
			MaxHeight:       1200,
			Quality:         0.85,
			TargetSizeBytes: 150 << 10,
		},
		"full": {
			Name:            "full",
			MaxWidth:        2400,
			MaxHeight:       2400,
			Quality:         0.92,
			TargetSizeBytes: 500 << 10,
		},
	}
}

// Overrides optionally replaces individual profile fields for one Plan
// call. Zero-valued fields keep the profile's value.
type Overrides struct {
	MaxWidth        int
	MaxHeight       int
	Quality         float64
	TargetSizeBytes int
}

func (p Profile) apply(o *Overrides) Profile {
	if o == nil {
		return p
	}
	if o.MaxWidth > 0 {
		p.MaxWidth = o.MaxWidth
	}
	if o.MaxHeight > 0 {
		p.MaxHeight = o.MaxHeight
	}
	if o.Quality > 0 {
		p.Quality = o.Quality
	}
	if o.TargetSizeBytes > 0 {
		p.TargetSizeBytes = o.TargetSizeBytes
	}
	return p
}
