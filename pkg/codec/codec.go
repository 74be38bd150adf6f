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

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Format identifies an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// MIMEType returns the media type for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// ErrNoOutput is returned when the codec cannot produce an encoded result,
// e.g. a zero-area target or an unsupported format. Callers treat this as
// non-fatal and fall back to the original bytes.
var ErrNoOutput = errors.New("codec: no output")

// Codec re-encodes an image into a target raster.
// It is pure: no state is kept between calls, and the transient raster is
// eligible for collection as soon as Encode returns.
type Codec interface {
	Encode(img image.Image, width, height int, format Format, quality float64) ([]byte, error)
}

// RasterCodec implements Codec with pure Go (no CGo): x/image/draw for
// scaling and the stdlib encoders for output. Compatible with
// CGO_ENABLED=0 builds.
type RasterCodec struct{}

// NewRasterCodec creates a new RasterCodec.
func NewRasterCodec() *RasterCodec {
	return &RasterCodec{}
}

// Encode draws img into an off-screen width x height raster and re-encodes
// it in the requested format. Aspect ratio is the caller's responsibility.
func (c *RasterCodec) Encode(img image.Image, width, height int, format Format, quality float64) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil source image", ErrNoOutput)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: zero-area target %dx%d", ErrNoOutput, width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		q := int(quality * 100)
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case FormatPNG:
		if err := png.Encode(&buf, dst); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrNoOutput, format)
	}

	return buf.Bytes(), nil
}

// Info describes a decoded source image.
type Info struct {
	Width    int
	Height   int
	Format   string
	HasAlpha bool
}

// Decode decodes raw image bytes using the registered stdlib decoders
// (JPEG, PNG, GIF).
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Inspect decodes the source and reports its intrinsic dimensions and
// whether it carries a non-opaque alpha channel.
func Inspect(data []byte) (Info, image.Image, error) {
	img, format, err := Decode(data)
	if err != nil {
		return Info{}, nil, err
	}

	bounds := img.Bounds()
	info := Info{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}

	if op, ok := img.(interface{ Opaque() bool }); ok {
		info.HasAlpha = !op.Opaque()
	}

	return info, img, nil
}
