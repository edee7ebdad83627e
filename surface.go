// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is the pixel sink the decoders paint into. The session owns its
// surface; a host that wants to render into its own backing store supplies
// an implementation through Config.Surface.
type Surface interface {
	// Allocate resizes the surface to width x height pixels. The previous
	// contents are discarded and the new surface is opaque white.
	Allocate(width, height int)

	// SetPixel writes one pixel. Implementations must ignore out-of-bounds
	// coordinates rather than panic; malformed rectangles are clipped.
	SetPixel(x, y int, c color.RGBA)

	// Blit draws src with its top-left corner at (x, y), clipped to the
	// surface bounds.
	Blit(x, y int, src image.Image)

	// Size returns the current dimensions, (0, 0) before allocation.
	Size() (width, height int)
}

// ImageSurface is the default Surface: an in-memory ARGB32 bitmap.
type ImageSurface struct {
	img *image.RGBA
}

// NewImageSurface returns an unallocated image surface. The state machine
// allocates it when ServerInit announces the framebuffer dimensions.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

// Allocate implements Surface.
func (s *ImageSurface) Allocate(width, height int) {
	if width <= 0 || height <= 0 {
		s.img = nil
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
}

// SetPixel implements Surface.
func (s *ImageSurface) SetPixel(x, y int, c color.RGBA) {
	if s.img == nil || !image.Pt(x, y).In(s.img.Bounds()) {
		return
	}
	s.img.SetRGBA(x, y, c)
}

// Blit implements Surface.
func (s *ImageSurface) Blit(x, y int, src image.Image) {
	if s.img == nil {
		return
	}
	r := src.Bounds().Sub(src.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(s.img, r, src, src.Bounds().Min, draw.Src)
}

// Size implements Surface.
func (s *ImageSurface) Size() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image returns the backing bitmap, or nil before allocation. The decoders
// mutate it in place; callers that need a stable copy must make one.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}
