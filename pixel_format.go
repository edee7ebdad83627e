// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"encoding/binary"
	"image/color"

	"github.com/juju/errors"
)

// pixelFormatSize is the wire size of a pixel format descriptor.
const pixelFormatSize = 16

// PixelFormat describes how the server encodes pixel values on the wire,
// per RFC 6143 §7.4. Channel values are extracted from a packed pixel as
// (pixel >> shift) & max, where the maxima are power-of-two-minus-one masks.
type PixelFormat struct {
	// BPP is the number of bits per packed pixel: 8, 16, or 32.
	BPP uint8

	// Depth is the number of useful bits within a pixel value.
	Depth uint8

	// BigEndian selects the byte order of multi-byte pixel values.
	BigEndian bool

	// TrueColor reports whether pixels carry direct RGB channel values.
	// Color-map formats are not supported by this client.
	TrueColor bool

	// RedMax, GreenMax, BlueMax are the per-channel maximum values.
	RedMax   uint16
	GreenMax uint16
	BlueMax  uint16

	// RedShift, GreenShift, BlueShift position each channel within the pixel.
	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// parsePixelFormat decodes the 16-byte wire representation.
func parsePixelFormat(p []byte) (PixelFormat, error) {
	if len(p) < pixelFormatSize {
		return PixelFormat{}, errors.Errorf("pixel format needs %d bytes, got %d", pixelFormatSize, len(p))
	}
	pf := PixelFormat{
		BPP:        p[0],
		Depth:      p[1],
		BigEndian:  p[2] != 0,
		TrueColor:  p[3] != 0,
		RedMax:     binary.BigEndian.Uint16(p[4:6]),
		GreenMax:   binary.BigEndian.Uint16(p[6:8]),
		BlueMax:    binary.BigEndian.Uint16(p[8:10]),
		RedShift:   p[10],
		GreenShift: p[11],
		BlueShift:  p[12],
	}
	switch pf.BPP {
	case 8, 16, 32:
	default:
		return pf, errors.Errorf("unsupported bits-per-pixel %d", pf.BPP)
	}
	return pf, nil
}

// bytes returns the 16-byte wire representation, including the three
// trailing padding bytes.
func (pf *PixelFormat) bytes() [pixelFormatSize]byte {
	var p [pixelFormatSize]byte
	p[0] = pf.BPP
	p[1] = pf.Depth
	if pf.BigEndian {
		p[2] = 1
	}
	if pf.TrueColor {
		p[3] = 1
	}
	binary.BigEndian.PutUint16(p[4:6], pf.RedMax)
	binary.BigEndian.PutUint16(p[6:8], pf.GreenMax)
	binary.BigEndian.PutUint16(p[8:10], pf.BlueMax)
	p[10] = pf.RedShift
	p[11] = pf.GreenShift
	p[12] = pf.BlueShift
	return p
}

// bytesPerPixel is the packed pixel width in bytes.
func (pf *PixelFormat) bytesPerPixel() int {
	return int(pf.BPP) / 8
}

// compactPixelBytes is the CPIXEL/TPIXEL width used by ZRLE and Tight:
// three bytes when the format is 32-bpp true colour with all channel maxima
// fitting in a byte, otherwise the natural pixel width.
func (pf *PixelFormat) compactPixelBytes() int {
	if pf.BPP == 32 && pf.TrueColor &&
		pf.RedMax <= 255 && pf.GreenMax <= 255 && pf.BlueMax <= 255 {
		return 3
	}
	return pf.bytesPerPixel()
}

// pixelAt reads one packed pixel from p honoring the format's width and
// byte order.
func (pf *PixelFormat) pixelAt(p []byte) uint32 {
	switch pf.BPP {
	case 8:
		return uint32(p[0])
	case 16:
		if pf.BigEndian {
			return uint32(binary.BigEndian.Uint16(p))
		}
		return uint32(binary.LittleEndian.Uint16(p))
	default:
		if pf.BigEndian {
			return binary.BigEndian.Uint32(p)
		}
		return binary.LittleEndian.Uint32(p)
	}
}

// compactPixelAt reads one CPIXEL/TPIXEL from p: the three non-padding
// channel bytes in the format's byte order, or a full pixel when the
// compact form does not apply.
func (pf *PixelFormat) compactPixelAt(p []byte) uint32 {
	if pf.compactPixelBytes() != 3 {
		return pf.pixelAt(p)
	}
	if pf.BigEndian {
		return uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
	}
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
}

// rgb extracts the raw channel values from a packed pixel. The values are
// in the format's own range (0..max per channel), not scaled.
func (pf *PixelFormat) rgb(pixel uint32) (r, g, b uint16) {
	r = uint16(pixel>>pf.RedShift) & pf.RedMax
	g = uint16(pixel>>pf.GreenShift) & pf.GreenMax
	b = uint16(pixel>>pf.BlueShift) & pf.BlueMax
	return r, g, b
}

// pixel composes a packed pixel from raw channel values; the inverse of rgb.
func (pf *PixelFormat) pixel(r, g, b uint16) uint32 {
	return uint32(r&pf.RedMax)<<pf.RedShift |
		uint32(g&pf.GreenMax)<<pf.GreenShift |
		uint32(b&pf.BlueMax)<<pf.BlueShift
}

// rgba converts a packed pixel to an opaque 8-bit-per-channel color for
// painting into the ARGB32 surface, scaling each channel by its maximum.
func (pf *PixelFormat) rgba(pixel uint32) color.RGBA {
	r, g, b := pf.rgb(pixel)
	return color.RGBA{
		R: scaleChannel(r, pf.RedMax),
		G: scaleChannel(g, pf.GreenMax),
		B: scaleChannel(b, pf.BlueMax),
		A: 0xFF,
	}
}

func scaleChannel(v, max uint16) uint8 {
	if max == 0 {
		return 0
	}
	if max == 255 {
		return uint8(v)
	}
	return uint8((uint32(v)*255 + uint32(max)/2) / uint32(max))
}
