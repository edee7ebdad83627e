// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgb888LE() PixelFormat {
	return PixelFormat{
		BPP: 32, Depth: 24, BigEndian: false, TrueColor: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0,
	}
}

func TestPixelFormat_WireRoundTrip(t *testing.T) {
	pf := rgb888LE()
	wire := pf.bytes()

	parsed, err := parsePixelFormat(wire[:])
	require.NoError(t, err)
	assert.Equal(t, pf, parsed)
	assert.Equal(t, byte(0), wire[13], "padding")
	assert.Equal(t, byte(0), wire[14], "padding")
	assert.Equal(t, byte(0), wire[15], "padding")
}

func TestPixelFormat_RejectsOddBPP(t *testing.T) {
	pf := rgb888LE()
	wire := pf.bytes()
	wire[0] = 24
	_, err := parsePixelFormat(wire[:])
	assert.Error(t, err)
}

func TestPixelFormat_ShiftRoundTrip(t *testing.T) {
	formats := []struct {
		name string
		pf   PixelFormat
	}{
		{"bgr233", PixelFormat{BPP: 8, Depth: 8, TrueColor: true,
			RedMax: 7, GreenMax: 7, BlueMax: 3, RedShift: 0, GreenShift: 3, BlueShift: 6}},
		{"rgb565 little endian", PixelFormat{BPP: 16, Depth: 16, TrueColor: true,
			RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}},
		{"rgb565 big endian", PixelFormat{BPP: 16, Depth: 16, BigEndian: true, TrueColor: true,
			RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}},
		{"rgb888 little endian", rgb888LE()},
		{"rgb888 big endian", PixelFormat{BPP: 32, Depth: 24, BigEndian: true, TrueColor: true,
			RedMax: 255, GreenMax: 255, BlueMax: 255, RedShift: 16, GreenShift: 8, BlueShift: 0}},
	}

	for _, tt := range formats {
		t.Run(tt.name, func(t *testing.T) {
			pf := tt.pf
			for _, want := range [][3]uint16{
				{0, 0, 0},
				{pf.RedMax, 0, 0},
				{0, pf.GreenMax, 0},
				{0, 0, pf.BlueMax},
				{pf.RedMax, pf.GreenMax, pf.BlueMax},
				{1, 2, 3},
			} {
				pixel := pf.pixel(want[0], want[1], want[2])
				r, g, b := pf.rgb(pixel)
				assert.Equal(t, want, [3]uint16{r, g, b})
			}
		})
	}
}

func TestPixelFormat_PixelAtHonorsEndianness(t *testing.T) {
	le := rgb888LE()
	be := le
	be.BigEndian = true

	p := []byte{0x11, 0x22, 0x33, 0x44}
	assert.Equal(t, uint32(0x44332211), le.pixelAt(p))
	assert.Equal(t, uint32(0x11223344), be.pixelAt(p))
}

func TestPixelFormat_CompactPixelBytes(t *testing.T) {
	pf := rgb888LE()
	assert.Equal(t, 3, pf.compactPixelBytes(), "32bpp true colour with byte maxima compacts to 3")

	wide := pf
	wide.GreenMax = 1023
	assert.Equal(t, 4, wide.compactPixelBytes(), "wide channels keep the full pixel")

	sixteen := PixelFormat{BPP: 16, TrueColor: true, RedMax: 31, GreenMax: 63, BlueMax: 31}
	assert.Equal(t, 2, sixteen.compactPixelBytes())
}

func TestPixelFormat_CompactPixelAt(t *testing.T) {
	le := rgb888LE()
	// Little-endian layout carries B, G, R in ascending addresses.
	pixel := le.compactPixelAt([]byte{0x10, 0x20, 0x30})
	r, g, b := le.rgb(pixel)
	assert.Equal(t, [3]uint16{0x30, 0x20, 0x10}, [3]uint16{r, g, b})

	be := le
	be.BigEndian = true
	pixel = be.compactPixelAt([]byte{0x30, 0x20, 0x10})
	r, g, b = be.rgb(pixel)
	assert.Equal(t, [3]uint16{0x30, 0x20, 0x10}, [3]uint16{r, g, b})
}

func TestPixelFormat_RGBAScaling(t *testing.T) {
	pf := PixelFormat{BPP: 16, TrueColor: true,
		RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}

	full := pf.pixel(31, 63, 31)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, pf.rgba(full))

	zero := pf.pixel(0, 0, 0)
	assert.Equal(t, color.RGBA{A: 255}, pf.rgba(zero))
}
