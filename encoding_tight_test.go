// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTight_Fill(t *testing.T) {
	tc := waitingClient(t, 8, 8)

	body := append([]byte{0x80}, cpixelLE(0, 128, 255)...)
	tc.client.Feed(fbUpdateMessage(rectMessage(1, 1, 4, 4, encodingTight, body)))

	img := tc.client.Image()
	want := color.RGBA{G: 128, B: 255, A: 255}
	assert.Equal(t, want, img.RGBAAt(1, 1))
	assert.Equal(t, want, img.RGBAAt(4, 4))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, img.RGBAAt(0, 0), "outside the rectangle untouched")
	assert.Equal(t, white, img.RGBAAt(5, 5))
}

func TestTight_BasicCopyRaw(t *testing.T) {
	tc := waitingClient(t, 4, 4)

	// 3x1 copy body is 9 bytes, under the 12-byte compression threshold:
	// sent raw with no length field.
	var body bytes.Buffer
	body.WriteByte(0x00)
	body.Write(cpixelLE(10, 11, 12))
	body.Write(cpixelLE(20, 21, 22))
	body.Write(cpixelLE(30, 31, 32))
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 3, 1, encodingTight, body.Bytes())))

	img := tc.client.Image()
	assert.Equal(t, color.RGBA{R: 10, G: 11, B: 12, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 20, G: 21, B: 22, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 30, G: 31, B: 32, A: 255}, img.RGBAAt(2, 0))
}

func TestTight_BasicCopyCompressed(t *testing.T) {
	tc := waitingClient(t, 4, 4)

	var pixels bytes.Buffer
	for i := 0; i < 16; i++ {
		pixels.Write(cpixelLE(byte(i*16), byte(255-i*16), byte(i)))
	}
	chunks := deflateParts(t, pixels.Bytes())

	var body bytes.Buffer
	body.WriteByte(0x00) // basic, stream 0, no filter byte
	require.Less(t, len(chunks[0]), 128, "single compact length byte")
	body.WriteByte(byte(len(chunks[0])))
	body.Write(chunks[0])
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 4, 4, encodingTight, body.Bytes())))

	img := tc.client.Image()
	for i := 0; i < 16; i++ {
		got := img.RGBAAt(i%4, i/4)
		assert.Equal(t, uint8(i*16), got.R, "pixel %d", i)
		assert.Equal(t, uint8(255-i*16), got.G, "pixel %d", i)
	}
	require.Len(t, tc.regions, 1)
}

func TestTight_PaletteTwoColors(t *testing.T) {
	tc := waitingClient(t, 8, 8)

	// 8x2 palette body is 2 bytes (one bit per pixel, rows byte-aligned),
	// sent raw. MSB is the leftmost pixel.
	var body bytes.Buffer
	body.WriteByte(0x40) // basic, stream 0, filter id follows
	body.WriteByte(tightFilterPalette)
	body.WriteByte(1) // two colors
	body.Write(cpixelLE(255, 0, 0))
	body.Write(cpixelLE(0, 0, 255))
	body.WriteByte(0xAA) // row 0: 1 0 1 0 1 0 1 0
	body.WriteByte(0x55) // row 1: 0 1 0 1 0 1 0 1
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 8, 2, encodingTight, body.Bytes())))

	img := tc.client.Image()
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	assert.Equal(t, blue, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(1, 0))
	assert.Equal(t, red, img.RGBAAt(0, 1))
	assert.Equal(t, blue, img.RGBAAt(1, 1))
}

func TestTight_PaletteIndexed(t *testing.T) {
	tc := waitingClient(t, 4, 4)

	// Three colors use one index byte per pixel; 2x2 body is 4 bytes, raw.
	var body bytes.Buffer
	body.WriteByte(0x40)
	body.WriteByte(tightFilterPalette)
	body.WriteByte(2) // three colors
	body.Write(cpixelLE(1, 0, 0))
	body.Write(cpixelLE(0, 2, 0))
	body.Write(cpixelLE(0, 0, 3))
	body.Write([]byte{0, 1, 2, 0})
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 2, 2, encodingTight, body.Bytes())))

	img := tc.client.Image()
	assert.Equal(t, uint8(1), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(2), img.RGBAAt(1, 0).G)
	assert.Equal(t, uint8(3), img.RGBAAt(0, 1).B)
	assert.Equal(t, uint8(1), img.RGBAAt(1, 1).R)
}

func TestTight_Gradient(t *testing.T) {
	tc := waitingClient(t, 4, 4)

	// 3x1 gradient body, raw. The wire carries additive error terms
	// against clamp(left + above - above_left, 0, 255), mod 256.
	var body bytes.Buffer
	body.WriteByte(0x40)
	body.WriteByte(tightFilterGradient)
	body.Write(cpixelLE(10, 20, 30))    // predictor 0 -> (10, 20, 30)
	body.Write(cpixelLE(5, 5, 5))       // left predictor -> (15, 25, 35)
	body.Write(cpixelLE(250, 250, 250)) // wraps mod 256 -> (9, 19, 29)
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 3, 1, encodingTight, body.Bytes())))

	img := tc.client.Image()
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 15, G: 25, B: 35, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{R: 9, G: 19, B: 29, A: 255}, img.RGBAAt(2, 0))
}

func TestTight_GradientUsesRowAbove(t *testing.T) {
	tc := waitingClient(t, 4, 4)

	// 2x2 gradient body is 12 bytes, which crosses the compression
	// threshold: zlib-compressed into stream 1.
	var pixels bytes.Buffer
	pixels.Write(cpixelLE(100, 100, 100)) // (100,100,100)
	pixels.Write(cpixelLE(0, 0, 0))       // left=100 -> (100,100,100)
	pixels.Write(cpixelLE(0, 0, 0))       // above=100 -> (100,100,100)
	pixels.Write(cpixelLE(1, 1, 1))       // 100+100-100+1 -> (101,101,101)
	chunks := deflateParts(t, pixels.Bytes())

	var body bytes.Buffer
	body.WriteByte(0x50) // basic, stream 1, filter id follows
	body.WriteByte(tightFilterGradient)
	body.WriteByte(byte(len(chunks[0])))
	body.Write(chunks[0])
	tc.client.Feed(fbUpdateMessage(rectMessage(0, 0, 2, 2, encodingTight, body.Bytes())))

	img := tc.client.Image()
	assert.Equal(t, uint8(100), img.RGBAAt(1, 0).R)
	assert.Equal(t, uint8(100), img.RGBAAt(0, 1).R)
	assert.Equal(t, uint8(101), img.RGBAAt(1, 1).R)
}

// stubJPEG returns a fixed uniform image regardless of input.
type stubJPEG struct {
	w, h int
	c    color.RGBA
}

func (s stubJPEG) Decode(data []byte) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			img.SetRGBA(x, y, s.c)
		}
	}
	return img, nil
}

func TestTight_JPEGBlit(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	tc := newTestClient(t, &Config{JPEG: stubJPEG{w: 2, h: 2, c: green}})
	tc.client.Feed(handshake38None(8, 8, rgb888LE(), ""))
	tc.out.Reset()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	body := append([]byte{0x90, byte(len(payload))}, payload...)
	tc.client.Feed(fbUpdateMessage(rectMessage(3, 3, 2, 2, encodingTight, body)))

	img := tc.client.Image()
	assert.Equal(t, green, img.RGBAAt(3, 3))
	assert.Equal(t, green, img.RGBAAt(4, 4))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	assert.Equal(t, white, img.RGBAAt(5, 5))
}

// TestTight_StreamContinuityAndReset drives one zlib stream across two
// rectangles, then resets it and starts a fresh stream on the third.
func TestTight_StreamContinuityAndReset(t *testing.T) {
	tc := waitingClient(t, 8, 8)

	quad := func(r, g, b byte) []byte {
		var p bytes.Buffer
		for i := 0; i < 4; i++ {
			p.Write(cpixelLE(r, g, b))
		}
		return p.Bytes()
	}

	first := deflateParts(t, quad(1, 1, 1), quad(2, 2, 2))
	basic := func(ctrl byte, chunk []byte) []byte {
		return append([]byte{ctrl, byte(len(chunk))}, chunk...)
	}

	tc.client.Feed(fbUpdateMessage(
		rectMessage(0, 0, 2, 2, encodingTight, basic(0x00, first[0])),
		rectMessage(2, 0, 2, 2, encodingTight, basic(0x00, first[1])),
	))
	img := tc.client.Image()
	assert.Equal(t, uint8(1), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(2), img.RGBAAt(2, 0).R, "second rectangle needs the surviving dictionary")

	// Control bit 0 resets stream 0; the body is a fresh zlib stream.
	fresh := deflateParts(t, quad(3, 3, 3))
	tc.client.Feed(fbUpdateMessage(
		rectMessage(4, 0, 2, 2, encodingTight, basic(0x01, fresh[0])),
	))
	assert.Equal(t, uint8(3), img.RGBAAt(4, 0).R)
}

func TestTight_CompactLength(t *testing.T) {
	c := New(&bytes.Buffer{}, nil)

	tests := []struct {
		name  string
		bytes []byte
		value int
		size  int
	}{
		{"one byte", []byte{0x7F}, 127, 1},
		{"two bytes", []byte{0x90, 0x4E}, 10000, 2},
		{"three bytes", []byte{0xFF, 0xFF, 0xFF}, 0x3FFFFF, 3},
		{"zero", []byte{0x00}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.buf.reset()
			c.buf.write(tt.bytes)
			length, n, ok := c.peekCompactLength(0)
			require.True(t, ok)
			assert.Equal(t, tt.value, length)
			assert.Equal(t, tt.size, n)
			assert.Equal(t, len(tt.bytes), c.buf.available(), "peek must not consume")
		})
	}

	t.Run("incomplete", func(t *testing.T) {
		c.buf.reset()
		c.buf.write([]byte{0x90})
		_, _, ok := c.peekCompactLength(0)
		assert.False(t, ok)
	})
}
