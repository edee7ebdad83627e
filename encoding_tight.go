// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"image/color"

	"github.com/juju/errors"
)

// Tight compression modes (high nibble of the control byte) and filters.
const (
	tightModeFill = 0x08
	tightModeJPEG = 0x09

	tightFilterCopy     = 0
	tightFilterPalette  = 1
	tightFilterGradient = 2

	// Bodies shorter than this are sent raw, without a length or zlib.
	tightMinToCompress = 12
)

// decodeTight handles a Tight rectangle (encoding 7). The control byte's
// low nibble resets the matching zlib streams; the high nibble selects
// Fill, JPEG, or Basic compression. The complete byte need of the
// rectangle is computed from peeked bytes before anything is consumed, so
// a partial rectangle suspends without side effects — including the
// stream resets, which must happen exactly once.
func (c *Client) decodeTight(rect Rectangle) error {
	p := c.buf.peek(1)
	if len(p) < 1 {
		return errNeedMore
	}
	ctrl := p[0]
	mode := ctrl >> 4
	tp := c.format.compactPixelBytes()

	switch {
	case mode == tightModeFill:
		if !c.buf.has(1 + tp) {
			return errNeedMore
		}
		body := c.buf.next(1 + tp)
		c.resetTightStreams(ctrl)
		rgba := c.format.rgba(c.format.compactPixelAt(body[1:]))
		for y := 0; y < int(rect.Height); y++ {
			for x := 0; x < int(rect.Width); x++ {
				c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, rgba)
			}
		}
		return nil

	case mode == tightModeJPEG:
		length, lenBytes, ok := c.peekCompactLength(1)
		if !ok {
			return errNeedMore
		}
		if !c.buf.has(1 + lenBytes + length) {
			return errNeedMore
		}
		c.buf.next(1 + lenBytes)
		data := c.buf.next(length)
		c.resetTightStreams(ctrl)
		img, err := c.jpeg.Decode(data)
		if err != nil {
			return errors.Annotate(err, "tight jpeg")
		}
		c.surface.Blit(int(rect.X), int(rect.Y), img)
		return nil

	case ctrl&0x80 == 0:
		return c.decodeTightBasic(rect, ctrl, tp)

	default:
		// Modes 0x0A..0x0F are invalid; the framing is unrecoverable.
		c.buf.next(1)
		return errors.Errorf("invalid Tight compression mode %#02x", mode)
	}
}

// decodeTightBasic handles Basic compression: an optional filter byte, an
// optional palette, and a body that is either raw (under 12 bytes) or
// zlib-compressed into one of the four persistent streams.
func (c *Client) decodeTightBasic(rect Rectangle, ctrl byte, tp int) error {
	mode := ctrl >> 4
	streamID := int(mode & 0x03)
	hasFilter := mode&0x04 != 0

	off := 1
	filter := byte(tightFilterCopy)
	if hasFilter {
		p := c.buf.peek(off + 1)
		if len(p) < off+1 {
			return errNeedMore
		}
		filter = p[off]
		off++
	}

	numColors := 0
	paletteOff := 0
	if filter == tightFilterPalette {
		p := c.buf.peek(off + 1)
		if len(p) < off+1 {
			return errNeedMore
		}
		numColors = int(p[off]) + 1
		off++
		paletteOff = off
		off += numColors * tp
	}

	w, h := int(rect.Width), int(rect.Height)
	var bodyLen int
	switch {
	case filter == tightFilterPalette && numColors <= 2:
		bodyLen = (w + 7) / 8 * h
	case filter == tightFilterPalette:
		bodyLen = w * h
	default:
		// Copy, Gradient, and any unknown filter id carry full TPIXEL rows;
		// unknown filters decode as Copy.
		bodyLen = w * h * tp
	}

	var head, body []byte
	if bodyLen < tightMinToCompress {
		if !c.buf.has(off + bodyLen) {
			return errNeedMore
		}
		head = c.buf.next(off + bodyLen)
		c.resetTightStreams(ctrl)
		body = head[off:]
	} else {
		length, lenBytes, ok := c.peekCompactLength(off)
		if !ok {
			return errNeedMore
		}
		if !c.buf.has(off + lenBytes + length) {
			return errNeedMore
		}
		head = c.buf.next(off + lenBytes + length)
		c.resetTightStreams(ctrl)
		body = make([]byte, bodyLen)
		if err := c.streams.tight[streamID].inflate(head[off+lenBytes:], body); err != nil {
			return errors.Annotatef(err, "tight stream %d", streamID)
		}
	}

	switch filter {
	case tightFilterPalette:
		palette := make([]color.RGBA, numColors)
		for i := range palette {
			palette[i] = c.format.rgba(c.format.compactPixelAt(head[paletteOff+i*tp:]))
		}
		c.tightPaintPalette(rect, palette, body)
	case tightFilterGradient:
		c.tightPaintGradient(rect, tp, body)
	default:
		c.tightPaintCopy(rect, tp, body)
	}
	return nil
}

// tightPaintCopy paints raw TPIXEL rows.
func (c *Client) tightPaintCopy(rect Rectangle, tp int, body []byte) {
	off := 0
	for y := 0; y < int(rect.Height); y++ {
		for x := 0; x < int(rect.Width); x++ {
			pixel := c.format.compactPixelAt(body[off:])
			off += tp
			c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, c.format.rgba(pixel))
		}
	}
}

// tightPaintPalette paints indexed rows: 1-bit indices with the MSB
// leftmost and byte-aligned rows for two colors, 8-bit indices otherwise.
func (c *Client) tightPaintPalette(rect Rectangle, palette []color.RGBA, body []byte) {
	w, h := int(rect.Width), int(rect.Height)
	if len(palette) <= 2 {
		rowBytes := (w + 7) / 8
		for y := 0; y < h; y++ {
			row := body[y*rowBytes:]
			for x := 0; x < w; x++ {
				idx := int(row[x/8] >> (7 - x%8) & 1)
				if idx < len(palette) {
					c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, palette[idx])
				}
			}
		}
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := int(body[y*w+x])
			if idx < len(palette) {
				c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, palette[idx])
			}
		}
	}
}

// tightPaintGradient reconstructs gradient-filtered rows. Each wire value
// is an additive error term against the predictor
// clamp(left + above - above_left, 0, 255); reconstruction is mod 256 per
// channel, with zero predictors outside the rectangle.
func (c *Client) tightPaintGradient(rect Rectangle, tp int, body []byte) {
	w, h := int(rect.Width), int(rect.Height)
	prev := make([]int, w*3)
	cur := make([]int, w*3)

	off := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixel := c.format.compactPixelAt(body[off:])
			off += tp
			er, eg, eb := c.format.rgb(pixel)

			for ch, e := range [3]int{int(er), int(eg), int(eb)} {
				left, above, diag := 0, 0, 0
				if x > 0 {
					left = cur[(x-1)*3+ch]
				}
				if y > 0 {
					above = prev[x*3+ch]
					if x > 0 {
						diag = prev[(x-1)*3+ch]
					}
				}
				pred := left + above - diag
				if pred < 0 {
					pred = 0
				} else if pred > 255 {
					pred = 255
				}
				cur[x*3+ch] = (pred + e) & 0xFF
			}

			c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, color.RGBA{
				R: uint8(cur[x*3]),
				G: uint8(cur[x*3+1]),
				B: uint8(cur[x*3+2]),
				A: 0xFF,
			})
		}
		prev, cur = cur, prev
	}
}

// resetTightStreams applies the control byte's low-nibble stream resets.
// The reset applies whatever the compression mode, including Fill and JPEG.
func (c *Client) resetTightStreams(ctrl byte) {
	for i := 0; i < 4; i++ {
		if ctrl&(1<<i) != 0 {
			log.Debugf("resetting Tight zlib stream %d", i)
			c.streams.tight[i].reset()
		}
	}
}

// peekCompactLength reads the Tight compact length representation at the
// given offset without consuming: one to three bytes of seven value bits
// each, bit 7 continuing to the next byte. ok is false while the bytes
// needed to determine the length have not arrived.
func (c *Client) peekCompactLength(off int) (length, n int, ok bool) {
	p := c.buf.peek(off + 3)
	if len(p) <= off {
		return 0, 0, false
	}
	b0 := p[off]
	if b0&0x80 == 0 {
		return int(b0), 1, true
	}
	if len(p) <= off+1 {
		return 0, 0, false
	}
	b1 := p[off+1]
	if b1&0x80 == 0 {
		return int(b0&0x7F) | int(b1)<<7, 2, true
	}
	if len(p) <= off+2 {
		return 0, 0, false
	}
	b2 := p[off+2]
	return int(b0&0x7F) | int(b1&0x7F)<<7 | int(b2)<<14, 3, true
}
