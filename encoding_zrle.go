// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

// ZRLE subencoding ranges (RFC 6143 §7.7.6).
const (
	zrleRawSubencoding   = 0
	zrleSolidSubencoding = 1
	zrlePlainRLE         = 128

	zrleTileSize = 64
)

// zrleReader reads tile data from the rectangle-wide inflate stream.
type zrleReader struct {
	r       io.Reader
	scratch [4]byte
}

func (z *zrleReader) byte() (byte, error) {
	if _, err := io.ReadFull(z.r, z.scratch[:1]); err != nil {
		return 0, errors.Trace(err)
	}
	return z.scratch[0], nil
}

// cpixel reads one compressed pixel in CPIXEL form.
func (z *zrleReader) cpixel(pf *PixelFormat) (uint32, error) {
	n := pf.compactPixelBytes()
	if _, err := io.ReadFull(z.r, z.scratch[:n]); err != nil {
		return 0, errors.Trace(err)
	}
	return pf.compactPixelAt(z.scratch[:n]), nil
}

// runLength reads a ZRLE run length: each byte contributes its value and a
// byte of 255 continues the sequence; the final length is the sum plus one.
func (z *zrleReader) runLength() (int, error) {
	n := 1
	for {
		b, err := z.byte()
		if err != nil {
			return 0, errors.Trace(err)
		}
		n += int(b)
		if b != 255 {
			return n, nil
		}
	}
}

// decodeZRLE handles a ZRLE rectangle (encoding 16): a u32 length of
// zlib-compressed data that inflates, through the session-wide stream, into
// 64x64 tiles. Nothing is consumed until the entire compressed chunk has
// arrived, so tile decoding never suspends. A decode failure drops the
// remainder of the rectangle but leaves the wire framing intact.
func (c *Client) decodeZRLE(rect Rectangle) error {
	p := c.buf.peek(4)
	if len(p) < 4 {
		return errNeedMore
	}
	length := int(binary.BigEndian.Uint32(p))
	if !c.buf.has(4 + length) {
		return errNeedMore
	}
	c.buf.next(4)
	data := c.buf.next(length)
	if length == 0 {
		return nil
	}

	zr, err := c.streams.zrle.feed(data)
	if err != nil {
		return errors.Annotate(err, "zrle")
	}
	return errors.Trace(c.zrleDecodeTiles(rect, &zrleReader{r: zr}))
}

// zrleDecodeTiles paints the decompressed tile stream.
func (c *Client) zrleDecodeTiles(rect Rectangle, z *zrleReader) error {
	for ty := 0; ty < int(rect.Height); ty += zrleTileSize {
		th := min(zrleTileSize, int(rect.Height)-ty)
		for tx := 0; tx < int(rect.Width); tx += zrleTileSize {
			tw := min(zrleTileSize, int(rect.Width)-tx)
			if err := c.zrleDecodeTile(int(rect.X)+tx, int(rect.Y)+ty, tw, th, z); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

func (c *Client) zrleDecodeTile(originX, originY, tw, th int, z *zrleReader) error {
	sub, err := z.byte()
	if err != nil {
		return errors.Trace(err)
	}

	switch {
	case sub == zrleRawSubencoding:
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				pixel, err := z.cpixel(&c.format)
				if err != nil {
					return errors.Trace(err)
				}
				c.surface.SetPixel(originX+x, originY+y, c.format.rgba(pixel))
			}
		}

	case sub == zrleSolidSubencoding:
		pixel, err := z.cpixel(&c.format)
		if err != nil {
			return errors.Trace(err)
		}
		rgba := c.format.rgba(pixel)
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				c.surface.SetPixel(originX+x, originY+y, rgba)
			}
		}

	case sub >= 2 && sub <= 16:
		return errors.Trace(c.zrlePackedPalette(originX, originY, tw, th, int(sub), z))

	case sub == zrlePlainRLE:
		pos := 0
		total := tw * th
		for pos < total {
			pixel, err := z.cpixel(&c.format)
			if err != nil {
				return errors.Trace(err)
			}
			run, err := z.runLength()
			if err != nil {
				return errors.Trace(err)
			}
			rgba := c.format.rgba(pixel)
			for i := 0; i < run && pos < total; i++ {
				c.surface.SetPixel(originX+pos%tw, originY+pos/tw, rgba)
				pos++
			}
		}

	case sub >= 130:
		return errors.Trace(c.zrlePaletteRLE(originX, originY, tw, th, int(sub)-128, z))

	default:
		// 17..127 and 129 are reserved; a well-formed stream never sends
		// them, and there is no way to resynchronize mid-tile.
		return errors.Errorf("reserved ZRLE subencoding %d", sub)
	}
	return nil
}

// zrlePackedPalette decodes a packed-palette tile: the palette followed by
// indices packed at 1, 2, or 4 bits, each row padded to a whole byte with
// the most significant bits leftmost.
func (c *Client) zrlePackedPalette(originX, originY, tw, th, size int, z *zrleReader) error {
	palette := make([]uint32, size)
	for i := range palette {
		pixel, err := z.cpixel(&c.format)
		if err != nil {
			return errors.Trace(err)
		}
		palette[i] = pixel
	}

	var bits uint
	switch {
	case size <= 2:
		bits = 1
	case size <= 4:
		bits = 2
	default:
		bits = 4
	}
	mask := byte(1<<bits) - 1

	for y := 0; y < th; y++ {
		var b byte
		var nbits uint
		for x := 0; x < tw; x++ {
			if nbits == 0 {
				var err error
				if b, err = z.byte(); err != nil {
					return errors.Trace(err)
				}
				nbits = 8
			}
			nbits -= bits
			idx := int(b >> nbits & mask)
			if idx < size {
				c.surface.SetPixel(originX+x, originY+y, c.format.rgba(palette[idx]))
			}
		}
	}
	return nil
}

// zrlePaletteRLE decodes a palette-RLE tile: index bytes where a set high
// bit announces a run length in the plain-RLE form.
func (c *Client) zrlePaletteRLE(originX, originY, tw, th, size int, z *zrleReader) error {
	palette := make([]uint32, size)
	for i := range palette {
		pixel, err := z.cpixel(&c.format)
		if err != nil {
			return errors.Trace(err)
		}
		palette[i] = pixel
	}

	pos := 0
	total := tw * th
	for pos < total {
		b, err := z.byte()
		if err != nil {
			return errors.Trace(err)
		}
		run := 1
		if b&0x80 != 0 {
			if run, err = z.runLength(); err != nil {
				return errors.Trace(err)
			}
		}
		idx := int(b & 0x7F)
		if idx >= size {
			return errors.Errorf("ZRLE palette index %d out of range (palette size %d)", idx, size)
		}
		rgba := c.format.rgba(palette[idx])
		for i := 0; i < run && pos < total; i++ {
			c.surface.SetPixel(originX+pos%tw, originY+pos/tw, rgba)
			pos++
		}
	}
	return nil
}
