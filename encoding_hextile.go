// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

// Hextile subencoding mask bits (RFC 6143 §7.7.4).
const (
	hextileRaw                 = 1
	hextileBackgroundSpecified = 2
	hextileForegroundSpecified = 4
	hextileAnySubrects         = 8
	hextileSubrectsColoured    = 16

	hextileTileSize = 16
)

// decodeHextile handles a Hextile rectangle (encoding 5): 16x16 tiles in
// row-major order, each led by a subencoding mask. The exact byte count of
// a tile is computed from peeked bytes before anything is consumed; when
// the tile is incomplete the decoder suspends with (tileX, tileY) preserved
// in the cursor. Background and foreground colors carry over between tiles
// and between rectangles within the same update.
func (c *Client) decodeHextile(rect Rectangle) error {
	bpp := c.format.bytesPerPixel()

	startX := c.cursor.tileX
	for ty := c.cursor.tileY; ty < int(rect.Height); ty += hextileTileSize {
		th := min(hextileTileSize, int(rect.Height)-ty)
		for tx := startX; tx < int(rect.Width); tx += hextileTileSize {
			tw := min(hextileTileSize, int(rect.Width)-tx)

			need, err := c.hextileTileNeed(tw, th, bpp)
			if err == nil && !c.buf.has(need) {
				err = errNeedMore
			}
			if err != nil {
				c.cursor.tileX = tx
				c.cursor.tileY = ty
				return err
			}
			c.hextileDecodeTile(rect, tx, ty, tw, th, bpp, c.buf.next(need))
		}
		startX = 0
	}
	return nil
}

// hextileTileNeed peeks the subencoding mask (and, when present, the
// subrectangle count) and returns the complete byte length of the tile
// body. Nothing is consumed.
func (c *Client) hextileTileNeed(tw, th, bpp int) (int, error) {
	p := c.buf.peek(1)
	if len(p) < 1 {
		return 0, errNeedMore
	}
	sub := p[0]

	if sub&hextileRaw != 0 {
		return 1 + tw*th*bpp, nil
	}

	n := 1
	if sub&hextileBackgroundSpecified != 0 {
		n += bpp
	}
	if sub&hextileForegroundSpecified != 0 {
		n += bpp
	}
	if sub&hextileAnySubrects != 0 {
		p = c.buf.peek(n + 1)
		if len(p) < n+1 {
			return 0, errNeedMore
		}
		count := int(p[n])
		n++
		per := 2
		if sub&hextileSubrectsColoured != 0 {
			per += bpp
		}
		n += count * per
	}
	return n, nil
}

// hextileDecodeTile paints one complete tile body into the surface.
func (c *Client) hextileDecodeTile(rect Rectangle, tx, ty, tw, th, bpp int, body []byte) {
	originX := int(rect.X) + tx
	originY := int(rect.Y) + ty

	sub := body[0]
	off := 1

	if sub&hextileRaw != 0 {
		for y := 0; y < th; y++ {
			for x := 0; x < tw; x++ {
				pixel := c.format.pixelAt(body[off:])
				off += bpp
				c.surface.SetPixel(originX+x, originY+y, c.format.rgba(pixel))
			}
		}
		return
	}

	if sub&hextileBackgroundSpecified != 0 {
		c.cursor.background = c.format.pixelAt(body[off:])
		off += bpp
	}
	if sub&hextileForegroundSpecified != 0 {
		c.cursor.foreground = c.format.pixelAt(body[off:])
		off += bpp
	}

	bg := c.format.rgba(c.cursor.background)
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			c.surface.SetPixel(originX+x, originY+y, bg)
		}
	}

	if sub&hextileAnySubrects == 0 {
		return
	}

	count := int(body[off])
	off++
	for i := 0; i < count; i++ {
		pixel := c.cursor.foreground
		if sub&hextileSubrectsColoured != 0 {
			pixel = c.format.pixelAt(body[off:])
			off += bpp
		}
		xy := body[off]
		wh := body[off+1]
		off += 2

		sx := int(xy >> 4)
		sy := int(xy & 0x0F)
		sw := int(wh>>4) + 1
		sh := int(wh&0x0F) + 1

		fg := c.format.rgba(pixel)
		for y := 0; y < sh && sy+y < th; y++ {
			for x := 0; x < sw && sx+x < tw; x++ {
				c.surface.SetPixel(originX+sx+x, originY+sy+y, fg)
			}
		}
	}
}
