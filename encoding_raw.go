// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

// decodeRaw handles a Raw rectangle (encoding 0): width*height packed
// pixels in scan order, in the format's declared byte order. The whole body
// is waited for before any byte is consumed.
func (c *Client) decodeRaw(rect Rectangle) error {
	bpp := c.format.bytesPerPixel()
	n := rect.area() * bpp
	if !c.buf.has(n) {
		return errNeedMore
	}
	body := c.buf.next(n)

	off := 0
	for y := 0; y < int(rect.Height); y++ {
		for x := 0; x < int(rect.Width); x++ {
			pixel := c.format.pixelAt(body[off:])
			off += bpp
			c.surface.SetPixel(int(rect.X)+x, int(rect.Y)+y, c.format.rgba(pixel))
		}
	}
	return nil
}
