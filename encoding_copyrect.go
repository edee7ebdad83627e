// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

// copyRectBodySize is the CopyRect body: source x and y, u16 each.
const copyRectBodySize = 4

// decodeCopyRect consumes a CopyRect body (encoding 1) without applying
// the copy. The encoding is not advertised; this keeps framing intact if a
// server sends it anyway.
func (c *Client) decodeCopyRect(rect Rectangle) error {
	if !c.buf.has(copyRectBodySize) {
		return errNeedMore
	}
	c.buf.next(copyRectBodySize)
	log.Debugf("skipping CopyRect rectangle %dx%d at (%d,%d)", rect.Width, rect.Height, rect.X, rect.Y)
	return nil
}
