// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"encoding/binary"
)

// Rectangle encoding types understood by this client (RFC 6143 §7.7, plus
// Tight from the community encodings registry).
const (
	encodingRaw      int32 = 0
	encodingCopyRect int32 = 1
	encodingHextile  int32 = 5
	encodingTight    int32 = 7
	encodingZRLE     int32 = 16
)

// rectangleHeaderSize is the wire size of a rectangle header including the
// encoding type.
const rectangleHeaderSize = 12

// Rectangle addresses an axis-aligned region of the framebuffer.
type Rectangle struct {
	X      uint16
	Y      uint16
	Width  uint16
	Height uint16
}

// area returns the pixel count of the rectangle.
func (r Rectangle) area() int {
	return int(r.Width) * int(r.Height)
}

// parseRectangleHeader decodes the 12-byte rectangle header: position,
// size, and the signed encoding type.
func parseRectangleHeader(p []byte) (Rectangle, int32) {
	rect := Rectangle{
		X:      binary.BigEndian.Uint16(p[0:2]),
		Y:      binary.BigEndian.Uint16(p[2:4]),
		Width:  binary.BigEndian.Uint16(p[4:6]),
		Height: binary.BigEndian.Uint16(p[6:8]),
	}
	encoding := int32(binary.BigEndian.Uint32(p[8:12]))
	return rect, encoding
}

// updateCursor is the resumable iterator over one FramebufferUpdate
// message. While active, all incoming bytes belong to the current update
// and no new server messages are dispatched. The Hextile fields let a
// partially received rectangle resume at the exact tile it stopped at;
// background and foreground persist across tiles and rectangles within
// the update.
type updateCursor struct {
	active     bool
	headerRead bool
	total      int
	index      int
	rect       Rectangle
	encoding   int32

	// Hextile resume state.
	tileX      int
	tileY      int
	background uint32
	foreground uint32
}

// begin arms the cursor for an update of n rectangles.
func (u *updateCursor) begin(n int) {
	*u = updateCursor{active: true, total: n}
}

// nextRectangle records completion of the current rectangle.
func (u *updateCursor) nextRectangle() {
	u.headerRead = false
	u.index++
	u.tileX = 0
	u.tileY = 0
}

// finish deactivates the cursor.
func (u *updateCursor) finish() {
	*u = updateCursor{}
}
