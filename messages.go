// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"encoding/binary"

	"github.com/juju/errors"
)

// Client-to-server message types (RFC 6143 §7.5).
const (
	msgSetPixelFormat           uint8 = 0x00
	msgSetEncodings             uint8 = 0x02
	msgFramebufferUpdateRequest uint8 = 0x03
	msgKeyEvent                 uint8 = 0x04
	msgPointerEvent             uint8 = 0x05
)

// sendSetPixelFormat echoes the server's pixel format back, committing the
// session to the format ServerInit announced.
func (c *Client) sendSetPixelFormat() error {
	var buf bytes.Buffer
	buf.WriteByte(msgSetPixelFormat)
	buf.Write([]byte{0, 0, 0})
	pf := c.format.bytes()
	buf.Write(pf[:])
	return c.write(buf.Bytes())
}

// sendSetEncodings advertises the decoders in preference order: Tight when
// enabled, then ZRLE, Hextile, Raw.
func (c *Client) sendSetEncodings() error {
	encodings := make([]int32, 0, 4)
	if !c.disableTight {
		encodings = append(encodings, encodingTight)
	}
	encodings = append(encodings, encodingZRLE, encodingHextile, encodingRaw)

	var buf bytes.Buffer
	buf.WriteByte(msgSetEncodings)
	buf.WriteByte(0)
	binary.Write(&buf, binary.BigEndian, uint16(len(encodings)))
	for _, e := range encodings {
		binary.Write(&buf, binary.BigEndian, e)
	}
	return c.write(buf.Bytes())
}

// sendFramebufferUpdateRequest asks for the whole framebuffer. The first
// request after ServerInit is non-incremental; every request after a
// completed update is incremental.
func (c *Client) sendFramebufferUpdateRequest(incremental bool) error {
	var buf bytes.Buffer
	buf.WriteByte(msgFramebufferUpdateRequest)
	if incremental {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(0))
	binary.Write(&buf, binary.BigEndian, uint16(c.width))  // #nosec G115 - framebuffer dims come from u16
	binary.Write(&buf, binary.BigEndian, uint16(c.height)) // #nosec G115
	return c.write(buf.Bytes())
}

// write sends bytes to the borrowed transport, preserving program order.
func (c *Client) write(p []byte) error {
	if c.w == nil {
		return errors.Trace(ErrNotConnected)
	}
	if _, err := c.w.Write(p); err != nil {
		return errors.Annotate(err, "transport write")
	}
	return nil
}
