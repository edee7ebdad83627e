// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"encoding/binary"

	"github.com/juju/errors"
)

// ButtonMask represents the pointer button state in a pointer event.
type ButtonMask uint8

// Pointer buttons.
const (
	ButtonLeft ButtonMask = 1 << iota
	ButtonMiddle
	ButtonRight
)

// SendKeyEvent sends a KeyEvent message (0x04) with an explicit X11 keysym.
func (c *Client) SendKeyEvent(keysym uint32, down bool) error {
	var buf bytes.Buffer
	buf.WriteByte(msgKeyEvent)
	if down {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write([]byte{0, 0})
	binary.Write(&buf, binary.BigEndian, keysym)
	return errors.Trace(c.write(buf.Bytes()))
}

// SendKey sends a press or release of a named key.
func (c *Client) SendKey(key Key, down bool) error {
	sym, ok := key.Keysym()
	if !ok {
		return errors.Errorf("no keysym for key %d", key)
	}
	return errors.Trace(c.SendKeyEvent(sym, down))
}

// SendRune sends a press or release of a text character; the keysym is the
// character's Unicode code point.
func (c *Client) SendRune(r rune, down bool) error {
	return errors.Trace(c.SendKeyEvent(uint32(r), down))
}

// TypeString synthesizes typing: each character is sent as a key press
// followed by a key release.
func (c *Client) TypeString(s string) error {
	for _, r := range s {
		if err := c.SendRune(r, true); err != nil {
			return errors.Trace(err)
		}
		if err := c.SendRune(r, false); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// SendPointerEvent sends a PointerEvent message (0x05) with the current
// button state and pointer position.
func (c *Client) SendPointerEvent(buttons ButtonMask, x, y uint16) error {
	var buf bytes.Buffer
	buf.WriteByte(msgPointerEvent)
	buf.WriteByte(byte(buttons))
	binary.Write(&buf, binary.BigEndian, x)
	binary.Write(&buf, binary.BigEndian, y)
	return errors.Trace(c.write(buf.Bytes()))
}
