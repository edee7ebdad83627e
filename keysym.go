// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

// Key identifies a named non-text key: navigation, editing, function, and
// modifier keys that have no character representation. Text input uses the
// character's Unicode code point as the keysym directly.
type Key int

// Named keys with fixed X11 keysyms.
const (
	KeyBackspace Key = iota
	KeyTab
	KeyReturn
	KeyEnter
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyShift
	KeyControl
	KeyMeta
	KeyAlt
)

// keysyms maps named keys to their X11 keysym values.
var keysyms = map[Key]uint32{
	KeyBackspace: 0xff08,
	KeyTab:       0xff09,
	KeyReturn:    0xff0d,
	KeyEnter:     0xff0d,
	KeyInsert:    0xff63,
	KeyDelete:    0xffff,
	KeyHome:      0xff50,
	KeyEnd:       0xff57,
	KeyPageUp:    0xff55,
	KeyPageDown:  0xff56,
	KeyLeft:      0xff51,
	KeyUp:        0xff52,
	KeyRight:     0xff53,
	KeyDown:      0xff54,
	KeyF1:        0xffbe,
	KeyF2:        0xffbf,
	KeyF3:        0xffc0,
	KeyF4:        0xffc1,
	KeyF5:        0xffc2,
	KeyF6:        0xffc3,
	KeyF7:        0xffc4,
	KeyF8:        0xffc5,
	KeyF9:        0xffc6,
	KeyF10:       0xffc7,
	KeyF11:       0xffc8,
	KeyF12:       0xffc9,
	KeyShift:     0xffe1,
	KeyControl:   0xffe3,
	KeyMeta:      0xffe7,
	KeyAlt:       0xffe9,
}

// Keysym returns the X11 keysym for a named key.
func (k Key) Keysym() (uint32, bool) {
	sym, ok := keysyms[k]
	return sym, ok
}
