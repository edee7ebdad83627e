// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_KeyEvent(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	require.NoError(t, c.SendKeyEvent(0x61, true))
	assert.Equal(t, []byte{0x04, 1, 0, 0, 0x00, 0x00, 0x00, 0x61}, out.Bytes())

	out.Reset()
	require.NoError(t, c.SendKeyEvent(0x61, false))
	assert.Equal(t, []byte{0x04, 0, 0, 0, 0x00, 0x00, 0x00, 0x61}, out.Bytes())
}

func TestInput_NamedKeys(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	require.NoError(t, c.SendKey(KeyReturn, true))
	assert.Equal(t, []byte{0x04, 1, 0, 0, 0x00, 0x00, 0xFF, 0x0D}, out.Bytes())

	tests := []struct {
		key Key
		sym uint32
	}{
		{KeyBackspace, 0xff08},
		{KeyDelete, 0xffff},
		{KeyLeft, 0xff51},
		{KeyDown, 0xff54},
		{KeyF1, 0xffbe},
		{KeyF12, 0xffc9},
		{KeyShift, 0xffe1},
		{KeyAlt, 0xffe9},
		{KeyPageDown, 0xff56},
	}
	for _, tt := range tests {
		sym, ok := tt.key.Keysym()
		require.True(t, ok)
		assert.Equal(t, tt.sym, sym)
	}
}

func TestInput_PointerEvent(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	require.NoError(t, c.SendPointerEvent(ButtonLeft|ButtonRight, 0x0102, 0x0304))
	assert.Equal(t, []byte{0x05, 0x05, 0x01, 0x02, 0x03, 0x04}, out.Bytes())

	out.Reset()
	require.NoError(t, c.SendPointerEvent(0, 10, 20))
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x0A, 0x00, 0x14}, out.Bytes())
}

func TestInput_TypeString(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	require.NoError(t, c.TypeString("hi"))

	want := []byte{
		0x04, 1, 0, 0, 0x00, 0x00, 0x00, 'h',
		0x04, 0, 0, 0, 0x00, 0x00, 0x00, 'h',
		0x04, 1, 0, 0, 0x00, 0x00, 0x00, 'i',
		0x04, 0, 0, 0, 0x00, 0x00, 0x00, 'i',
	}
	assert.Equal(t, want, out.Bytes())
}

func TestInput_NotConnected(t *testing.T) {
	c := New(nil, nil)
	assert.ErrorIs(t, c.SendKeyEvent(0x61, true), ErrNotConnected)
	assert.ErrorIs(t, c.SendPointerEvent(0, 0, 0), ErrNotConnected)
}
