// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_PeekDoesNotConsume(t *testing.T) {
	var b recvBuffer
	b.write([]byte{1, 2, 3})

	assert.Equal(t, []byte{1, 2}, b.peek(2))
	assert.Equal(t, []byte{1, 2, 3}, b.peek(5), "peek past end returns what is buffered")
	assert.Equal(t, 3, b.available())
}

func TestBuffer_NextConsumes(t *testing.T) {
	var b recvBuffer
	b.write([]byte{1, 2, 3, 4})

	assert.Equal(t, []byte{1, 2}, b.next(2))
	assert.Equal(t, 2, b.available())
	assert.Equal(t, []byte{3}, b.peek(1))
	assert.True(t, b.has(2))
	assert.False(t, b.has(3))
}

func TestBuffer_NextPastEndPanics(t *testing.T) {
	var b recvBuffer
	b.write([]byte{1})
	assert.Panics(t, func() { b.next(2) })
}

func TestBuffer_WriteAfterConsume(t *testing.T) {
	var b recvBuffer
	b.write([]byte{1, 2})
	b.next(2)
	b.write([]byte{3, 4})

	assert.Equal(t, 2, b.available())
	assert.Equal(t, []byte{3, 4}, b.next(2))
}

func TestBuffer_SkipClampsToAvailable(t *testing.T) {
	var b recvBuffer
	b.write([]byte{1, 2, 3})
	b.skip(10)
	assert.Equal(t, 0, b.available())
}
