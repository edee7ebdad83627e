// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

// recvBuffer is the receive side of the borrowed transport: bytes pushed in
// by the host accumulate here, and the state machine consumes them under the
// peek-then-read discipline. A decoder either consumes a complete unit or
// consumes nothing.
type recvBuffer struct {
	data []byte
	off  int
}

// available reports the number of unread bytes.
func (b *recvBuffer) available() int {
	return len(b.data) - b.off
}

// has reports whether at least n unread bytes are buffered.
func (b *recvBuffer) has(n int) bool {
	return b.available() >= n
}

// peek returns up to n unread bytes without consuming them. The returned
// slice aliases the buffer and is only valid until the next write.
func (b *recvBuffer) peek(n int) []byte {
	if avail := b.available(); n > avail {
		n = avail
	}
	return b.data[b.off : b.off+n]
}

// next consumes and returns exactly n bytes. The caller must have checked
// availability; consuming past the end is a bug in the state machine.
func (b *recvBuffer) next(n int) []byte {
	if !b.has(n) {
		panic("vnc: recvBuffer.next past end of buffer")
	}
	p := b.data[b.off : b.off+n]
	b.off += n
	return p
}

// skip consumes n bytes, or everything that is buffered if n exceeds it.
func (b *recvBuffer) skip(n int) {
	if avail := b.available(); n > avail {
		n = avail
	}
	b.off += n
}

// write appends incoming transport bytes, compacting consumed space first
// so the buffer does not grow without bound across updates.
func (b *recvBuffer) write(p []byte) {
	if b.off > 0 && (b.off == len(b.data) || b.off > 4096) {
		b.data = append(b.data[:0], b.data[b.off:]...)
		b.off = 0
	}
	b.data = append(b.data, p...)
}

// reset drops all buffered bytes.
func (b *recvBuffer) reset() {
	b.data = b.data[:0]
	b.off = 0
}
