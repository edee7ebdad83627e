// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/juju/errors"
)

// inflateStream is one long-lived zlib decompression context. Compressed
// bytes from successive rectangles are appended to the same input buffer
// and inflated by the same reader, so the dictionary carries across
// rectangles and updates. The context is torn down only on disconnect or,
// for Tight, when the server sets the stream's reset flag.
type inflateStream struct {
	in bytes.Buffer
	r  io.ReadCloser
}

// inflate appends compressed bytes and reads exactly len(out) decompressed
// bytes, the caller-computed body size.
func (s *inflateStream) inflate(compressed, out []byte) error {
	r, err := s.feed(compressed)
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := io.ReadFull(r, out); err != nil {
		return errors.Annotate(err, "inflate")
	}
	return nil
}

// feed appends compressed bytes and returns the stream reader for
// demand-driven decompression.
func (s *inflateStream) feed(compressed []byte) (io.Reader, error) {
	s.in.Write(compressed)
	if s.r == nil {
		r, err := zlib.NewReader(&s.in)
		if err != nil {
			return nil, errors.Annotate(err, "zlib stream init")
		}
		s.r = r
	}
	return s.r, nil
}

// reset tears the context down; the next use reinitializes it with a fresh
// dictionary.
func (s *inflateStream) reset() {
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.in.Reset()
}

// streamPool holds the session's decompression contexts: four independent
// streams for Tight (indexed by the rectangle's stream selector) and one
// for ZRLE.
type streamPool struct {
	tight [4]inflateStream
	zrle  inflateStream
}

// reset tears down every context; used on disconnect.
func (p *streamPool) reset() {
	for i := range p.tight {
		p.tight[i].reset()
	}
	p.zrle.reset()
}
