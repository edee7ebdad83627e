// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"github.com/juju/errors"
)

// Errors surfaced to callers of the public API. The terminal handshake
// errors reach callers through Handlers.Failed and Client.Err; match them
// with errors.Is.
var (
	// ErrNotConnected is returned by senders when no transport is attached.
	ErrNotConnected = errors.New("vnc: not connected")

	// ErrUnsupportedVersion indicates the server announced a protocol version
	// outside RFB 3.3/3.7/3.8.
	ErrUnsupportedVersion = errors.New("vnc: unsupported protocol version")

	// ErrSecurityRejected indicates the server offered no acceptable security
	// type, or rejected the handshake outright.
	ErrSecurityRejected = errors.New("vnc: security handshake rejected")

	// ErrAuthenticationFailed indicates the server reported a non-zero
	// SecurityResult after authentication.
	ErrAuthenticationFailed = errors.New("vnc: authentication failed")
)

// errNeedMore suspends the state machine until more bytes arrive. It never
// escapes the package; handlers that return it must not have consumed any
// bytes of the unit they were decoding.
var errNeedMore = errors.New("need more bytes")
