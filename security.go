// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// parseSecurity dispatches security negotiation by protocol version. RFB
// 3.3 has the server dictate a u32 type; 3.7 and 3.8 offer a list the
// client picks from.
func (c *Client) parseSecurity() error {
	if c.securityRejected {
		return c.finishSecurityFailure(ErrSecurityRejected)
	}
	switch c.version {
	case ProtocolVersion33:
		return c.parseSecurity33()
	default:
		return c.parseSecurity37()
	}
}

// parseSecurity33 reads the server-dictated security type. Type 0 carries
// a reason string and is terminal.
func (c *Client) parseSecurity33() error {
	if !c.buf.has(4) {
		return errNeedMore
	}
	value := binary.BigEndian.Uint32(c.buf.next(4))
	switch SecurityType(value) {
	case SecurityTypeNone:
		c.setSecurityType(SecurityTypeNone)
		c.enterClientInit()
	case SecurityTypeVNCAuth:
		c.setSecurityType(SecurityTypeVNCAuth)
		c.state = stateVNCAuthentication
	case SecurityTypeInvalid:
		c.setSecurityType(SecurityTypeInvalid)
		c.securityRejected = true
		return c.finishSecurityFailure(ErrSecurityRejected)
	default:
		log.Warningf("server dictated unsupported security type %d", value)
		c.setSecurityType(SecurityTypeInvalid)
		c.emitAuthenticationFailed("")
		c.fail(errors.Annotatef(ErrSecurityRejected, "server dictated type %d", value))
	}
	return nil
}

// parseSecurity37 reads the offered type list for RFB 3.7/3.8, prefers
// VNC authentication over None, and writes the selection byte back. An
// empty list carries a reason string and is terminal.
func (c *Client) parseSecurity37() error {
	p := c.buf.peek(1)
	if len(p) < 1 {
		return errNeedMore
	}
	count := int(p[0])
	if count == 0 {
		// The count byte is followed by the failure reason; wait until the
		// whole message has arrived before consuming either.
		if _, ok := c.peekReasonLength(1); !ok {
			return errNeedMore
		}
		c.buf.next(1)
		c.setSecurityType(SecurityTypeInvalid)
		c.securityRejected = true
		return c.finishSecurityFailure(ErrSecurityRejected)
	}

	if !c.buf.has(1 + count) {
		return errNeedMore
	}
	c.buf.next(1)
	offered := c.buf.next(count)

	selected := SecurityTypeInvalid
	for _, t := range offered {
		switch SecurityType(t) {
		case SecurityTypeVNCAuth:
			selected = SecurityTypeVNCAuth
		case SecurityTypeNone:
			if selected != SecurityTypeVNCAuth {
				selected = SecurityTypeNone
			}
		}
	}

	if selected == SecurityTypeInvalid {
		log.Warningf("no acceptable security type among %v", offered)
		c.setSecurityType(SecurityTypeInvalid)
		c.emitAuthenticationFailed("")
		c.fail(errors.Annotatef(ErrSecurityRejected, "offered types %v", offered))
		return nil
	}

	c.setSecurityType(selected)
	if err := c.write([]byte{byte(selected)}); err != nil {
		log.Warningf("failed to send security type selection: %v", err)
	}

	switch selected {
	case SecurityTypeVNCAuth:
		c.state = stateVNCAuthentication
	case SecurityTypeNone:
		if c.version == ProtocolVersion38 {
			c.state = stateSecurityResult
		} else {
			c.enterClientInit()
		}
	}
	return nil
}

// parseVNCAuthentication waits for the 16-byte challenge. Without a
// password the challenge is retained and the host is prompted; the
// response is written as soon as SetPassword is called.
func (c *Client) parseVNCAuthentication() error {
	if c.pendingChallenge == nil {
		if !c.buf.has(challengeSize) {
			return errNeedMore
		}
		c.pendingChallenge = append([]byte(nil), c.buf.next(challengeSize)...)
	}
	if !c.passwordSet {
		if !c.passwordPrompted {
			c.passwordPrompted = true
			log.Info("authentication challenge received, waiting for password")
			c.emitPasswordRequested()
		}
		// The handler may have supplied the password synchronously.
		if !c.passwordSet {
			return errNeedMore
		}
	}
	if c.pendingChallenge != nil {
		c.respondToChallenge()
	}
	return nil
}

// respondToChallenge encrypts the stored challenge and advances the state
// machine. RFB 3.3 has no SecurityResult; the session proceeds straight to
// ClientInit.
func (c *Client) respondToChallenge() {
	response, err := EncryptChallenge(c.password, c.pendingChallenge)
	if err != nil {
		log.Errorf("challenge encryption failed: %v", err)
		c.fail(errors.Annotate(err, "challenge encryption"))
		return
	}
	c.pendingChallenge = nil
	c.passwordPrompted = false
	if err := c.write(response); err != nil {
		log.Warningf("failed to send challenge response: %v", err)
	}
	if c.version == ProtocolVersion33 {
		c.enterClientInit()
	} else {
		c.state = stateSecurityResult
	}
}

// parseSecurityResult reads the u32 handshake result. Zero proceeds to
// initialization; anything else is an authentication failure, with a
// reason string on RFB 3.8.
func (c *Client) parseSecurityResult() error {
	if c.securityRejected {
		return c.finishSecurityFailure(ErrAuthenticationFailed)
	}
	if !c.buf.has(4) {
		return errNeedMore
	}
	result := binary.BigEndian.Uint32(c.buf.next(4))
	if result == 0 {
		c.enterClientInit()
		return nil
	}

	if c.version == ProtocolVersion38 {
		c.securityRejected = true
		return c.finishSecurityFailure(ErrAuthenticationFailed)
	}
	log.Warning("authentication failed")
	c.emitAuthenticationFailed("")
	c.fail(errors.Trace(ErrAuthenticationFailed))
	return nil
}

// finishSecurityFailure reads the u32-prefixed reason string, surfaces the
// failure as sentinel, and parks the session. The server closes afterwards.
func (c *Client) finishSecurityFailure(sentinel error) error {
	reason, err := c.readReasonString()
	if err != nil {
		return err
	}
	log.Warningf("security handshake failed: %s", reason)
	c.emitAuthenticationFailed(reason)
	c.securityRejected = false
	if reason != "" {
		c.fail(errors.Annotate(sentinel, reason))
	} else {
		c.fail(errors.Trace(sentinel))
	}
	return nil
}

// readReasonString consumes a u32 length-prefixed reason string once it
// has fully arrived.
func (c *Client) readReasonString() (string, error) {
	p := c.buf.peek(4)
	if len(p) < 4 {
		return "", errNeedMore
	}
	n := int(binary.BigEndian.Uint32(p))
	if !c.buf.has(4 + n) {
		return "", errNeedMore
	}
	c.buf.next(4)
	return string(c.buf.next(n)), nil
}

// peekReasonLength checks whether a u32 length-prefixed reason string
// starting at the given offset has fully arrived.
func (c *Client) peekReasonLength(off int) (int, bool) {
	p := c.buf.peek(off + 4)
	if len(p) < off+4 {
		return 0, false
	}
	n := int(binary.BigEndian.Uint32(p[off:]))
	if !c.buf.has(off + 4 + n) {
		return 0, false
	}
	return n, true
}

// enterClientInit writes the shared-session flag and moves on to
// ServerInit. ClientInit needs nothing from the server, so the transition
// is synchronous.
func (c *Client) enterClientInit() {
	if err := c.write([]byte{1}); err != nil {
		log.Warningf("failed to send ClientInit: %v", err)
	}
	c.state = stateServerInit
}
