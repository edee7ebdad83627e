// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"encoding/binary"
	"image"
	"io"

	"github.com/juju/errors"
)

// ProtocolVersion is the negotiated RFB protocol version. It is set once
// during the handshake and only moves forward.
type ProtocolVersion int

// Supported protocol versions.
const (
	ProtocolVersionUnknown ProtocolVersion = iota
	ProtocolVersion33
	ProtocolVersion37
	ProtocolVersion38
)

// String returns the RFB version string for the protocol version.
func (v ProtocolVersion) String() string {
	switch v {
	case ProtocolVersion33:
		return "RFB 003.003"
	case ProtocolVersion37:
		return "RFB 003.007"
	case ProtocolVersion38:
		return "RFB 003.008"
	default:
		return "unknown"
	}
}

// SecurityType is the negotiated RFB security type. Values above VNCAuth
// exist on the wire but are reported and rejected.
type SecurityType int

// Security types.
const (
	SecurityTypeUnknown SecurityType = -1
	SecurityTypeInvalid SecurityType = 0
	SecurityTypeNone    SecurityType = 1
	SecurityTypeVNCAuth SecurityType = 2
)

// String returns a readable name for the security type.
func (t SecurityType) String() string {
	switch t {
	case SecurityTypeInvalid:
		return "invalid"
	case SecurityTypeNone:
		return "none"
	case SecurityTypeVNCAuth:
		return "vnc-authentication"
	case SecurityTypeUnknown:
		return "unknown"
	default:
		return "unsupported"
	}
}

// handshakeState tracks the protocol state machine.
type handshakeState int

const (
	stateProtocolVersion handshakeState = iota
	stateSecurity
	stateVNCAuthentication
	stateSecurityResult
	stateServerInit
	stateWaiting
	stateFailed
)

// Handlers is the observer set for session notifications. Nil members are
// skipped. Handlers run synchronously on the byte-feeding goroutine; a
// handler may call back into the client (SetPassword, senders) but must
// not block.
type Handlers struct {
	// ConnectionStateChanged fires on Connected and Disconnected.
	ConnectionStateChanged func(connected bool)

	// ProtocolVersionChanged fires when the handshake settles the version.
	ProtocolVersionChanged func(version ProtocolVersion)

	// SecurityTypeChanged fires when the security type is selected.
	SecurityTypeChanged func(securityType SecurityType)

	// FramebufferSizeChanged fires when ServerInit announces the
	// framebuffer dimensions, and with (0, 0) on reset.
	FramebufferSizeChanged func(width, height int)

	// ImageChanged fires once per decoded rectangle with the repainted
	// region.
	ImageChanged func(region image.Rectangle)

	// PasswordRequested fires when an authentication challenge arrives
	// before a password was set. The session pauses until SetPassword.
	PasswordRequested func()

	// AuthenticationFailed fires when the server rejects the security
	// handshake or reports a non-zero SecurityResult. The reason string is
	// empty when the protocol version does not carry one.
	AuthenticationFailed func(reason string)

	// Failed fires when the session parks in a terminal state. The error
	// matches ErrUnsupportedVersion, ErrSecurityRejected, or
	// ErrAuthenticationFailed under errors.Is; it is also available from
	// Err until the next Connected.
	Failed func(err error)
}

// Config carries session configuration. The zero value is usable: no
// password, Tight enabled, the default in-memory surface and libjpeg
// decoder.
type Config struct {
	// Password for VNC authentication. A password set here counts as
	// "present" only when non-empty; use SetPassword to supply an
	// intentionally empty one.
	Password string

	// DisableTight stops Tight from being advertised and decoded.
	DisableTight bool

	// Surface overrides the pixel sink.
	Surface Surface

	// JPEG overrides the decoder for Tight's JPEG mode.
	JPEG JPEGDecoder

	// Handlers receive session notifications.
	Handlers Handlers
}

// Client drives the RFB protocol over a borrowed byte transport. The host
// owns the socket: it calls Connected when the transport comes up, Feed for
// every arriving chunk, and Disconnected on teardown; outbound messages go
// to the writer given to New. The client is single-threaded cooperative —
// all methods must be called from one goroutine.
type Client struct {
	w        io.Writer
	handlers Handlers

	buf   recvBuffer
	state handshakeState

	version      ProtocolVersion
	securityType SecurityType

	password         string
	passwordSet      bool
	passwordPrompted bool
	pendingChallenge []byte
	securityRejected bool
	disableTight     bool

	format  PixelFormat
	width   int
	height  int
	surface Surface
	jpeg    JPEGDecoder

	cursor  updateCursor
	streams streamPool

	failure    error
	processing bool
}

// New creates a client writing outbound messages to transport. The
// transport must outlive the client; the client never closes it.
func New(transport io.Writer, config *Config) *Client {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	c := &Client{
		w:            transport,
		handlers:     cfg.Handlers,
		state:        stateProtocolVersion,
		version:      ProtocolVersionUnknown,
		securityType: SecurityTypeUnknown,
		disableTight: cfg.DisableTight,
		surface:      cfg.Surface,
		jpeg:         cfg.JPEG,
	}
	if cfg.Password != "" {
		c.password = cfg.Password
		c.passwordSet = true
	}
	if c.surface == nil {
		c.surface = NewImageSurface()
	}
	if c.jpeg == nil {
		c.jpeg = libjpegDecoder{}
	}
	return c
}

// Connected tells the client the transport is up; the handshake starts
// with the server's version banner.
func (c *Client) Connected() {
	log.Info("connected to VNC server")
	c.resetSession()
	c.failure = nil
	c.emitConnectionState(true)
}

// Disconnected tells the client the transport is gone. All session state,
// including decompression contexts and any in-progress update, is
// discarded.
func (c *Client) Disconnected() {
	log.Info("disconnected from VNC server")
	c.resetSession()
	c.emitConnectionState(false)
}

// Feed hands the client bytes that arrived on the transport and runs the
// state machine as far as the bytes allow. Reentrant calls (from handler
// callbacks) only buffer; the outer pass picks the bytes up.
func (c *Client) Feed(p []byte) {
	c.buf.write(p)
	c.process()
}

// SetPassword supplies the authentication password. If a challenge is
// already pending the response is encrypted and written immediately.
func (c *Client) SetPassword(password string) {
	c.password = password
	c.passwordSet = true
	if c.state == stateVNCAuthentication && c.pendingChallenge != nil {
		c.respondToChallenge()
		c.process()
	}
}

// ProtocolVersion returns the negotiated protocol version.
func (c *Client) ProtocolVersion() ProtocolVersion { return c.version }

// SecurityType returns the negotiated security type.
func (c *Client) SecurityType() SecurityType { return c.securityType }

// FramebufferWidth returns the remote framebuffer width in pixels.
func (c *Client) FramebufferWidth() int { return c.width }

// FramebufferHeight returns the remote framebuffer height in pixels.
func (c *Client) FramebufferHeight() int { return c.height }

// PixelFormat returns the pixel format announced by ServerInit.
func (c *Client) PixelFormat() PixelFormat { return c.format }

// Image returns the framebuffer bitmap when the session uses the default
// surface, nil otherwise.
func (c *Client) Image() *image.RGBA {
	if s, ok := c.surface.(*ImageSurface); ok {
		return s.Image()
	}
	return nil
}

// Err returns the error that parked the session in a terminal state, or
// nil while the session is live. Match with errors.Is against
// ErrUnsupportedVersion, ErrSecurityRejected, and ErrAuthenticationFailed.
func (c *Client) Err() error { return c.failure }

// resetSession returns the state machine to its initial state and frees
// everything the session owns.
func (c *Client) resetSession() {
	c.state = stateProtocolVersion
	c.setProtocolVersion(ProtocolVersionUnknown)
	c.setSecurityType(SecurityTypeUnknown)
	c.buf.reset()
	c.cursor.finish()
	c.streams.reset()
	c.pendingChallenge = nil
	c.passwordPrompted = false
	c.securityRejected = false
	hadFramebuffer := c.width != 0 || c.height != 0
	c.width = 0
	c.height = 0
	c.surface.Allocate(0, 0)
	if hadFramebuffer {
		c.emitFramebufferSize(0, 0)
	}
}

// process drains the receive buffer through the state machine. The
// reentrancy guard stops handler callbacks from growing the stack; the
// loop guarantees forward progress as long as a state handler can consume.
func (c *Client) process() {
	if c.processing {
		return
	}
	c.processing = true
	defer func() { c.processing = false }()

	for {
		if err := c.step(); err != nil {
			return
		}
	}
}

// step runs the handler for the current state once. It returns nil when
// progress was made and errNeedMore when the machine is suspended.
func (c *Client) step() error {
	switch c.state {
	case stateProtocolVersion:
		return c.parseProtocolVersion()
	case stateSecurity:
		return c.parseSecurity()
	case stateVNCAuthentication:
		return c.parseVNCAuthentication()
	case stateSecurityResult:
		return c.parseSecurityResult()
	case stateServerInit:
		return c.parseServerInit()
	case stateWaiting:
		return c.parseServerMessages()
	default:
		// Terminal state: drain whatever the server still sends.
		if c.buf.available() > 0 {
			log.Debugf("discarding %d bytes in failed state", c.buf.available())
			c.buf.skip(c.buf.available())
		}
		return errNeedMore
	}
}

// fail parks the session in the terminal state and surfaces err through
// the Failed handler and Err. The server is expected to close; incoming
// bytes are drained until the host resets the session.
func (c *Client) fail(err error) {
	c.failure = err
	c.state = stateFailed
	if c.handlers.Failed != nil {
		c.handlers.Failed(err)
	}
}

// rfbVersions maps the 12-byte server banners to protocol versions.
var rfbVersions = map[string]ProtocolVersion{
	"RFB 003.003\n": ProtocolVersion33,
	"RFB 003.007\n": ProtocolVersion37,
	"RFB 003.008\n": ProtocolVersion38,
}

// parseProtocolVersion waits for the 12-byte banner, echoes it back, and
// advances to security negotiation. Anything but RFB 3.3/3.7/3.8 is a
// terminal failure; the server will close.
func (c *Client) parseProtocolVersion() error {
	if !c.buf.has(12) {
		return errNeedMore
	}
	banner := string(c.buf.next(12))
	version, ok := rfbVersions[banner]
	if !ok {
		log.Warningf("unsupported protocol version %q", banner)
		c.fail(errors.Annotatef(ErrUnsupportedVersion, "server announced %q", banner))
		return nil
	}
	if err := c.write([]byte(banner)); err != nil {
		log.Warningf("failed to echo protocol version: %v", err)
	}
	c.setProtocolVersion(version)
	c.state = stateSecurity
	return nil
}

// parseServerInit waits for the complete ServerInit message — dimensions,
// pixel format, and the name string — before consuming any of it, then
// allocates the surface and sends the post-init client messages.
func (c *Client) parseServerInit() error {
	p := c.buf.peek(24)
	if len(p) < 24 {
		return errNeedMore
	}
	nameLen := int(binary.BigEndian.Uint32(p[20:24]))
	if !c.buf.has(24 + nameLen) {
		return errNeedMore
	}

	header := c.buf.next(24)
	name := string(c.buf.next(nameLen))

	c.width = int(binary.BigEndian.Uint16(header[0:2]))
	c.height = int(binary.BigEndian.Uint16(header[2:4]))

	format, err := parsePixelFormat(header[4:20])
	if err != nil {
		log.Warningf("rejecting server pixel format: %v", err)
		c.fail(errors.Annotate(err, "server init"))
		return nil
	}
	c.format = format

	log.Infof("server %q: framebuffer %dx%d, %d bpp (depth %d)",
		name, c.width, c.height, c.format.BPP, c.format.Depth)

	c.emitFramebufferSize(c.width, c.height)
	c.surface.Allocate(c.width, c.height)

	if err := c.sendSetPixelFormat(); err != nil {
		log.Warningf("SetPixelFormat: %v", err)
	}
	if err := c.sendSetEncodings(); err != nil {
		log.Warningf("SetEncodings: %v", err)
	}
	if err := c.sendFramebufferUpdateRequest(false); err != nil {
		log.Warningf("FramebufferUpdateRequest: %v", err)
	}
	c.state = stateWaiting
	return nil
}

// parseServerMessages is the steady state: continue an in-progress update
// if one is active, otherwise dispatch the next server message.
func (c *Client) parseServerMessages() error {
	if c.cursor.active {
		return c.continueFramebufferUpdate()
	}

	p := c.buf.peek(1)
	if len(p) < 1 {
		return errNeedMore
	}
	switch p[0] {
	case 0x00: // FramebufferUpdate: type, padding, u16 rectangle count
		if !c.buf.has(4) {
			return errNeedMore
		}
		header := c.buf.next(4)
		c.cursor.begin(int(binary.BigEndian.Uint16(header[2:4])))
		return c.continueFramebufferUpdate()
	default:
		log.Warningf("unknown server message type %#02x; draining connection", p[0])
		c.buf.skip(c.buf.available())
		return errNeedMore
	}
}

// continueFramebufferUpdate advances the active update: rectangle headers,
// then the per-encoding decoders, suspending wherever bytes run out. After
// the final rectangle the next incremental update is requested.
func (c *Client) continueFramebufferUpdate() error {
	for c.cursor.index < c.cursor.total {
		if !c.cursor.headerRead {
			if !c.buf.has(rectangleHeaderSize) {
				return errNeedMore
			}
			c.cursor.rect, c.cursor.encoding = parseRectangleHeader(c.buf.next(rectangleHeaderSize))
			c.cursor.headerRead = true
			c.cursor.tileX = 0
			c.cursor.tileY = 0
		}

		painted, err := c.decodeRectangle()
		if err == errNeedMore {
			return errNeedMore
		}
		if err != nil {
			log.Warningf("dropping rectangle %d/%d (encoding %d): %v",
				c.cursor.index+1, c.cursor.total, c.cursor.encoding, err)
		} else if painted {
			rect := c.cursor.rect
			c.emitImageChanged(image.Rect(
				int(rect.X), int(rect.Y),
				int(rect.X)+int(rect.Width), int(rect.Y)+int(rect.Height)))
		}
		c.cursor.nextRectangle()
	}

	c.cursor.finish()
	if err := c.sendFramebufferUpdateRequest(true); err != nil {
		log.Warningf("FramebufferUpdateRequest: %v", err)
	}
	return nil
}

// decodeRectangle dispatches the current rectangle to its decoder. painted
// reports whether the surface changed; decoders that fail after consuming
// their bytes return an error and the update continues.
func (c *Client) decodeRectangle() (painted bool, err error) {
	switch c.cursor.encoding {
	case encodingRaw:
		return true, c.decodeRaw(c.cursor.rect)
	case encodingCopyRect:
		return false, c.decodeCopyRect(c.cursor.rect)
	case encodingHextile:
		return true, c.decodeHextile(c.cursor.rect)
	case encodingZRLE:
		return true, c.decodeZRLE(c.cursor.rect)
	case encodingTight:
		if c.disableTight {
			break
		}
		return true, c.decodeTight(c.cursor.rect)
	}
	// The server should only send what we advertised; skip the entry and
	// hope it carried no body.
	log.Warningf("unsupported encoding %d for %dx%d rectangle",
		c.cursor.encoding, c.cursor.rect.Width, c.cursor.rect.Height)
	return false, nil
}

// Notification helpers; nil handlers are skipped.

func (c *Client) setProtocolVersion(v ProtocolVersion) {
	if c.version == v {
		return
	}
	c.version = v
	if c.handlers.ProtocolVersionChanged != nil {
		c.handlers.ProtocolVersionChanged(v)
	}
}

func (c *Client) setSecurityType(t SecurityType) {
	if c.securityType == t {
		return
	}
	c.securityType = t
	if c.handlers.SecurityTypeChanged != nil {
		c.handlers.SecurityTypeChanged(t)
	}
}

func (c *Client) emitConnectionState(connected bool) {
	if c.handlers.ConnectionStateChanged != nil {
		c.handlers.ConnectionStateChanged(connected)
	}
}

func (c *Client) emitFramebufferSize(w, h int) {
	if c.handlers.FramebufferSizeChanged != nil {
		c.handlers.FramebufferSizeChanged(w, h)
	}
}

func (c *Client) emitImageChanged(r image.Rectangle) {
	if c.handlers.ImageChanged != nil {
		c.handlers.ImageChanged(r)
	}
}

func (c *Client) emitPasswordRequested() {
	if c.handlers.PasswordRequested != nil {
		c.handlers.PasswordRequested()
	}
}

func (c *Client) emitAuthenticationFailed(reason string) {
	if c.handlers.AuthenticationFailed != nil {
		c.handlers.AuthenticationFailed(reason)
	}
}
