// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

package vnc

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketConn adapts a websocket connection to net.Conn so hosts can
// reach VNC servers behind websockify/noVNC endpoints with the same pump
// loop they use for TCP. Binary messages are treated as a byte stream;
// message boundaries are not preserved, which is exactly what RFB wants.
type WebsocketConn struct {
	*websocket.Conn
	leftover []byte
}

var _ net.Conn = (*WebsocketConn)(nil)

// NewWebsocketConn wraps an established websocket connection.
func NewWebsocketConn(conn *websocket.Conn) *WebsocketConn {
	return &WebsocketConn{Conn: conn}
}

// Read returns bytes from the current message, fetching the next one when
// it is exhausted. Bytes beyond len(b) are kept for the next call.
func (c *WebsocketConn) Read(b []byte) (int, error) {
	if len(c.leftover) == 0 {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.leftover = data
	}
	n := copy(b, c.leftover)
	c.leftover = c.leftover[n:]
	return n, nil
}

// Write sends b as one binary message.
func (c *WebsocketConn) Write(b []byte) (int, error) {
	if err := c.Conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// SetDeadline applies the deadline to both directions.
func (c *WebsocketConn) SetDeadline(t time.Time) error {
	if err := c.Conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.Conn.SetWriteDeadline(t)
}
