// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Signal Slot Inc.

// Package vnc implements the client side of the RFB (remote framebuffer)
// protocol: version and security negotiation, VNC authentication,
// session initialization, and continuous decoding of framebuffer updates
// in the Raw, Hextile, ZRLE, and Tight encodings.
//
// The package is transport-agnostic. The host owns the socket and pumps
// bytes into the state machine, which never blocks: every decoder either
// consumes a complete protocol unit or leaves the buffer untouched and
// waits for more.
//
//	conn, err := net.Dial("tcp", "localhost:5900")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	client := vnc.New(conn, &vnc.Config{
//		Password: "secret",
//		Handlers: vnc.Handlers{
//			ImageChanged: func(region image.Rectangle) {
//				// repaint region from client.Image()
//			},
//		},
//	})
//	client.Connected()
//
//	buf := make([]byte, 32*1024)
//	for {
//		n, err := conn.Read(buf)
//		if err != nil {
//			client.Disconnected()
//			break
//		}
//		client.Feed(buf[:n])
//	}
//
// Input events flow the other way: SendKeyEvent, SendPointerEvent, and
// TypeString encode RFB client-to-server messages onto the same
// connection.
package vnc
