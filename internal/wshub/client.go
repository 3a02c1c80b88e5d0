package wshub

import "net"

// client is one registered websocket connection. The hub owns it from the
// moment the handshake response is written until its read loop observes a
// disconnect or a broadcast write fails.
type client struct {
	id   string
	conn net.Conn
}
