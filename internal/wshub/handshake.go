package wshub

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// websocketMagicGUID is the fixed GUID every websocket server appends to the
// client key before hashing, per RFC 6455 section 1.3.
const websocketMagicGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// ErrMissingWebSocketKey means the upgrade request carried no
// Sec-WebSocket-Key header. The connection is dropped without registration.
var ErrMissingWebSocketKey = errors.New("upgrade request missing Sec-WebSocket-Key header")

// acceptToken computes the Sec-WebSocket-Accept value for a client key:
// base64 of the SHA-1 of the key concatenated with the magic GUID.
func acceptToken(key string) string {
	sum := sha1.Sum([]byte(key + websocketMagicGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// upgrade performs the server side of the websocket opening handshake on a
// raw connection. It reads the HTTP upgrade request, derives the accept
// token, and writes the 101 response. It returns an error for a malformed
// request or a missing key header, in which case nothing has been promised
// to the peer and the caller should drop the connection.
func upgrade(conn net.Conn, r *bufio.Reader) error {
	req, err := http.ReadRequest(r)
	if err != nil {
		return fmt.Errorf("reading upgrade request: %w", err)
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return ErrMissingWebSocketKey
	}

	response := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + acceptToken(key) + "\r\n\r\n"

	if _, err := conn.Write([]byte(response)); err != nil {
		return fmt.Errorf("writing upgrade response: %w", err)
	}

	return nil
}
