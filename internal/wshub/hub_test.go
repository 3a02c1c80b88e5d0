package wshub

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/txsentinel/txsentinel/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize the global logger so the hub's connection logging does not panic.
	_ = logger.Init(logger.WithLevel("error"))
}

func startHub(t *testing.T) *service {
	t.Helper()

	hub := New("127.0.0.1:0")
	require.NoError(t, hub.Start(t.Context()))
	t.Cleanup(hub.Close)

	return hub
}

// dialAndHandshake opens a TCP connection to the hub and completes the
// websocket opening handshake, returning the connection and a reader
// positioned after the 101 response.
func dialAndHandshake(t *testing.T, addr net.Addr) (net.Conn, *bufio.Reader) {
	t.Helper()

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	request := "GET /ws HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	_, err = conn.Write([]byte(request))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	res, err := http.ReadResponse(reader, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)

	return conn, reader
}

// readFrame reads one short text frame (payload <= 125 bytes) from the
// reader.
func readFrame(t *testing.T, conn net.Conn, reader *bufio.Reader) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	header := make([]byte, 2)
	_, err := io.ReadFull(reader, header)
	require.NoError(t, err)
	require.Equal(t, byte(0x81), header[0])

	payload := make([]byte, header[1])
	_, err = io.ReadFull(reader, payload)
	require.NoError(t, err)

	return payload
}

func clientCount(hub *service) int {
	return len(hub.snapshot())
}

func TestHub(t *testing.T) {
	t.Run("start twice fails", func(t *testing.T) {
		hub := startHub(t)
		require.ErrorIs(t, hub.Start(t.Context()), ErrServiceAlreadyStarted)
	})

	t.Run("successful handshake registers the client", func(t *testing.T) {
		hub := startHub(t)
		dialAndHandshake(t, hub.Addr())

		require.Eventually(t, func() bool { return clientCount(hub) == 1 },
			2*time.Second, 10*time.Millisecond)
	})

	t.Run("handshake without a key header is dropped without registration", func(t *testing.T) {
		hub := startHub(t)

		conn, err := net.Dial("tcp", hub.Addr().String())
		require.NoError(t, err)
		defer conn.Close()

		_, err = conn.Write([]byte("GET /ws HTTP/1.1\r\nHost: localhost\r\n\r\n"))
		require.NoError(t, err)

		// The hub closes the connection without promising anything.
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err = conn.Read(make([]byte, 1))
		require.Error(t, err)

		assert.Equal(t, 0, clientCount(hub))
	})

	t.Run("broadcast reaches every registered client", func(t *testing.T) {
		hub := startHub(t)

		conn1, reader1 := dialAndHandshake(t, hub.Addr())
		conn2, reader2 := dialAndHandshake(t, hub.Addr())
		require.Eventually(t, func() bool { return clientCount(hub) == 2 },
			2*time.Second, 10*time.Millisecond)

		hub.Broadcast(t.Context(), []byte("hello"))

		assert.Equal(t, []byte("hello"), readFrame(t, conn1, reader1))
		assert.Equal(t, []byte("hello"), readFrame(t, conn2, reader2))
	})

	t.Run("broadcast json delivers the marshaled document", func(t *testing.T) {
		hub := startHub(t)

		conn, reader := dialAndHandshake(t, hub.Addr())
		require.Eventually(t, func() bool { return clientCount(hub) == 1 },
			2*time.Second, 10*time.Millisecond)

		require.NoError(t, hub.BroadcastJSON(t.Context(), map[string]string{"type": "fraud"}))

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(readFrame(t, conn, reader), &decoded))
		assert.Equal(t, map[string]string{"type": "fraud"}, decoded)
	})

	t.Run("peer close removes the client", func(t *testing.T) {
		hub := startHub(t)

		conn, _ := dialAndHandshake(t, hub.Addr())
		require.Eventually(t, func() bool { return clientCount(hub) == 1 },
			2*time.Second, 10*time.Millisecond)

		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool { return clientCount(hub) == 0 },
			2*time.Second, 10*time.Millisecond)
	})

	t.Run("write failure drops that client and spares the rest", func(t *testing.T) {
		hub := startHub(t)

		// A client whose connection is already gone from under the hub.
		broken, other := net.Pipe()
		require.NoError(t, broken.Close())
		require.NoError(t, other.Close())
		hub.register(&client{id: "broken", conn: broken})

		conn, reader := dialAndHandshake(t, hub.Addr())
		require.Eventually(t, func() bool { return clientCount(hub) == 2 },
			2*time.Second, 10*time.Millisecond)

		hub.Broadcast(t.Context(), []byte("still here"))

		assert.Equal(t, []byte("still here"), readFrame(t, conn, reader))
		require.Eventually(t, func() bool { return clientCount(hub) == 1 },
			2*time.Second, 10*time.Millisecond)
	})
}
