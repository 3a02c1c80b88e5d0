// Package wshub is a minimal websocket broadcast hub: it accepts TCP
// connections, performs the RFC 6455 opening handshake, keeps a registry of
// live clients, and pushes server-to-client text frames to all of them.
//
// Inbound client data is read only to detect disconnection; the hub does not
// decode incoming frames (no ping/pong, close frames or fragmentation). That
// is a scoped simplification of the protocol, not an oversight.
package wshub

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/txsentinel/txsentinel/internal/pkg/logger"

	"github.com/google/uuid"
)

// ErrServiceAlreadyStarted is returned when Start is called twice without an
// intervening Close.
var ErrServiceAlreadyStarted = errors.New("service already started")

// Service is the hub's public contract.
type Service interface {
	// Start begins listening and accepting connections, returning once the
	// accept loop is running. The hub stops when ctx is canceled or Close
	// is called.
	Start(ctx context.Context) error

	// Broadcast frames the payload as a single text frame and writes it to
	// every registered client. A failing client is removed without
	// affecting delivery to the others.
	Broadcast(ctx context.Context, payload []byte)

	// BroadcastJSON marshals v and broadcasts the resulting document.
	BroadcastJSON(ctx context.Context, v any) error

	// Addr returns the listener address, useful when the hub was started
	// on port zero.
	Addr() net.Addr

	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	addr     string
	listener net.Listener

	// clientsMu guards the registry only. Broadcast copies a snapshot
	// under this lock and performs the slow writes outside it, so a stuck
	// client never serializes registration or other broadcasts.
	clientsMu sync.Mutex
	clients   map[string]*client
}

var _ Service = (*service)(nil)

type config struct {
	listener net.Listener
}

// Option configures the hub at construction.
type Option func(*config)

// WithListener makes the hub serve an existing listener instead of opening
// one itself. Used by tests and by callers managing sockets externally.
func WithListener(ln net.Listener) Option {
	return func(c *config) {
		c.listener = ln
	}
}

// New creates a hub that will listen on addr (ignored when WithListener is
// given).
func New(addr string, opts ...Option) *service {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		addr:     addr,
		listener: cfg.listener,
		clients:  make(map[string]*client),
	}
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	if s.listener == nil {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		s.listener = ln
	}

	ctx, cancel := context.WithCancel(ctx)
	s.closeFunc = func() {
		cancel()
		_ = s.listener.Close()
		s.closeAllClients()
	}

	go s.acceptLoop(ctx, s.listener)

	s.isStarted = true
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

func (s *service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// acceptLoop accepts connections until the listener is closed. Each
// connection gets its own goroutine for the handshake and read loop so many
// long-lived client sockets are serviced while polling proceeds elsewhere.
func (s *service) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				logger.Error(ctx, "websocket accept failed", "error", err)
			}
			return
		}

		go s.handleConn(ctx, conn)
	}
}

// handleConn drives one connection through its lifecycle: handshake, then
// registration, then a read loop that only watches for disconnection. A
// failed handshake drops the connection without registering it.
func (s *service) handleConn(ctx context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)

	if err := upgrade(conn, reader); err != nil {
		logger.Warn(ctx, "websocket handshake rejected",
			"remote", conn.RemoteAddr().String(),
			"error", err,
		)
		_ = conn.Close()
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
	}
	s.register(c)

	logger.Info(ctx, "websocket client connected",
		"client.id", c.id,
		"remote", conn.RemoteAddr().String(),
	)

	s.readUntilClosed(c, reader)

	s.remove(c.id)
	logger.Info(ctx, "websocket client disconnected", "client.id", c.id)
}

// readUntilClosed drains inbound bytes from the client, returning when the
// peer closes the connection or a read fails. A zero-length read is treated
// as a close as well.
func (s *service) readUntilClosed(c *client, reader *bufio.Reader) {
	buf := make([]byte, 512)
	for {
		n, err := reader.Read(buf)
		if err != nil || n == 0 {
			return
		}
	}
}

func (s *service) register(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c.id] = c
}

// remove deletes the client from the registry and closes its connection.
// It is safe to call for an already removed id.
func (s *service) remove(id string) {
	s.clientsMu.Lock()
	c, ok := s.clients[id]
	delete(s.clients, id)
	s.clientsMu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

// snapshot returns the current set of clients. Broadcast iterates this copy
// so registry mutation during a broadcast never corrupts the iteration.
func (s *service) snapshot() []*client {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

func (s *service) Broadcast(ctx context.Context, payload []byte) {
	frame := encodeTextFrame(payload)

	for _, c := range s.snapshot() {
		if _, err := c.conn.Write(frame); err != nil {
			logger.Warn(ctx, "websocket write failed, dropping client",
				"client.id", c.id,
				"error", err,
			)
			s.remove(c.id)
		}
	}
}

func (s *service) BroadcastJSON(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.Broadcast(ctx, payload)
	return nil
}

func (s *service) closeAllClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for id, c := range s.clients {
		_ = c.conn.Close()
		delete(s.clients, id)
	}
}
