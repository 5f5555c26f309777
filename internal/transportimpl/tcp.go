// Package transportimpl provides concrete stream.Transport implementations.
// The session engine only depends on the stream.Transport interface; these
// are the transports a real client wires in via a stream.TransportFactory,
// grounded on the teacher's raw-socket and WebSocket client code
// (aluo96078-vkvm/internal/network).
package transportimpl

import (
	"fmt"
	"net"
	"sync"
	"time"

	"inputshare/internal/eventloop"
	"inputshare/internal/stream"
)

// TCP is a stream.Transport backed by a plain TCP connection (no TLS).
// It is the default transport.
type TCP struct {
	loop        *eventloop.Loop
	dialTimeout time.Duration

	mu       sync.Mutex
	conn     net.Conn
	buf      []byte
	closed   bool
	signaled bool // Disconnected posted at most once
}

// TCPFactory produces TCP transports. DialTimeout bounds the Connect call;
// zero means no timeout beyond the OS default.
type TCPFactory struct {
	DialTimeout time.Duration
}

// New implements stream.TransportFactory.
func (f TCPFactory) New(loop *eventloop.Loop) stream.Transport {
	return &TCP{loop: loop, dialTimeout: f.DialTimeout}
}

// Connect dials endpoint.Host:endpoint.Port on its own goroutine and
// signals TransportConnected or TransportConnectFailed on completion.
func (t *TCP) Connect(endpoint stream.Endpoint) {
	go func() {
		addr := fmt.Sprintf("%s:%d", endpoint.Host, endpoint.Port)
		dialer := net.Dialer{Timeout: t.dialTimeout}
		conn, err := dialer.Dial("tcp", addr)
		if err != nil {
			t.loop.Post(eventloop.Event{
				Type:   stream.TransportConnectFailed,
				Target: t,
				Data:   &stream.ConnectFailedInfo{What: err.Error()},
			})
			return
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
			_ = tc.SetKeepAlive(true)
			_ = tc.SetKeepAlivePeriod(30 * time.Second)
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()

		go t.readLoop(conn)
		t.loop.Post(eventloop.Event{Type: stream.TransportConnected, Target: t})
	}()
}

func (t *TCP) readLoop(conn net.Conn) {
	tmp := make([]byte, 64*1024)
	for {
		n, err := conn.Read(tmp)
		if n > 0 {
			t.mu.Lock()
			t.buf = append(t.buf, tmp[:n]...)
			t.mu.Unlock()
			t.loop.Post(eventloop.Event{Type: stream.InputReady, Target: t})
		}
		if err != nil {
			t.signalDisconnect()
			return
		}
	}
}

func (t *TCP) signalDisconnect() {
	t.mu.Lock()
	already := t.signaled
	t.signaled = true
	t.mu.Unlock()
	if !already {
		t.loop.Post(eventloop.Event{Type: stream.Disconnected, Target: t})
	}
}

// Read implements stream.Stream.
func (t *TCP) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return 0, nil
	}
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n, nil
}

// Write implements stream.Stream.
func (t *TCP) Write(p []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("tcp transport: not connected")
	}
	n, err := conn.Write(p)
	if err != nil {
		t.loop.Post(eventloop.Event{Type: stream.OutputError, Target: t})
	}
	return n, err
}

// IsReady implements stream.Stream.
func (t *TCP) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf) > 0
}

// EventTarget implements stream.Stream.
func (t *TCP) EventTarget() eventloop.Target { return t }

// Close implements stream.Stream.
func (t *TCP) Close() error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.closed = true
	t.mu.Unlock()
	if closed || conn == nil {
		return nil
	}
	return conn.Close()
}

var _ stream.Transport = (*TCP)(nil)
