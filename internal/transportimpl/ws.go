package transportimpl

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"inputshare/internal/eventloop"
	"inputshare/internal/stream"
)

// WS is a stream.Transport that tunnels the raw byte stream over a
// WebSocket binary-message connection, for networks that only permit
// outbound HTTP(S). Adapted from the teacher's
// internal/network/ws_client.go read/write pump pair, but carrying opaque
// bytes instead of a JSON envelope — framing is the packet framer's job,
// not this layer's.
type WS struct {
	loop *eventloop.Loop

	mu       sync.Mutex
	conn     *websocket.Conn
	buf      []byte
	closed   bool
	signaled bool
	send     chan []byte

	path   string
	scheme string
}

// WSFactory produces WebSocket transports. Path defaults to "/inputshare".
type WSFactory struct {
	Path   string
	Scheme string // "ws" or "wss"; defaults to "wss"
}

// New implements stream.TransportFactory.
func (f WSFactory) New(loop *eventloop.Loop) stream.Transport {
	path := f.Path
	if path == "" {
		path = "/inputshare"
	}
	scheme := f.Scheme
	if scheme == "" {
		scheme = "wss"
	}
	return &WS{loop: loop, send: make(chan []byte, 256), path: path, scheme: scheme}
}

func (t *WS) Connect(endpoint stream.Endpoint) {
	go func() {
		u := url.URL{Scheme: t.scheme, Host: fmt.Sprintf("%s:%d", endpoint.Host, endpoint.Port), Path: t.path}
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, _, err := dialer.Dial(u.String(), nil)
		if err != nil {
			t.loop.Post(eventloop.Event{
				Type:   stream.TransportConnectFailed,
				Target: t,
				Data:   &stream.ConnectFailedInfo{What: err.Error()},
			})
			return
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()

		go t.writePump(conn)
		go t.readPump(conn)
		t.loop.Post(eventloop.Event{Type: stream.TransportConnected, Target: t})
	}()
}

func (t *WS) readPump(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			t.signalDisconnect()
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		t.mu.Lock()
		t.buf = append(t.buf, data...)
		t.mu.Unlock()
		t.loop.Post(eventloop.Event{Type: stream.InputReady, Target: t})
	}
}

func (t *WS) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-t.send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				t.loop.Post(eventloop.Event{Type: stream.OutputError, Target: t})
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (t *WS) signalDisconnect() {
	t.mu.Lock()
	already := t.signaled
	t.signaled = true
	t.mu.Unlock()
	if !already {
		t.loop.Post(eventloop.Event{Type: stream.Disconnected, Target: t})
	}
}

func (t *WS) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return 0, nil
	}
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n, nil
}

func (t *WS) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case t.send <- cp:
		return len(p), nil
	default:
		t.loop.Post(eventloop.Event{Type: stream.OutputError, Target: t})
		return 0, fmt.Errorf("ws transport: send buffer full")
	}
}

func (t *WS) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf) > 0
}

func (t *WS) EventTarget() eventloop.Target { return t }

func (t *WS) Close() error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.closed = true
	t.mu.Unlock()
	if closed {
		return nil
	}
	close(t.send)
	if conn == nil {
		return nil
	}
	return conn.Close()
}

var _ stream.Transport = (*WS)(nil)
