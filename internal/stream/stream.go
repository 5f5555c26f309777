// Package stream implements the layered duplex pipeline described in
// spec §4.1: a transport at the bottom, an optional user filter, a
// mandatory length-prefixed packet framer, and an optional encryption
// layer on top. Every layer presents the same Stream interface so the
// session engine never needs to know which optional layers are present.
package stream

import (
	"io"

	"inputshare/internal/eventloop"
)

// Event types shared by every layer. A layer that wraps an inner Stream
// subscribes to these on the inner layer and republishes them targeted at
// itself, so the layer above never needs to reach past its immediate
// neighbor.
var (
	// TransportConnected fires once, targeted at the Transport, after a
	// successful Connect.
	TransportConnected = eventloop.NewType("stream.TransportConnected")
	// TransportConnectFailed fires once, targeted at the Transport, if
	// Connect could not establish a connection. Event.Data is a
	// *ConnectFailedInfo.
	TransportConnectFailed = eventloop.NewType("stream.TransportConnectFailed")
	// InputReady fires whenever a layer has at least one unit of input
	// ready to be read (a raw chunk for the transport/filter layers, a
	// whole frame for the framer and anything above it).
	InputReady = eventloop.NewType("stream.InputReady")
	// OutputError fires if a write failed.
	OutputError = eventloop.NewType("stream.OutputError")
	// InputShutdown fires when the peer has half-closed its write side.
	InputShutdown = eventloop.NewType("stream.InputShutdown")
	// OutputShutdown fires when our own write side can no longer send.
	OutputShutdown = eventloop.NewType("stream.OutputShutdown")
	// Disconnected fires when the underlying connection has fully closed.
	Disconnected = eventloop.NewType("stream.Disconnected")
)

// ConnectFailedInfo is the payload carried by TransportConnectFailed.
type ConnectFailedInfo struct {
	What string
}

// Stream is the uniform duplex conduit every pipeline layer presents. Read
// never blocks: it returns (0, nil) if nothing is currently available, and
// callers instead wait for an InputReady event. IsReady lets a layer that
// has just been wired up check whether input was already buffered before
// it subscribed (§5c, the synthesized input-ready on entry to Active).
type Stream interface {
	io.Writer
	io.Closer
	Read(p []byte) (int, error)
	IsReady() bool
	// EventTarget identifies this layer as an eventloop.Target so other
	// code can Subscribe to events raised against it.
	EventTarget() eventloop.Target
}

// FrameStream is a Stream that additionally frames its input/output as
// discrete messages rather than an undifferentiated byte stream. The
// packet framer and every layer above it (crypto) implement this; raw
// transports and filters below the framer do not.
type FrameStream interface {
	Stream
	// WriteFrame sends payload as a single length-prefixed frame.
	WriteFrame(payload []byte) error
	// ReadFrame returns the next buffered frame and removes it from the
	// internal queue, or (nil, false) if no complete frame is buffered.
	ReadFrame() ([]byte, bool)
}

// Endpoint describes either a resolved network address or an opaque
// non-network address (spec §3). It is safe to copy.
type Endpoint struct {
	Network bool
	// Host/Port are populated when Network is true.
	Host string
	Port int
	// Opaque carries a non-network address verbatim (e.g. a named pipe or
	// a platform-specific local socket path).
	Opaque string
}

// Clone returns an independent copy of e. Endpoints are plain values in Go
// so Clone is trivial, but it is kept as an explicit method because the
// session contract (§3) calls for the server endpoint to be cloned at
// construction so the caller retains no ownership of the original.
func (e Endpoint) Clone() Endpoint { return e }

// Transport is the bottom layer of the pipeline: it owns the actual
// network (or other) connection. TransportFactory.New produces one fresh,
// unconnected Transport per connect attempt.
type Transport interface {
	Stream
	// Connect begins connecting to endpoint. It never blocks; completion
	// is signaled by TransportConnected or TransportConnectFailed.
	Connect(endpoint Endpoint)
}

// TransportFactory produces Transport instances. The session owns the
// factory for its whole lifetime and calls New once per connect attempt.
type TransportFactory interface {
	New(loop *eventloop.Loop) Transport
}

// Filter is an optional layer the session can interpose between the
// transport and the packet framer (e.g. a proxy-traversal shim). It wraps
// the Transport before Connect is issued and must preserve the same
// signal set.
type Filter interface {
	Stream
}

// FilterFactory produces a Filter wrapping inner. A nil FilterFactory means
// no filter layer is used.
type FilterFactory interface {
	New(loop *eventloop.Loop, inner Stream) Filter
}

// DecryptIVSetter is implemented by the top-of-pipeline stream when crypto
// is enabled. The session calls SetDecryptIV once it has parsed the peer's
// IV preamble (§4.1, §6).
type DecryptIVSetter interface {
	SetDecryptIV(iv []byte)
	// DecryptReady reports whether the decrypt IV has already been
	// installed. While false, the very next inbound frame is the peer's
	// raw IV preamble rather than a decodable message.
	DecryptReady() bool
}
