package session

import (
	"encoding/binary"
	"testing"
	"time"

	"inputshare/internal/eventloop"
	"inputshare/internal/protocol"
	"inputshare/internal/resolve"
	"inputshare/internal/screen"
	"inputshare/internal/stream"
)

// fakeTransport is a controllable stream.Transport for driving the
// literal end-to-end scenarios in spec §8 without any real networking.
type fakeTransport struct {
	loop       *eventloop.Loop
	inbuf      []byte
	outbuf     []byte
	connectErr string
	closed     bool
}

func (t *fakeTransport) Connect(ep stream.Endpoint) {
	if t.connectErr != "" {
		t.loop.Post(eventloop.Event{
			Type:   stream.TransportConnectFailed,
			Target: t,
			Data:   &stream.ConnectFailedInfo{What: t.connectErr},
		})
		return
	}
	t.loop.Post(eventloop.Event{Type: stream.TransportConnected, Target: t})
}

func (t *fakeTransport) Read(p []byte) (int, error) {
	if len(t.inbuf) == 0 {
		return 0, nil
	}
	n := copy(p, t.inbuf)
	t.inbuf = t.inbuf[n:]
	return n, nil
}

func (t *fakeTransport) Write(p []byte) (int, error) {
	t.outbuf = append(t.outbuf, p...)
	return len(p), nil
}

func (t *fakeTransport) IsReady() bool                 { return len(t.inbuf) > 0 }
func (t *fakeTransport) EventTarget() eventloop.Target { return t }
func (t *fakeTransport) Close() error                  { t.closed = true; return nil }

func (t *fakeTransport) feed(b []byte) {
	t.inbuf = append(t.inbuf, b...)
	t.loop.Post(eventloop.Event{Type: stream.InputReady, Target: t})
}

type fakeTransportFactory struct {
	transport  *fakeTransport
	connectErr string
	newCalls   int
}

func (f *fakeTransportFactory) New(loop *eventloop.Loop) stream.Transport {
	f.newCalls++
	f.transport = &fakeTransport{loop: loop, connectErr: f.connectErr}
	return f.transport
}

func frameBytes(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	return buf
}

func newTestSession(t *testing.T, tf *fakeTransportFactory) (*Session, *eventloop.Loop, *screen.Reference) {
	t.Helper()
	loop := eventloop.New()
	scr := screen.NewReference(loop)
	sess := New(loop, Params{
		Name:             "myclient",
		Endpoint:         stream.Endpoint{Network: false, Opaque: "test"},
		Screen:           scr,
		TransportFactory: tf,
		Resolver:         resolve.NewResolver(),
		HandshakeTimeout: 50 * time.Millisecond,
	})
	return sess, loop, scr
}

func TestHappyPath(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, _ := newTestSession(t, tf)

	var connected, disconnected bool
	var failInfo ConnectionFailedInfo
	loop.Subscribe(Connected, sess, func(eventloop.Event) { connected = true })
	loop.Subscribe(Disconnected, sess, func(eventloop.Event) { disconnected = true })
	loop.Subscribe(ConnectionFailed, sess, func(e eventloop.Event) { failInfo = e.Data.(ConnectionFailedInfo) })

	sess.Connect()
	loop.Drain()

	hello := frameBytes(protocol.EncodeHello(1, 6))
	tf.transport.feed(hello)
	loop.Drain()

	if !connected {
		t.Fatalf("expected Connected, failInfo=%+v disconnected=%v", failInfo, disconnected)
	}
	if sess.State() != Active {
		t.Fatalf("expected Active, got %v", sess.State())
	}
	major, minor, name, err := protocol.DecodeHelloBack(tf.transport.outbuf[4:])
	if err != nil {
		t.Fatalf("decoding hello-back: %v", err)
	}
	if major != 1 || minor != 6 || name != "myclient" {
		t.Fatalf("unexpected hello-back: %d.%d %q", major, minor, name)
	}
}

func TestOldServerIncompatibleVersion(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, _ := newTestSession(t, tf)

	var failInfo ConnectionFailedInfo
	var failed bool
	loop.Subscribe(ConnectionFailed, sess, func(e eventloop.Event) {
		failed = true
		failInfo = e.Data.(ConnectionFailedInfo)
	})

	sess.Connect()
	loop.Drain()
	tf.transport.feed(frameBytes(protocol.EncodeHello(1, 2)))
	loop.Drain()

	if !failed {
		t.Fatal("expected ConnectionFailed")
	}
	if failInfo.Message != "incompatible version 1.2" {
		t.Fatalf("unexpected message: %q", failInfo.Message)
	}
	if !failInfo.Retry {
		t.Fatal("retry hint must always be true")
	}
	if len(tf.transport.outbuf) != 0 {
		t.Fatal("no HelloBack should have been sent")
	}
}

func TestHandshakeTimeout(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, _ := newTestSession(t, tf)

	var failInfo ConnectionFailedInfo
	loop.Subscribe(ConnectionFailed, sess, func(e eventloop.Event) {
		failInfo = e.Data.(ConnectionFailedInfo)
	})

	sess.Connect()
	loop.Drain()

	time.Sleep(80 * time.Millisecond)
	loop.Drain()

	if failInfo.Message != "Timed out" {
		t.Fatalf("expected timeout, got %+v", failInfo)
	}
	if sess.State() != Idle {
		t.Fatalf("expected Idle after timeout teardown, got %v", sess.State())
	}
}

func TestProtocolErrorFirstFrame(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, _ := newTestSession(t, tf)

	var failInfo ConnectionFailedInfo
	loop.Subscribe(ConnectionFailed, sess, func(e eventloop.Event) {
		failInfo = e.Data.(ConnectionFailedInfo)
	})

	sess.Connect()
	loop.Drain()
	tf.transport.feed(frameBytes([]byte("XXXX")))
	loop.Drain()

	if failInfo.Message != "Protocol error from server" {
		t.Fatalf("unexpected message: %q", failInfo.Message)
	}
}

func connectToActive(t *testing.T, sess *Session, loop *eventloop.Loop, tf *fakeTransportFactory) {
	t.Helper()
	sess.Connect()
	loop.Drain()
	tf.transport.feed(frameBytes(protocol.EncodeHello(1, 6)))
	loop.Drain()
	if sess.State() != Active {
		t.Fatalf("setup: expected Active, got %v", sess.State())
	}
}

func TestSuspendWhileActiveReconnectsOnResume(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, scr := newTestSession(t, tf)
	connectToActive(t, sess, loop, tf)

	var disconnected bool
	loop.Subscribe(Disconnected, sess, func(eventloop.Event) { disconnected = true })

	scr.Screensaver(true)
	loop.Drain()

	if !disconnected {
		t.Fatal("expected Disconnected on suspend")
	}
	if !sess.connectOnResume {
		t.Fatal("expected connect-on-resume to be recorded")
	}

	callsBefore := tf.newCalls
	scr.Screensaver(false)
	loop.Drain()

	if tf.newCalls != callsBefore+1 {
		t.Fatalf("expected exactly one reconnect attempt, got %d new transports", tf.newCalls-callsBefore)
	}
}

func TestClipboardLeaveFlushSendsOnceThenDedupes(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, scr := newTestSession(t, tf)
	connectToActive(t, sess, loop, tf)

	scr.SetClipboard(screen.ClipboardClipboard, []byte("hello"))
	sess.Enter(0, 0, 0, 0, false)

	scr.GrabClipboard(screen.ClipboardClipboard)
	loop.Drain()

	before := len(tf.transport.outbuf)

	sess.Leave()
	afterFirstLeave := len(tf.transport.outbuf)
	if afterFirstLeave == before {
		t.Fatal("expected leave() to transmit the grabbed clipboard")
	}

	sess.Leave()
	afterSecondLeave := len(tf.transport.outbuf)
	if afterSecondLeave != afterFirstLeave {
		t.Fatal("expected second leave() with no new grab to send nothing more")
	}
}

func TestNetZeroSubscriptionsAfterTeardown(t *testing.T) {
	tf := &fakeTransportFactory{}
	sess, loop, _ := newTestSession(t, tf)
	baseline := loop.SubscriptionCount()

	connectToActive(t, sess, loop, tf)
	sess.Disconnect("")
	loop.Drain()

	if got := loop.SubscriptionCount(); got != baseline {
		t.Fatalf("expected subscription count to return to baseline %d, got %d", baseline, got)
	}
}
