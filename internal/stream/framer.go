package stream

import (
	"encoding/binary"
	"sync"

	"inputshare/internal/eventloop"
)

// maxFrameSize guards against a corrupt or hostile length prefix causing an
// unbounded allocation.
const maxFrameSize = 4 << 20 // 4 MiB

// Framer is the mandatory packet-framing layer (spec §4.1 step 3). Every
// write is preceded by its four-byte big-endian length; every read yields
// whole frames only.
type Framer struct {
	loop  *eventloop.Loop
	inner Stream

	mu      sync.Mutex
	partial []byte   // raw bytes accumulated from inner, not yet a whole frame
	frames  [][]byte // decoded frame payloads, oldest first
}

// NewFramer wraps inner with length-prefixed framing and subscribes to its
// signals so they can be republished targeted at the Framer itself.
func NewFramer(loop *eventloop.Loop, inner Stream) *Framer {
	f := &Framer{loop: loop, inner: inner}

	loop.Subscribe(InputReady, inner.EventTarget(), func(eventloop.Event) {
		f.pump()
	})
	loop.Subscribe(OutputError, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputError, Target: f})
	})
	loop.Subscribe(InputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: InputShutdown, Target: f})
	})
	loop.Subscribe(OutputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputShutdown, Target: f})
	})
	loop.Subscribe(Disconnected, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: Disconnected, Target: f})
	})

	// The inner layer may already have buffered bytes (e.g. a filter that
	// read eagerly before we finished wiring up). Pull them in now.
	if inner.IsReady() {
		f.pump()
	}

	return f
}

// pump drains whatever raw bytes inner currently has buffered and folds
// complete frames into f.frames. It never blocks.
func (f *Framer) pump() {
	buf := make([]byte, 64*1024)
	for {
		n, err := f.inner.Read(buf)
		if n > 0 {
			f.mu.Lock()
			f.partial = append(f.partial, buf[:n]...)
			f.mu.Unlock()
		}
		if err != nil || n == 0 {
			break
		}
	}

	f.mu.Lock()
	gotFrame := false
	for {
		if len(f.partial) < 4 {
			break
		}
		size := int(binary.BigEndian.Uint32(f.partial[:4]))
		if size < 0 || size > maxFrameSize {
			// Corrupt length prefix; drop everything we have buffered so
			// a single bad frame cannot wedge the connection forever.
			f.partial = nil
			break
		}
		if len(f.partial) < 4+size {
			break
		}
		payload := make([]byte, size)
		copy(payload, f.partial[4:4+size])
		f.frames = append(f.frames, payload)
		f.partial = f.partial[4+size:]
		gotFrame = true
	}
	f.mu.Unlock()

	if gotFrame {
		f.loop.Post(eventloop.Event{Type: InputReady, Target: f})
	}
}

// ReadFrame implements FrameStream.
func (f *Framer) ReadFrame() ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil, false
	}
	frame := f.frames[0]
	f.frames = f.frames[1:]
	return frame, true
}

// Read drains the oldest buffered frame's bytes into p. Frames are never
// mixed: a Read call returns bytes from at most one frame, so a caller
// issuing several small reads in a row cannot see bytes belonging to two
// different frames concatenated together.
func (f *Framer) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return 0, nil
	}
	frame := f.frames[0]
	n := copy(p, frame)
	if n == len(frame) {
		f.frames = f.frames[1:]
	} else {
		f.frames[0] = frame[n:]
	}
	return n, nil
}

// Write frames payload with its four-byte big-endian length prefix and
// writes it to inner in one call.
func (f *Framer) Write(payload []byte) (int, error) {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	if _, err := f.inner.Write(buf); err != nil {
		return 0, err
	}
	return len(payload), nil
}

// WriteFrame is an explicit alias of Write for FrameStream callers that
// want to write a whole message rather than use the io.Writer shape.
func (f *Framer) WriteFrame(payload []byte) error {
	_, err := f.Write(payload)
	return err
}

// IsReady reports whether at least one whole frame is currently buffered.
func (f *Framer) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames) > 0
}

// EventTarget identifies this Framer for event subscriptions.
func (f *Framer) EventTarget() eventloop.Target { return f }

// Close unsubscribes from inner and closes it, cascading teardown bottom-up
// from the perspective of whoever owns this Framer (the layer above it, or
// the session if this is the top layer).
func (f *Framer) Close() error {
	f.loop.Unsubscribe(InputReady, f.inner.EventTarget())
	f.loop.Unsubscribe(OutputError, f.inner.EventTarget())
	f.loop.Unsubscribe(InputShutdown, f.inner.EventTarget())
	f.loop.Unsubscribe(OutputShutdown, f.inner.EventTarget())
	f.loop.Unsubscribe(Disconnected, f.inner.EventTarget())
	return f.inner.Close()
}

var _ FrameStream = (*Framer)(nil)
