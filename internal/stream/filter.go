package stream

import "inputshare/internal/eventloop"

// Passthrough is the simplest possible Filter: it forwards every call to
// inner unchanged. It exists so a FilterFactory can be wired in without
// altering wire behavior — useful for tests, and as the template for a
// real filter (a proxy-traversal shim, a bandwidth shaper) that needs to
// preserve the same signal set the transport raises.
type Passthrough struct {
	loop  *eventloop.Loop
	inner Stream
}

// NewPassthrough wraps inner, forwarding reads and writes untouched.
func NewPassthrough(loop *eventloop.Loop, inner Stream) *Passthrough {
	p := &Passthrough{loop: loop, inner: inner}
	loop.Subscribe(InputReady, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: InputReady, Target: p})
	})
	loop.Subscribe(OutputError, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputError, Target: p})
	})
	loop.Subscribe(InputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: InputShutdown, Target: p})
	})
	loop.Subscribe(OutputShutdown, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: OutputShutdown, Target: p})
	})
	loop.Subscribe(Disconnected, inner.EventTarget(), func(eventloop.Event) {
		loop.Post(eventloop.Event{Type: Disconnected, Target: p})
	})
	return p
}

func (p *Passthrough) Read(b []byte) (int, error)  { return p.inner.Read(b) }
func (p *Passthrough) Write(b []byte) (int, error) { return p.inner.Write(b) }
func (p *Passthrough) IsReady() bool               { return p.inner.IsReady() }
func (p *Passthrough) EventTarget() eventloop.Target {
	return p
}

func (p *Passthrough) Close() error {
	p.loop.Unsubscribe(InputReady, p.inner.EventTarget())
	p.loop.Unsubscribe(OutputError, p.inner.EventTarget())
	p.loop.Unsubscribe(InputShutdown, p.inner.EventTarget())
	p.loop.Unsubscribe(OutputShutdown, p.inner.EventTarget())
	p.loop.Unsubscribe(Disconnected, p.inner.EventTarget())
	return p.inner.Close()
}

var _ Filter = (*Passthrough)(nil)
