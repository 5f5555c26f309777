// Package eventloop provides the single-threaded, cooperative event queue
// that the session engine is built on. There is no process-wide dispatcher:
// callers construct one Loop and pass it explicitly to every collaborator
// that needs to raise or subscribe to events, the same way CClient in the
// original implementation took an IEventQueue* at construction rather than
// reaching for a global.
package eventloop

import (
	"sync"
	"time"
)

// Type is an opaque event-type token, analogous to CEvent::Type. Packages
// register their own tokens at init time with NewType; tokens are never
// compared across packages by name, only by identity.
type Type struct {
	name string
	id   uint64
}

func (t Type) String() string { return t.name }

var typeCounter uint64

// NewType allocates a fresh event-type token. name is used only for
// logging/debugging; uniqueness comes from an internal counter, mirroring
// registerTypeOnce's one-token-per-call-site behavior without needing a
// static registry.
func NewType(name string) Type {
	typeCounter++
	return Type{name: name, id: typeCounter}
}

// Target scopes a subscription to the source that raises it (a stream, a
// screen, a timer). Any comparable value works; sources typically use their
// own pointer.
type Target any

// Event is one posted occurrence: a type, the target that raised it, and an
// optional payload.
type Event struct {
	Type   Type
	Target Target
	Data   any
}

// Handler processes one event. Handlers run to completion before the loop
// dispatches the next event — there is no concurrent handler execution.
type Handler func(Event)

type subKey struct {
	typ    Type
	target Target
}

// Loop is the event queue. One Loop is constructed per process and threaded
// through every collaborator that needs to publish or subscribe.
type Loop struct {
	mu       sync.Mutex
	handlers map[subKey]Handler
	queue    []Event
	wake     chan struct{}
	closed   bool
}

// New creates an empty, unstarted Loop.
func New() *Loop {
	return &Loop{
		handlers: make(map[subKey]Handler),
		wake:     make(chan struct{}, 1),
	}
}

// Subscribe registers h for events of type typ raised against target.
// Subscribing twice for the same (typ, target) replaces the prior handler —
// callers are expected to Unsubscribe on every exit path, same as the
// adoptHandler/removeHandler pairing the setup/cleanup transitions rely on.
func (l *Loop) Subscribe(typ Type, target Target, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[subKey{typ, target}] = h
}

// Unsubscribe removes the handler for (typ, target), if any. Safe to call
// even if nothing was ever subscribed.
func (l *Loop) Unsubscribe(typ Type, target Target) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.handlers, subKey{typ, target})
}

// SubscriptionCount reports how many (type, target) pairs currently have a
// live handler. Exposed so the net-zero-subscriptions invariant (§5) can be
// asserted from tests.
func (l *Loop) SubscriptionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handlers)
}

// Post enqueues an event for later dispatch. It never blocks and never runs
// the handler synchronously, so an event posted from inside a handler is
// guaranteed to run only after the current handler returns — this is what
// lets the Active-transition synthesize an input-ready without violating
// single-threaded semantics (§5c).
func (l *Loop) Post(ev Event) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, ev)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drains and dispatches events until Stop is called. It is meant to run
// on its own goroutine for the lifetime of the process; every handler it
// invokes runs to completion before the next one starts.
func (l *Loop) Run() {
	for {
		ev, ok := l.pop()
		if !ok {
			<-l.wake
			if l.isClosed() {
				return
			}
			continue
		}
		l.dispatch(ev)
	}
}

// Drain synchronously dispatches every event currently queued, then
// returns without blocking. Useful in tests and for callers (such as a
// Screen reference implementation reacting to its own call) that want to
// force a Post to be observed without running Run on another goroutine.
func (l *Loop) Drain() {
	for {
		ev, ok := l.pop()
		if !ok {
			return
		}
		l.dispatch(ev)
	}
}

func (l *Loop) pop() (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return Event{}, false
	}
	ev := l.queue[0]
	l.queue = l.queue[1:]
	return ev, true
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) dispatch(ev Event) {
	l.mu.Lock()
	h, ok := l.handlers[subKey{ev.Type, ev.Target}]
	l.mu.Unlock()
	if ok {
		h(ev)
	}
}

// Stop halts Run. Pending events are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Timer is a one-shot timer scoped to the loop that created it. Firing posts
// a TimerFired event targeted at the Timer itself, matching the original
// design where the timer object's identity is the subscription target.
type Timer struct {
	loop    *Loop
	wall    *time.Timer
	stopped bool
	mu      sync.Mutex
}

// TimerFired is the event type posted when any Timer created by NewOneShotTimer elapses.
var TimerFired = NewType("eventloop.TimerFired")

// NewOneShotTimer starts a timer that fires once after d, posting TimerFired
// targeted at the returned Timer. Callers subscribe to (TimerFired, timer)
// before the duration elapses.
func (l *Loop) NewOneShotTimer(d time.Duration) *Timer {
	t := &Timer{loop: l}
	t.wall = time.AfterFunc(d, func() {
		l.Post(Event{Type: TimerFired, Target: t})
	})
	return t
}

// Stop cancels the timer. Safe to call more than once.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.wall.Stop()
}
