// Package session implements the client-side session engine: the
// connection state machine, the pipeline it drives, the clipboard
// tracker, the input/clipboard dispatcher, and the suspend/resume
// arbiter. It is the Go analogue of CClient in
// original_source/src/lib/client/CClient.cpp, re-modeled per that file's
// own design notes: no global event dispatcher (an *eventloop.Loop is
// passed in explicitly), no exceptions for flow control (connect() runs a
// sequence of fallible steps that fall through to the same teardown path
// used by every error handler), and a tagged-event style over
// one-callback-per-signal proliferation where the pipeline allows it.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"inputshare/internal/eventloop"
	"inputshare/internal/metrics"
	"inputshare/internal/obs"
	"inputshare/internal/protocol"
	"inputshare/internal/resolve"
	"inputshare/internal/screen"
	"inputshare/internal/serverproxy"
	"inputshare/internal/stream"
)

// Public lifecycle events (spec §6). Target is always the *Session.
var (
	Connected        = eventloop.NewType("session.Connected")
	ConnectionFailed = eventloop.NewType("session.ConnectionFailed")
	Disconnected     = eventloop.NewType("session.Disconnected")
)

// ConnectionFailedInfo is the payload of a ConnectionFailed event. Retry
// is always true: no path in this engine ever sets it false, a fact
// worth keeping explicit rather than dropping the field (spec §9 open
// question).
type ConnectionFailedInfo struct {
	Message string
	Retry   bool
}

// DefaultHandshakeTimeout is the time allowed to span Connecting and
// AwaitingHello before the session gives up (spec §3, §4.4).
const DefaultHandshakeTimeout = 15 * time.Second

// Params configures a Session at construction. Everything here is held
// for the session's whole lifetime (spec §3 "Client session").
type Params struct {
	Name             string
	Endpoint         stream.Endpoint
	Screen           screen.Screen
	TransportFactory stream.TransportFactory
	FilterFactory    stream.FilterFactory // nil: no filter layer
	Crypto           stream.Options       // Mode: Disabled or Enabled
	Resolver         *resolve.Resolver
	HandshakeTimeout time.Duration // zero means DefaultHandshakeTimeout
}

// Session is the root entity (spec §3); exactly one is expected per
// process, constructed once and driven entirely from loop's goroutine.
type Session struct {
	loop             *eventloop.Loop
	name             string
	endpoint         stream.Endpoint
	screen           screen.Screen
	transportFactory stream.TransportFactory
	filterFactory    stream.FilterFactory
	crypto           stream.Options
	resolver         *resolve.Resolver
	handshakeTimeout time.Duration

	state State

	// statusMu guards the fields a Snapshot reads from another goroutine
	// (the diagnostics HTTP handler). Every other field is touched only
	// from loop's own goroutine and needs no lock.
	statusMu sync.Mutex

	transport stream.Transport
	framer    *stream.Framer
	top       stream.FrameStream
	ivSetter  stream.DecryptIVSetter

	timer            *eventloop.Timer
	handshakeStarted time.Time

	proxy *serverproxy.ServerProxy

	ready           bool
	active          bool
	suspended       bool
	connectOnResume bool

	clipboards [screen.ClipboardEnd]clipboardSlot
}

// New constructs a Session and subscribes its suspend/resume and
// game-device timing/feedback handlers, the only subscriptions that live
// for the session's whole lifetime rather than being scoped to one state
// (spec §4.6 applies regardless of connection state).
func New(loop *eventloop.Loop, p Params) *Session {
	timeout := p.HandshakeTimeout
	if timeout == 0 {
		timeout = DefaultHandshakeTimeout
	}
	s := &Session{
		loop:             loop,
		name:             p.Name,
		endpoint:         p.Endpoint.Clone(),
		screen:           p.Screen,
		transportFactory: p.TransportFactory,
		filterFactory:    p.FilterFactory,
		crypto:           p.Crypto,
		resolver:         p.Resolver,
		handshakeTimeout: timeout,
		state:            Idle,
	}
	loop.Subscribe(screen.Suspend, s.screen.EventTarget(), s.handleSuspend)
	loop.Subscribe(screen.Resume, s.screen.EventTarget(), s.handleResume)
	// Game-device timing/feedback mirror CClient.cpp's own construction-time
	// subscriptions (m_screen->getEventTarget() handlers installed once,
	// not per-connection): the screen can raise either at any time, and the
	// handlers themselves no-op while there is no active server proxy to
	// forward through.
	loop.Subscribe(screen.GameDeviceTimingResp, s.screen.EventTarget(), s.handleGameDeviceTimingResp)
	loop.Subscribe(screen.GameDeviceFeedback, s.screen.EventTarget(), s.handleGameDeviceFeedback)
	return s
}

// State reports the session's current state. Safe to call from any
// goroutine, as is Snapshot; everything else on Session is not.
func (s *Session) State() State {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.state
}

// setState records a state transition under statusMu so State and
// Snapshot can be read from another goroutine without racing loop.
func (s *Session) setState(st State) {
	s.statusMu.Lock()
	s.state = st
	s.statusMu.Unlock()
	metrics.SessionState.Set(float64(st))
}

// setReady, setSuspended and setActive guard the other three fields
// Snapshot reports, for the same reason setState guards state.
func (s *Session) setReady(ready bool) {
	s.statusMu.Lock()
	s.ready = ready
	s.statusMu.Unlock()
}

func (s *Session) setSuspended(suspended bool) {
	s.statusMu.Lock()
	s.suspended = suspended
	s.statusMu.Unlock()
}

func (s *Session) setActive(active bool) {
	s.statusMu.Lock()
	s.active = active
	s.statusMu.Unlock()
}

// Status is a point-in-time copy of the fields the diagnostics server
// reports (spec diagnostics module): state plus the three booleans that
// together describe whether the session is usable right now.
type Status struct {
	State     State
	Ready     bool
	Active    bool
	Suspended bool
}

// Snapshot copies the fields in Status under statusMu. Together with
// State, it is the only safe way for a goroutine other than loop's to
// inspect a live Session,
// mirroring CClient's single-thread assumption without forcing callers
// like the diagnostics HTTP handler onto loop itself.
func (s *Session) Snapshot() Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return Status{
		State:     s.state,
		Ready:     s.ready,
		Active:    s.active,
		Suspended: s.suspended,
	}
}

// Close unsubscribes the suspend/resume handlers and tears down any live
// connection, leaving a net-zero subscription count (spec §5).
func (s *Session) Close() {
	s.teardownQuiet()
	s.loop.Unsubscribe(screen.Suspend, s.screen.EventTarget())
	s.loop.Unsubscribe(screen.Resume, s.screen.EventTarget())
	s.loop.Unsubscribe(screen.GameDeviceTimingResp, s.screen.EventTarget())
	s.loop.Unsubscribe(screen.GameDeviceFeedback, s.screen.EventTarget())
}

// Connect begins (or resumes deferring) a connection attempt (spec §4.4).
func (s *Session) Connect() {
	if s.suspended {
		s.connectOnResume = true
		return
	}
	if s.state != Idle {
		return // a stream already exists or an attempt is in flight
	}

	metrics.ConnectAttemptsTotal.Inc()
	obs.Info("connecting", obs.Fields{"endpoint": s.endpointString()})

	ep := s.endpoint
	if ep.Network {
		s.setState(Resolving)
		resolved, err := s.resolver.Resolve(ep)
		if err != nil {
			s.setState(Idle)
			s.fail(err.Error())
			return
		}
		ep = resolved
	}
	s.setupConnecting(ep)
}

// Disconnect performs the disconnect(msg) operation in spec §4.4(e): an
// empty msg yields Disconnected, a non-empty one yields
// ConnectionFailed(msg).
func (s *Session) Disconnect(msg string) {
	if s.state == Idle {
		return
	}
	if msg == "" {
		s.succeedDisconnect()
	} else {
		s.fail(msg)
	}
}

func (s *Session) endpointString() string {
	if s.endpoint.Network {
		return fmt.Sprintf("%s:%d", s.endpoint.Host, s.endpoint.Port)
	}
	return s.endpoint.Opaque
}

// setupConnecting builds the transport/filter/framer stack, wires the
// connect signals, starts the single handshake timer, and issues the
// connect call (spec §4.1, §4.4 Connecting row).
func (s *Session) setupConnecting(ep stream.Endpoint) {
	s.setState(Connecting)
	s.handshakeStarted = time.Now()

	s.transport = s.transportFactory.New(s.loop)
	var inner stream.Stream = s.transport
	if s.filterFactory != nil {
		inner = s.filterFactory.New(s.loop, inner)
	}
	s.framer = stream.NewFramer(s.loop, inner)
	s.top = s.framer

	s.loop.Subscribe(stream.TransportConnected, s.transport.EventTarget(), s.handleTransportConnected)
	s.loop.Subscribe(stream.TransportConnectFailed, s.transport.EventTarget(), s.handleTransportConnectFailed)

	s.timer = s.loop.NewOneShotTimer(s.handshakeTimeout)
	s.loop.Subscribe(eventloop.TimerFired, s.timer, s.handleHandshakeTimeout)

	s.transport.Connect(ep)
}

// handleTransportConnected finishes pipeline construction (adding the
// crypto layer now that a live connection exists for its IV preamble to
// go out on) and enters AwaitingHello. The handshake timer is
// deliberately left running: spec §4.4(c) — it is not reset here.
func (s *Session) handleTransportConnected(eventloop.Event) {
	s.loop.Unsubscribe(stream.TransportConnected, s.transport.EventTarget())
	s.loop.Unsubscribe(stream.TransportConnectFailed, s.transport.EventTarget())

	if s.crypto.Mode == stream.Enabled {
		cs, err := stream.NewCryptoStream(s.loop, s.framer, s.crypto)
		if err != nil {
			s.fail(err.Error())
			return
		}
		s.top = cs
		s.ivSetter = cs
	}

	s.setState(AwaitingHello)
	s.subscribeStreamSignals()
	s.resetAllClipboardSlots()

	if s.top.IsReady() {
		s.pumpHello()
	}
}

func (s *Session) handleTransportConnectFailed(ev eventloop.Event) {
	msg := "connection failed"
	if info, ok := ev.Data.(*stream.ConnectFailedInfo); ok && info != nil {
		msg = info.What
	}
	s.fail(msg)
}

func (s *Session) handleHandshakeTimeout(eventloop.Event) {
	s.fail("Timed out")
}

func (s *Session) subscribeStreamSignals() {
	t := s.top.EventTarget()
	s.loop.Subscribe(stream.InputReady, t, s.handleInputReady)
	s.loop.Subscribe(stream.OutputError, t, s.handleOutputError)
	s.loop.Subscribe(stream.InputShutdown, t, s.handlePeerGone)
	s.loop.Subscribe(stream.OutputShutdown, t, s.handlePeerGone)
	s.loop.Subscribe(stream.Disconnected, t, s.handlePeerGone)
}

func (s *Session) unsubscribeStreamSignals() {
	t := s.top.EventTarget()
	s.loop.Unsubscribe(stream.InputReady, t)
	s.loop.Unsubscribe(stream.OutputError, t)
	s.loop.Unsubscribe(stream.InputShutdown, t)
	s.loop.Unsubscribe(stream.OutputShutdown, t)
	s.loop.Unsubscribe(stream.Disconnected, t)
}

func (s *Session) handleOutputError(eventloop.Event) {
	obs.Warn("output error", obs.Fields{"state": s.state.String()})
	s.succeedDisconnect()
}

func (s *Session) handlePeerGone(eventloop.Event) {
	s.succeedDisconnect()
}

func (s *Session) handleInputReady(eventloop.Event) {
	switch s.state {
	case AwaitingHello:
		s.pumpHello()
	case Active:
		s.pumpActive()
	}
}

// pumpHello drains buffered frames while in AwaitingHello. If a crypto
// layer is present and its decrypt IV has not been installed yet, the
// very next frame is always the peer's raw IV preamble rather than a
// decodable message (spec §9's crypto exchange is under-specified here;
// this ordering — encrypt-IV-out, then wait for the peer's own preamble
// before the first real Hello — is the resolution this engine commits
// to).
func (s *Session) pumpHello() {
	for {
		frame, ok := s.top.ReadFrame()
		if !ok {
			return
		}
		if s.ivSetter != nil && !s.ivSetter.DecryptReady() {
			s.ivSetter.SetDecryptIV(frame)
			continue
		}

		major, minor, err := protocol.DecodeHello(frame)
		if err != nil {
			s.fail("Protocol error from server")
			return
		}
		if !protocol.VersionSupported(major, minor) {
			s.fail(fmt.Sprintf("incompatible version %d.%d", major, minor))
			return
		}

		helloBack := protocol.EncodeHelloBack(protocol.ProtocolMajorVersion, protocol.ProtocolMinorVersion, s.name)
		if err := s.top.WriteFrame(helloBack); err != nil {
			s.fail(err.Error())
			return
		}

		s.enterActive()
		return
	}
}

// enterActive performs the Active row's entry side effects (spec §4.4).
func (s *Session) enterActive() {
	s.timer.Stop()
	s.loop.Unsubscribe(eventloop.TimerFired, s.timer)
	s.timer = nil

	s.proxy = serverproxy.New(s.top, s)
	s.loop.Subscribe(screen.ShapeChanged, s.screen.EventTarget(), s.handleShapeChanged)
	s.loop.Subscribe(screen.ClipboardGrabbed, s.screen.EventTarget(), s.handleScreenClipboardGrabbed)

	s.setReady(true)
	s.setState(Active)
	s.screen.Enable()

	metrics.SessionState.Set(float64(Active))
	metrics.HandshakeDurationSeconds.Observe(time.Since(s.handshakeStarted).Seconds())
	obs.Info("connected", obs.Fields{"name": s.name})

	s.loop.Post(eventloop.Event{Type: Connected, Target: s})

	// Bytes may already be buffered from frames that arrived alongside
	// Hello in the same read; synthesize input-ready so they are
	// processed after this handler returns (spec §5c).
	if s.top.IsReady() {
		s.loop.Post(eventloop.Event{Type: stream.InputReady, Target: s.top})
	}
}

func (s *Session) pumpActive() {
	for {
		frame, ok := s.top.ReadFrame()
		if !ok {
			return
		}
		if err := s.proxy.HandleFrame(frame); err != nil {
			obs.Error("protocol error", obs.Fields{"err": err.Error()})
			s.fail("Protocol error from server")
			return
		}
	}
}

func (s *Session) handleShapeChanged(eventloop.Event) {
	x, y, w, h := s.screen.Shape()
	if err := s.proxy.SendInfoChanged(x, y, w, h); err != nil {
		s.succeedDisconnect()
	}
}

func (s *Session) handleGameDeviceTimingResp(ev eventloop.Event) {
	if s.proxy == nil {
		return
	}
	info, ok := ev.Data.(screen.GameDeviceTimingRespInfo)
	if !ok {
		return
	}
	if err := s.proxy.SendGameDeviceTimingResp(info.Freq); err != nil {
		s.succeedDisconnect()
	}
}

func (s *Session) handleGameDeviceFeedback(ev eventloop.Event) {
	if s.proxy == nil {
		return
	}
	info, ok := ev.Data.(screen.GameDeviceFeedbackInfo)
	if !ok {
		return
	}
	if err := s.proxy.SendGameDeviceFeedback(info.ID, info.Motor1, info.Motor2); err != nil {
		s.succeedDisconnect()
	}
}

// succeedDisconnect tears everything down and emits Disconnected: the
// "session had been established, now it's gone" exit (spec §7).
func (s *Session) succeedDisconnect() {
	s.cleanup()
	obs.Info("disconnected", nil)
	s.loop.Post(eventloop.Event{Type: Disconnected, Target: s})
}

// fail tears everything down and emits ConnectionFailed(msg): the
// "something kept this session from ever reaching (or staying in)
// Active" exit (spec §7).
func (s *Session) fail(msg string) {
	s.cleanup()
	metrics.ConnectFailuresTotal.WithLabelValues(classifyFailure(msg)).Inc()
	obs.Warn("connection failed", obs.Fields{"reason": msg})
	s.loop.Post(eventloop.Event{Type: ConnectionFailed, Target: s, Data: ConnectionFailedInfo{Message: msg, Retry: true}})
}

// teardownQuiet runs cleanup without emitting a lifecycle event, used by
// Close() when the caller (the process shutting down) has no interest in
// a final Disconnected.
func (s *Session) teardownQuiet() {
	if s.state == Idle {
		return
	}
	s.cleanup()
}

// cleanup is the Terminating row of spec §4.4, run by every exit path:
// cancel the timer, unsubscribe and disable the screen if it was
// enabled, destroy the server proxy, unsubscribe and destroy the stream,
// in that order (spec §3's destruction ordering).
func (s *Session) cleanup() {
	s.setState(Terminating)

	if s.timer != nil {
		s.timer.Stop()
		s.loop.Unsubscribe(eventloop.TimerFired, s.timer)
		s.timer = nil
	}

	if s.proxy != nil {
		s.loop.Unsubscribe(screen.ShapeChanged, s.screen.EventTarget())
		s.loop.Unsubscribe(screen.ClipboardGrabbed, s.screen.EventTarget())
	}
	if s.ready {
		s.screen.Disable()
	}
	s.proxy = nil

	if s.transport != nil {
		s.loop.Unsubscribe(stream.TransportConnected, s.transport.EventTarget())
		s.loop.Unsubscribe(stream.TransportConnectFailed, s.transport.EventTarget())
	}
	if s.top != nil {
		s.unsubscribeStreamSignals()
		_ = s.top.Close()
	} else if s.transport != nil {
		_ = s.transport.Close()
	}

	s.transport = nil
	s.framer = nil
	s.top = nil
	s.ivSetter = nil
	s.setReady(false)
	s.setActive(false)
	s.setState(Idle)

	metrics.SessionState.Set(float64(Idle))
}

// handleSuspend is the suspend/resume arbiter's suspend half (spec §4.6).
func (s *Session) handleSuspend(eventloop.Event) {
	wasConnected := s.proxy != nil
	s.setSuspended(true)
	s.Disconnect("")
	s.connectOnResume = wasConnected
}

// handleResume is the suspend/resume arbiter's resume half (spec §4.6).
func (s *Session) handleResume(eventloop.Event) {
	s.setSuspended(false)
	if s.connectOnResume {
		s.connectOnResume = false
		metrics.ReconnectsAfterResumeTotal.Inc()
		s.Connect()
	}
}

func classifyFailure(msg string) string {
	switch {
	case msg == "Timed out":
		return "timeout"
	case msg == "Protocol error from server":
		return "protocol_error"
	case strings.HasPrefix(msg, "incompatible version"):
		return "incompatible_version"
	default:
		return "other"
	}
}
