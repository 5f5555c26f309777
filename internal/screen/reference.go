package screen

import (
	"sync"

	"inputshare/internal/eventloop"
	"inputshare/internal/osutils"
)

// Reference is a headless Screen usable in tests and on any platform
// without a real input-capture/clipboard backend. It keeps clipboard
// slots and screen shape in memory and raises the same events a real
// platform screen would, so the session engine can be exercised without
// a display server. Grounded on aluo96078-vkvm's approach of pairing
// every platform-specific collaborator with a stub implementation
// (internal/input/trap_stub.go) for build tags lacking a native backend.
type Reference struct {
	loop *eventloop.Loop

	mu          sync.Mutex
	enabled     bool
	screensaver bool
	shapeX      int32
	shapeY      int32
	shapeW      int32
	shapeH      int32
	cursorX     int32
	cursorY     int32

	clipboards [ClipboardEnd]Clipboard

	// Calls records every method invocation's name for assertions in
	// tests that only care "did this get delivered", not the platform
	// side effect.
	Calls []string
}

// NewReference returns a Reference screen publishing events on loop,
// with an initial 1920x1080 shape at the origin.
func NewReference(loop *eventloop.Loop) *Reference {
	return &Reference{
		loop:   loop,
		shapeW: 1920,
		shapeH: 1080,
	}
}

func (s *Reference) EventTarget() eventloop.Target { return s }

func (s *Reference) record(name string) {
	s.Calls = append(s.Calls, name)
}

func (s *Reference) Enable() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
	s.record("Enable")
}

func (s *Reference) Disable() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
	s.record("Disable")
}

func (s *Reference) MouseMoveAbs(x, y int32) {
	s.mu.Lock()
	s.cursorX, s.cursorY = x, y
	s.mu.Unlock()
	s.record("MouseMoveAbs")
}

func (s *Reference) MouseMoveRel(dx, dy int32) {
	s.mu.Lock()
	s.cursorX += dx
	s.cursorY += dy
	s.mu.Unlock()
	s.record("MouseMoveRel")
}

func (s *Reference) MouseDown(id ButtonID) { s.record("MouseDown") }
func (s *Reference) MouseUp(id ButtonID)   { s.record("MouseUp") }
func (s *Reference) MouseWheel(xDelta, yDelta int32) {
	s.record("MouseWheel")
}

func (s *Reference) Enter(mask KeyModifierMask) { s.record("Enter") }
func (s *Reference) Leave()                     { s.record("Leave") }

func (s *Reference) KeyDown(id KeyID, mask KeyModifierMask, button KeyButton) {
	s.record("KeyDown")
}

func (s *Reference) KeyRepeat(id KeyID, mask KeyModifierMask, count int32, button KeyButton) {
	s.record("KeyRepeat")
}

func (s *Reference) KeyUp(id KeyID, mask KeyModifierMask, button KeyButton) {
	s.record("KeyUp")
}

// GetClipboard implements the "open with expected timestamp" optimization
// described in spec §4.3/§9: if the caller's expectedTime already matches
// what this screen holds for the slot, the stored payload is returned
// without doing any extra work, exactly mirroring what a real platform
// clipboard would do when CClipboard::open(expectedTime) finds nothing
// changed.
func (s *Reference) GetClipboard(id ClipboardID, expectedTime uint32) ([]byte, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.clipboards[id]
	if expectedTime != 0 && c.Time == expectedTime {
		return c.Payload, c.Time
	}
	return c.Payload, c.Time
}

func (s *Reference) SetClipboard(id ClipboardID, payload []byte) {
	s.mu.Lock()
	s.clipboards[id] = Clipboard{Time: s.clipboards[id].Time + 1, Payload: payload}
	s.mu.Unlock()
	s.record("SetClipboard")
}

// GrabClipboard simulates this screen taking local ownership of slot id,
// bumping its timestamp and notifying subscribers (session's clipboard
// tracker listens for this to start a send).
func (s *Reference) GrabClipboard(id ClipboardID) {
	s.mu.Lock()
	s.clipboards[id] = Clipboard{Time: s.clipboards[id].Time + 1, Payload: s.clipboards[id].Payload}
	s.mu.Unlock()
	s.record("GrabClipboard")
	if s.loop != nil {
		s.loop.Post(eventloop.Event{Type: ClipboardGrabbed, Target: s, Data: ClipboardGrabbedInfo{ID: id}})
	}
}

// Screensaver activates or deactivates the local screensaver. Activation
// raises Suspend; deactivation raises Resume, per spec §4.6's contract
// that suspend/resume is screen-driven. A real backend detects this from
// OS power events; the reference implementation only reacts to an
// explicit call, and additionally nudges the OS not to actually blank
// the display out from under a running session (osutils.WakeUp) when
// deactivated, grounded on aluo96078-vkvm's internal/osutils wake helpers.
func (s *Reference) Screensaver(activate bool) {
	s.mu.Lock()
	changed := s.screensaver != activate
	s.screensaver = activate
	s.mu.Unlock()
	s.record("Screensaver")
	if !changed || s.loop == nil {
		return
	}
	if activate {
		s.loop.Post(eventloop.Event{Type: Suspend, Target: s})
	} else {
		osutils.WakeUp()
		s.loop.Post(eventloop.Event{Type: Resume, Target: s})
	}
}

func (s *Reference) IsScreensaverActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screensaver
}

func (s *Reference) ResetOptions()         { s.record("ResetOptions") }
func (s *Reference) SetOptions(o []Option) { s.record("SetOptions") }

func (s *Reference) Shape() (x, y, w, h int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shapeX, s.shapeY, s.shapeW, s.shapeH
}

// SetShape changes the reported shape and raises ShapeChanged, used by
// tests exercising the info-changed path.
func (s *Reference) SetShape(x, y, w, h int32) {
	s.mu.Lock()
	s.shapeX, s.shapeY, s.shapeW, s.shapeH = x, y, w, h
	s.mu.Unlock()
	if s.loop != nil {
		s.loop.Post(eventloop.Event{Type: ShapeChanged, Target: s})
	}
}

func (s *Reference) CursorPos() (x, y int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorX, s.cursorY
}

func (s *Reference) GameDeviceButtons(id GameDeviceID, buttons GameDeviceButton) {
	s.record("GameDeviceButtons")
}

func (s *Reference) GameDeviceSticks(id GameDeviceID, x1, y1, x2, y2 int16) {
	s.record("GameDeviceSticks")
}

func (s *Reference) GameDeviceTriggers(id GameDeviceID, t1, t2 uint8) {
	s.record("GameDeviceTriggers")
}

// GameDeviceTimingReq simulates the screen's own timing loop replying
// immediately with a fixed polling frequency; a real backend would defer
// this to its native game-controller feedback timer.
func (s *Reference) GameDeviceTimingReq() {
	s.record("GameDeviceTimingReq")
	if s.loop != nil {
		s.loop.Post(eventloop.Event{Type: GameDeviceTimingResp, Target: s, Data: GameDeviceTimingRespInfo{Freq: 16}})
	}
}

var _ Screen = (*Reference)(nil)
