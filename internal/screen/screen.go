// Package screen defines the platform screen driver collaborator spec §1
// and §6 treat as external: it captures local input, paints the remote
// cursor, owns the system clipboard, and reports geometry. The session
// engine only ever talks to the Screen interface; Reference (screen.go's
// sibling reference.go) is a headless implementation used by tests and by
// any deployment that wants to exercise the engine without a real
// platform backend.
package screen

import "inputshare/internal/eventloop"

// ClipboardID indexes the small fixed set of clipboard slots (spec §3,
// GLOSSARY).
type ClipboardID int

const (
	ClipboardClipboard ClipboardID = iota
	ClipboardSelection
	ClipboardEnd // sentinel: number of slots
)

// KeyModifierMask is a bitmask of held modifier keys.
type KeyModifierMask uint16

// KeyID, KeyButton, ButtonID, GameDeviceID and GameDeviceButton mirror the
// small value types the dispatcher methods (spec §4.5) pass through to the
// screen untouched.
type (
	KeyID            uint16
	KeyButton        uint16
	ButtonID         uint8
	GameDeviceID     uint8
	GameDeviceButton uint16
)

// Option is an opaque screen option (spec §6 "options reset/set"); the
// session never inspects option contents, only forwards them.
type Option struct {
	Key   uint32
	Value int32
}

// Event types the screen collaborator raises (spec §6). Target is always
// the Screen instance itself.
var (
	Suspend              = eventloop.NewType("screen.Suspend")
	Resume               = eventloop.NewType("screen.Resume")
	ShapeChanged         = eventloop.NewType("screen.ShapeChanged")
	ClipboardGrabbed     = eventloop.NewType("screen.ClipboardGrabbed")
	GameDeviceTimingResp = eventloop.NewType("screen.GameDeviceTimingResp")
	GameDeviceFeedback   = eventloop.NewType("screen.GameDeviceFeedback")
)

// ClipboardGrabbedInfo is the payload of a ClipboardGrabbed event.
type ClipboardGrabbedInfo struct {
	ID ClipboardID
}

// GameDeviceTimingRespInfo is the payload of a GameDeviceTimingResp event.
type GameDeviceTimingRespInfo struct {
	Freq int32
}

// GameDeviceFeedbackInfo is the payload of a GameDeviceFeedback event.
type GameDeviceFeedbackInfo struct {
	ID     GameDeviceID
	Motor1 uint16
	Motor2 uint16
}

// Screen is the collaborator consumed by the session and its dispatcher
// (spec §4.5, §6).
type Screen interface {
	// EventTarget identifies this screen for Suspend/Resume/ShapeChanged/
	// ClipboardGrabbed/GameDevice* subscriptions.
	EventTarget() eventloop.Target

	Enable()
	Disable()

	MouseMoveAbs(x, y int32)
	MouseMoveRel(dx, dy int32)
	MouseDown(id ButtonID)
	MouseUp(id ButtonID)
	MouseWheel(xDelta, yDelta int32)

	Enter(mask KeyModifierMask)
	Leave()

	KeyDown(id KeyID, mask KeyModifierMask, button KeyButton)
	KeyRepeat(id KeyID, mask KeyModifierMask, count int32, button KeyButton)
	KeyUp(id KeyID, mask KeyModifierMask, button KeyButton)

	// GetClipboard returns the slot's current payload and timestamp. If
	// the screen's own notion of the timestamp still matches
	// expectedTime, it may skip a real marshal and return the same
	// bytes it last returned for that timestamp (spec §4.3, §9).
	GetClipboard(id ClipboardID, expectedTime uint32) (payload []byte, currentTime uint32)
	SetClipboard(id ClipboardID, payload []byte)
	GrabClipboard(id ClipboardID)

	Screensaver(activate bool)
	IsScreensaverActive() bool

	ResetOptions()
	SetOptions(options []Option)

	Shape() (x, y, w, h int32)
	CursorPos() (x, y int32)

	GameDeviceButtons(id GameDeviceID, buttons GameDeviceButton)
	GameDeviceSticks(id GameDeviceID, x1, y1, x2, y2 int16)
	GameDeviceTriggers(id GameDeviceID, t1, t2 uint8)
	GameDeviceTimingReq()
}
