package session

import (
	"inputshare/internal/screen"
	"inputshare/internal/serverproxy"
)

// The methods below implement serverproxy.Dispatcher (spec §4.5): the
// server proxy calls these as it parses delegated wire messages, and each
// is a thin translation to the screen collaborator, mirroring
// CClient.cpp's own dispatch methods one for one.

// Enter sets active=true, positions the cursor, then tells the screen it
// has gained focus. seqNum and forScreensaver are accepted for wire
// compatibility but unused by this dispatcher, the same way CClient.cpp's
// enter() ignores them beyond passing the mask through.
func (s *Session) Enter(x, y int32, seqNum uint32, mask screen.KeyModifierMask, forScreensaver bool) {
	s.setActive(true)
	s.screen.MouseMoveAbs(x, y)
	s.screen.Enter(mask)
}

// Leave sets active=false and flushes every locally-owned clipboard slot
// (spec §4.3, §4.5).
func (s *Session) Leave() {
	s.setActive(false)
	s.flushClipboards()
}

// SetClipboardDirty must never be invoked on the client side of this
// protocol; the method exists only because Dispatcher is the same shape
// the server-side proxy would implement. Reaching it is a contract
// violation (spec §4.5, §7).
func (s *Session) SetClipboardDirty(id screen.ClipboardID, dirty bool) {
	panic("session: setClipboardDirty must never be called on the client")
}

func (s *Session) KeyDown(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton) {
	s.screen.KeyDown(id, mask, button)
}

func (s *Session) KeyRepeat(id screen.KeyID, mask screen.KeyModifierMask, count int16, button screen.KeyButton) {
	s.screen.KeyRepeat(id, mask, int32(count), button)
}

func (s *Session) KeyUp(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton) {
	s.screen.KeyUp(id, mask, button)
}

func (s *Session) MouseDown(id screen.ButtonID) { s.screen.MouseDown(id) }
func (s *Session) MouseUp(id screen.ButtonID)   { s.screen.MouseUp(id) }
func (s *Session) MouseMoveAbs(x, y int32)      { s.screen.MouseMoveAbs(x, y) }
func (s *Session) MouseMoveRel(dx, dy int32)    { s.screen.MouseMoveRel(dx, dy) }
func (s *Session) MouseWheel(xDelta, yDelta int32) {
	s.screen.MouseWheel(xDelta, yDelta)
}

// SetClipboard is the "remote sets clipboard" transition (spec §4.3):
// write through to the screen and release any local ownership claim.
func (s *Session) SetClipboard(id screen.ClipboardID, payload []byte) {
	s.screen.SetClipboard(id, payload)
	s.clipboards[id].owned = false
	s.clipboards[id].sent = false
}

// GrabClipboard is the "remote grabs clipboard" transition (spec §4.3):
// tell the screen the remote now owns this slot and release any local
// ownership claim.
func (s *Session) GrabClipboard(id screen.ClipboardID) {
	s.screen.GrabClipboard(id)
	s.clipboards[id].owned = false
	s.clipboards[id].sent = false
}

func (s *Session) GameDeviceButtons(id screen.GameDeviceID, buttons screen.GameDeviceButton) {
	s.screen.GameDeviceButtons(id, buttons)
}

func (s *Session) GameDeviceSticks(id screen.GameDeviceID, x1, y1, x2, y2 int16) {
	s.screen.GameDeviceSticks(id, x1, y1, x2, y2)
}

func (s *Session) GameDeviceTriggers(id screen.GameDeviceID, t1, t2 uint8) {
	s.screen.GameDeviceTriggers(id, t1, t2)
}

func (s *Session) GameDeviceTimingReq() {
	s.screen.GameDeviceTimingReq()
}

var _ serverproxy.Dispatcher = (*Session)(nil)
