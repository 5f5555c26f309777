package session

import (
	"bytes"

	"inputshare/internal/eventloop"
	"inputshare/internal/metrics"
	"inputshare/internal/screen"
)

// clipboardSlot is one entry of the clipboard tracker (spec §3, §4.3).
type clipboardSlot struct {
	owned       bool
	sent        bool
	time        uint32
	lastPayload []byte
}

// resetAllClipboardSlots is the AwaitingHello entry side effect (spec
// §4.4): every slot starts unowned, unsent, with no known timestamp.
func (s *Session) resetAllClipboardSlots() {
	for i := range s.clipboards {
		s.clipboards[i] = clipboardSlot{}
	}
}

func clipboardSlotName(id screen.ClipboardID) string {
	switch id {
	case screen.ClipboardClipboard:
		return "clipboard"
	case screen.ClipboardSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// handleScreenClipboardGrabbed is the "screen reports clipboard grabbed
// locally" transition (spec §4.3): announce ownership to the remote
// before any payload bytes, then either send now (we're not being looked
// at) or defer to the next leave().
func (s *Session) handleScreenClipboardGrabbed(ev eventloop.Event) {
	info, ok := ev.Data.(screen.ClipboardGrabbedInfo)
	if !ok {
		return
	}
	id := info.ID
	s.clipboards[id] = clipboardSlot{owned: true}

	if err := s.proxy.SendClipboardOwned(id); err != nil {
		s.succeedDisconnect()
		return
	}
	if !s.active {
		s.sendClipboardPayload(id)
	}
}

// sendClipboardPayload implements the leave()-time per-slot computation
// in spec §4.3: open with the last-seen timestamp so the screen can
// short-circuit an unchanged clipboard, then only marshal and transmit
// if the timestamp or the bytes actually moved.
func (s *Session) sendClipboardPayload(id screen.ClipboardID) {
	slot := &s.clipboards[id]
	payload, t := s.screen.GetClipboard(id, slot.time)
	if slot.time != 0 && t == slot.time {
		return
	}
	slot.time = t
	if slot.sent && bytes.Equal(payload, slot.lastPayload) {
		return
	}
	slot.lastPayload = payload
	slot.sent = true
	metrics.ClipboardSendsTotal.WithLabelValues(clipboardSlotName(id)).Inc()
	if err := s.proxy.SendClipboardChanged(id, payload); err != nil {
		s.succeedDisconnect()
	}
}

// flushClipboards is the leave() transition (spec §4.3): compute and
// transmit the payload for every still-locally-owned slot.
func (s *Session) flushClipboards() {
	for id := screen.ClipboardID(0); id < screen.ClipboardEnd; id++ {
		if s.clipboards[id].owned {
			s.sendClipboardPayload(id)
		}
	}
}
