// Package serverproxy implements the collaborator spec §4.2 describes as
// constructed only once the session reaches Active: it parses every
// inbound wire message using package protocol's tag vocabulary and calls
// into a Dispatcher, and it encodes every outbound message the dispatcher
// or clipboard tracker needs to send back to the remote. It is the thing
// CClient.cpp calls m_server, grounded on that file's message-dispatch
// switch (handleHello and friends) generalized from "one handler per
// signal" into "one handler per wire tag", per the spec's design note
// preferring a tagged-event sum type over callback proliferation (§9).
package serverproxy

import (
	"fmt"

	"inputshare/internal/protocol"
	"inputshare/internal/screen"
	"inputshare/internal/stream"
)

// Dispatcher receives calls translated from wire messages (spec §4.5).
// The session implements this; ServerProxy holds only a non-owning
// reference to it, matching the cyclic-reference resolution in spec §9
// (session owns proxy; proxy never owns the session back).
type Dispatcher interface {
	Enter(x, y int32, seqNum uint32, mask screen.KeyModifierMask, forScreensaver bool)
	Leave()
	SetClipboardDirty(id screen.ClipboardID, dirty bool)

	KeyDown(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton)
	KeyRepeat(id screen.KeyID, mask screen.KeyModifierMask, count int16, button screen.KeyButton)
	KeyUp(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton)

	MouseDown(id screen.ButtonID)
	MouseUp(id screen.ButtonID)
	MouseMoveAbs(x, y int32)
	MouseMoveRel(dx, dy int32)
	MouseWheel(xDelta, yDelta int32)

	SetClipboard(id screen.ClipboardID, payload []byte)
	GrabClipboard(id screen.ClipboardID)

	GameDeviceButtons(id screen.GameDeviceID, buttons screen.GameDeviceButton)
	GameDeviceSticks(id screen.GameDeviceID, x1, y1, x2, y2 int16)
	GameDeviceTriggers(id screen.GameDeviceID, t1, t2 uint8)
	GameDeviceTimingReq()
}

// ServerProxy parses inbound frames from stream into Dispatcher calls and
// encodes outbound messages onto the same stream. It is constructed once
// per Active session and discarded on any exit from Active (spec §4.4
// Terminating row: "destroy server proxy").
type ServerProxy struct {
	stream     stream.FrameStream
	dispatcher Dispatcher
}

// New wires a ServerProxy to an already-framed stream and the session's
// dispatcher. The stream is expected to already be past the Hello/HelloBack
// handshake — everything read through HandleFrame from here on is
// delegated traffic (spec §4.2).
func New(s stream.FrameStream, d Dispatcher) *ServerProxy {
	return &ServerProxy{stream: s, dispatcher: d}
}

// HandleFrame parses one inbound frame and dispatches it. An error here is
// a protocol error and the caller (the session) is responsible for
// tearing down the connection (spec §7).
func (p *ServerProxy) HandleFrame(frame []byte) error {
	r := protocol.NewReader(frame)
	tag, err := r.Tag()
	if err != nil {
		return err
	}

	switch tag {
	case protocol.TagEnter:
		x, err1 := r.Int32()
		y, err2 := r.Int32()
		seq, err3 := r.Uint32()
		mask, err4 := r.Uint16()
		forSaver, err5 := r.Uint8()
		if err := firstErr(err1, err2, err3, err4, err5); err != nil {
			return err
		}
		p.dispatcher.Enter(x, y, seq, screen.KeyModifierMask(mask), forSaver != 0)

	case protocol.TagLeave:
		p.dispatcher.Leave()

	case protocol.TagKeyDown:
		code, err1 := r.Uint16()
		mask, err2 := r.Uint16()
		button, err3 := r.Uint16()
		if err := firstErr(err1, err2, err3); err != nil {
			return err
		}
		p.dispatcher.KeyDown(screen.KeyID(code), screen.KeyModifierMask(mask), screen.KeyButton(button))

	case protocol.TagKeyRepeat:
		code, err1 := r.Uint16()
		mask, err2 := r.Uint16()
		count, err3 := r.Int16()
		button, err4 := r.Uint16()
		if err := firstErr(err1, err2, err3, err4); err != nil {
			return err
		}
		p.dispatcher.KeyRepeat(screen.KeyID(code), screen.KeyModifierMask(mask), count, screen.KeyButton(button))

	case protocol.TagKeyUp:
		code, err1 := r.Uint16()
		mask, err2 := r.Uint16()
		button, err3 := r.Uint16()
		if err := firstErr(err1, err2, err3); err != nil {
			return err
		}
		p.dispatcher.KeyUp(screen.KeyID(code), screen.KeyModifierMask(mask), screen.KeyButton(button))

	case protocol.TagMouseMoveAbs:
		x, err1 := r.Int32()
		y, err2 := r.Int32()
		if err := firstErr(err1, err2); err != nil {
			return err
		}
		p.dispatcher.MouseMoveAbs(x, y)

	case protocol.TagMouseMoveRel:
		dx, err1 := r.Int32()
		dy, err2 := r.Int32()
		if err := firstErr(err1, err2); err != nil {
			return err
		}
		p.dispatcher.MouseMoveRel(dx, dy)

	case protocol.TagMouseDown:
		id, err1 := r.Uint8()
		if err1 != nil {
			return err1
		}
		p.dispatcher.MouseDown(screen.ButtonID(id))

	case protocol.TagMouseUp:
		id, err1 := r.Uint8()
		if err1 != nil {
			return err1
		}
		p.dispatcher.MouseUp(screen.ButtonID(id))

	case protocol.TagMouseWheel:
		xd, err1 := r.Int32()
		yd, err2 := r.Int32()
		if err := firstErr(err1, err2); err != nil {
			return err
		}
		p.dispatcher.MouseWheel(xd, yd)

	case protocol.TagClipboardSet:
		id, err1 := r.Uint8()
		if err1 != nil {
			return err1
		}
		p.dispatcher.SetClipboard(screen.ClipboardID(id), append([]byte(nil), r.Remaining()...))

	case protocol.TagClipboardGrab:
		id, err1 := r.Uint8()
		if err1 != nil {
			return err1
		}
		p.dispatcher.GrabClipboard(screen.ClipboardID(id))

	case protocol.TagGameButtons:
		id, err1 := r.Uint8()
		buttons, err2 := r.Uint16()
		if err := firstErr(err1, err2); err != nil {
			return err
		}
		p.dispatcher.GameDeviceButtons(screen.GameDeviceID(id), screen.GameDeviceButton(buttons))

	case protocol.TagGameSticks:
		id, err1 := r.Uint8()
		x1, err2 := r.Int16()
		y1, err3 := r.Int16()
		x2, err4 := r.Int16()
		y2, err5 := r.Int16()
		if err := firstErr(err1, err2, err3, err4, err5); err != nil {
			return err
		}
		p.dispatcher.GameDeviceSticks(screen.GameDeviceID(id), x1, y1, x2, y2)

	case protocol.TagGameTriggers:
		id, err1 := r.Uint8()
		t1, err2 := r.Uint8()
		t2, err3 := r.Uint8()
		if err := firstErr(err1, err2, err3); err != nil {
			return err
		}
		p.dispatcher.GameDeviceTriggers(screen.GameDeviceID(id), t1, t2)

	case protocol.TagGameTimingReq:
		p.dispatcher.GameDeviceTimingReq()

	default:
		return fmt.Errorf("serverproxy: unknown message tag %q", tag)
	}
	return nil
}

// SendClipboardOwned tells the remote this client now owns slot id,
// before any payload bytes are sent for it (spec §5 ordering guarantee b).
func (p *ServerProxy) SendClipboardOwned(id screen.ClipboardID) error {
	w := protocol.NewWriter(protocol.TagClipboardOwned).Uint8(uint8(id))
	return p.stream.WriteFrame(w.Payload())
}

// SendClipboardChanged transmits the marshalled payload for slot id.
func (p *ServerProxy) SendClipboardChanged(id screen.ClipboardID, payload []byte) error {
	w := protocol.NewWriter(protocol.TagClipboardChanged).Uint8(uint8(id)).Bytes(payload)
	return p.stream.WriteFrame(w.Payload())
}

// SendInfoChanged reports the local screen's shape.
func (p *ServerProxy) SendInfoChanged(x, y, w, h int32) error {
	msg := protocol.NewWriter(protocol.TagInfoChanged).Int32(x).Int32(y).Int32(w).Int32(h)
	return p.stream.WriteFrame(msg.Payload())
}

// SendGameDeviceTimingResp forwards the screen's reported polling
// frequency back to the remote that asked for it.
func (p *ServerProxy) SendGameDeviceTimingResp(freq int32) error {
	w := protocol.NewWriter(protocol.TagGameTimingResp).Int32(freq)
	return p.stream.WriteFrame(w.Payload())
}

// SendGameDeviceFeedback forwards a local game-device feedback event (e.g.
// a controller reporting rumble motor state) up to the remote.
func (p *ServerProxy) SendGameDeviceFeedback(id screen.GameDeviceID, m1, m2 uint16) error {
	w := protocol.NewWriter(protocol.TagGameFeedback).Uint8(uint8(id)).Uint16(m1).Uint16(m2)
	return p.stream.WriteFrame(w.Payload())
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
