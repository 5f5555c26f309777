package serverproxy

import (
	"testing"

	"inputshare/internal/protocol"
	"inputshare/internal/screen"
)

type fakeDispatcher struct {
	entered       bool
	left          bool
	keyDownCode   screen.KeyID
	clipboardID   screen.ClipboardID
	clipboardData []byte
	grabbedID     screen.ClipboardID
	timingReq     bool
}

func (f *fakeDispatcher) Enter(x, y int32, seqNum uint32, mask screen.KeyModifierMask, forScreensaver bool) {
	f.entered = true
}
func (f *fakeDispatcher) Leave()                                              { f.left = true }
func (f *fakeDispatcher) SetClipboardDirty(id screen.ClipboardID, dirty bool) {}
func (f *fakeDispatcher) KeyDown(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton) {
	f.keyDownCode = id
}
func (f *fakeDispatcher) KeyRepeat(id screen.KeyID, mask screen.KeyModifierMask, count int16, button screen.KeyButton) {
}
func (f *fakeDispatcher) KeyUp(id screen.KeyID, mask screen.KeyModifierMask, button screen.KeyButton) {
}
func (f *fakeDispatcher) MouseDown(id screen.ButtonID)          {}
func (f *fakeDispatcher) MouseUp(id screen.ButtonID)            {}
func (f *fakeDispatcher) MouseMoveAbs(x, y int32)               {}
func (f *fakeDispatcher) MouseMoveRel(dx, dy int32)             {}
func (f *fakeDispatcher) MouseWheel(xDelta, yDelta int32)       {}
func (f *fakeDispatcher) SetClipboard(id screen.ClipboardID, payload []byte) {
	f.clipboardID = id
	f.clipboardData = payload
}
func (f *fakeDispatcher) GrabClipboard(id screen.ClipboardID) { f.grabbedID = id }
func (f *fakeDispatcher) GameDeviceButtons(id screen.GameDeviceID, buttons screen.GameDeviceButton) {
}
func (f *fakeDispatcher) GameDeviceSticks(id screen.GameDeviceID, x1, y1, x2, y2 int16) {}
func (f *fakeDispatcher) GameDeviceTriggers(id screen.GameDeviceID, t1, t2 uint8)       {}
func (f *fakeDispatcher) GameDeviceTimingReq()                                         { f.timingReq = true }

func TestHandleFrameLeave(t *testing.T) {
	d := &fakeDispatcher{}
	p := New(nil, d)
	frame := protocol.NewWriter(protocol.TagLeave).Payload()
	if err := p.HandleFrame(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.left {
		t.Fatal("expected Leave to be dispatched")
	}
}

func TestHandleFrameClipboardSet(t *testing.T) {
	d := &fakeDispatcher{}
	p := New(nil, d)
	frame := protocol.NewWriter(protocol.TagClipboardSet).Uint8(1).Bytes([]byte("payload")).Payload()
	if err := p.HandleFrame(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.clipboardID != screen.ClipboardID(1) || string(d.clipboardData) != "payload" {
		t.Fatalf("unexpected dispatch: id=%v data=%q", d.clipboardID, d.clipboardData)
	}
}

func TestHandleFrameUnknownTag(t *testing.T) {
	d := &fakeDispatcher{}
	p := New(nil, d)
	frame := []byte("XXXX")
	if err := p.HandleFrame(frame); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestHandleFrameGameTimingReq(t *testing.T) {
	d := &fakeDispatcher{}
	p := New(nil, d)
	frame := protocol.NewWriter(protocol.TagGameTimingReq).Payload()
	if err := p.HandleFrame(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.timingReq {
		t.Fatal("expected GameDeviceTimingReq to be dispatched")
	}
}
