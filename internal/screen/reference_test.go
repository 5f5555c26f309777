package screen

import (
	"testing"

	"inputshare/internal/eventloop"
)

func TestReferenceGrabClipboardRaisesEvent(t *testing.T) {
	loop := eventloop.New()
	s := NewReference(loop)

	var got ClipboardGrabbedInfo
	fired := false
	loop.Subscribe(ClipboardGrabbed, s, func(e eventloop.Event) {
		got = e.Data.(ClipboardGrabbedInfo)
		fired = true
	})

	s.GrabClipboard(ClipboardSelection)
	loop.Drain()

	if !fired {
		t.Fatal("expected ClipboardGrabbed event")
	}
	if got.ID != ClipboardSelection {
		t.Fatalf("got id %v, want %v", got.ID, ClipboardSelection)
	}
}

func TestReferenceScreensaverTogglesSuspendResume(t *testing.T) {
	loop := eventloop.New()
	s := NewReference(loop)

	var events []eventloop.Type
	loop.Subscribe(Suspend, s, func(e eventloop.Event) { events = append(events, e.Type) })
	loop.Subscribe(Resume, s, func(e eventloop.Event) { events = append(events, e.Type) })

	s.Screensaver(true)
	s.Screensaver(false)
	loop.Drain()

	if len(events) != 2 || events[0] != Suspend || events[1] != Resume {
		t.Fatalf("unexpected event sequence: %v", events)
	}
}

func TestReferenceGetClipboardExpectedTimeOptimization(t *testing.T) {
	s := NewReference(eventloop.New())
	s.SetClipboard(ClipboardClipboard, []byte("hello"))

	_, t1 := s.GetClipboard(ClipboardClipboard, 0)
	payload, t2 := s.GetClipboard(ClipboardClipboard, t1)
	if t2 != t1 {
		t.Fatalf("timestamp should be stable across calls with matching expectedTime: %d != %d", t1, t2)
	}
	if string(payload) != "hello" {
		t.Fatalf("payload mismatch: %q", payload)
	}
}
