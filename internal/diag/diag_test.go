package diag

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"inputshare/internal/session"
)

type fakeStatus struct{ snap session.Status }

func (f fakeStatus) Snapshot() session.Status { return f.snap }

func TestHandleHealthz(t *testing.T) {
	s := New("myclient", fakeStatus{snap: session.Status{State: session.Idle}})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	s.handleHealthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	s := New("myclient", fakeStatus{snap: session.Status{State: session.Active, Ready: true, Active: true}})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)

	s.handleStatus(rr, req)

	body := rr.Body.String()
	if !contains(body, "Active") || !contains(body, "myclient") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
