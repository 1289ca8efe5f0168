package permits

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusPending, StatusActive) {
		t.Fatal("expected pending -> active to be allowed")
	}
	if !CanTransition(StatusPending, StatusRejected) {
		t.Fatal("expected pending -> rejected to be allowed")
	}
	if !CanTransition(StatusActive, StatusExpired) {
		t.Fatal("expected active -> expired to be allowed")
	}
	if CanTransition(StatusActive, StatusPending) {
		t.Fatal("unexpected active -> pending allowed")
	}
	if CanTransition(StatusExpired, StatusActive) {
		t.Fatal("unexpected transition out of expired")
	}
	if CanTransition(StatusRejected, StatusActive) {
		t.Fatal("unexpected transition out of rejected")
	}
	if CanTransition(StatusPending, StatusExpired) {
		t.Fatal("sweep must not expire a permit that never became active")
	}
	if CanTransition("bogus", StatusActive) {
		t.Fatal("unknown status must not transition")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, st := range []string{StatusExpired, StatusRejected} {
		if !IsTerminal(st) {
			t.Fatalf("expected %s to be terminal", st)
		}
	}
	for _, st := range []string{StatusPending, StatusActive} {
		if IsTerminal(st) {
			t.Fatalf("expected %s to be non-terminal", st)
		}
	}
	if ValidStatus("approved") {
		t.Fatal("approved is not a permit status")
	}
}
