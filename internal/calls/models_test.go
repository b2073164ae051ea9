package calls

import "testing"

func TestParseStatus(t *testing.T) {
	cases := map[string]CallStatus{
		"completed":   CallStatusCompleted,
		"in-progress": CallStatusInProgress,
		"in_progress": CallStatusInProgress,
		" No-Answer ": CallStatusNoAnswer,
	}
	for in, want := range cases {
		if got := ParseStatus(in); got != want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCallStatusTerminal(t *testing.T) {
	terminal := []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	for _, s := range []CallStatus{CallStatusQueued, CallStatusRinging, CallStatusInProgress, ""} {
		if s.IsTerminal() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}

func TestIdempotencyKey(t *testing.T) {
	if got := IdempotencyKey(3, SourceRecording, "RE123", "whatever"); got != "turn:3:recording:RE123" {
		t.Fatalf("unexpected key with source id: %q", got)
	}
	if got := IdempotencyKey(0, SourceLive, "", ""); got != "turn:0:live:empty" {
		t.Fatalf("unexpected key for empty utterance: %q", got)
	}
	a := IdempotencyKey(1, SourceLive, "", "yes")
	b := IdempotencyKey(1, SourceLive, "", "yes")
	c := IdempotencyKey(1, SourceLive, "", "no")
	d := IdempotencyKey(2, SourceLive, "", "yes")
	if a != b {
		t.Fatalf("identical retries must share a key: %q vs %q", a, b)
	}
	if a == c || a == d {
		t.Fatalf("different utterance or turn must change the key")
	}
	if IdempotencyKey(1, "", "", "yes") != a {
		t.Fatalf("empty source should default to live")
	}
}
