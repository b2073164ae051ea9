package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTurns_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Outcome("continue")
	m.Outcome("continue")
	m.Decision("llm")
	m.Booked()
	m.Replay()
	m.Fallback("to_caller", "error")

	if got := testutil.ToFloat64(m.Outcomes.WithLabelValues("continue")); got != 2 {
		t.Fatalf("expected 2 continue outcomes, got %v", got)
	}
	if got := testutil.ToFloat64(m.MeetingsBooked); got != 1 {
		t.Fatalf("expected 1 booking, got %v", got)
	}
	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues("to_caller", "error")); got != 1 {
		t.Fatalf("expected 1 fallback, got %v", got)
	}
}

func TestTurns_NilIsNoop(t *testing.T) {
	var m *Turns
	m.Outcome("x")
	m.Decision("x")
	m.Booked()
	m.Replay()
	m.Fallback("x", "y")
}
