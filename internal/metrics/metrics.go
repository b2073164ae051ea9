package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Turns holds the counters recorded by the turn pipeline. A nil *Turns is
// valid and records nothing.
type Turns struct {
	Outcomes       *prometheus.CounterVec
	Decisions      *prometheus.CounterVec
	MeetingsBooked prometheus.Counter
	Replays        prometheus.Counter
	Fallbacks      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Turns {
	t := &Turns{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_turns_total",
			Help: "Processed call turns by outcome.",
		}, []string{"outcome"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_decisions_total",
			Help: "Decisions by source (engine name, slot inference, guard).",
		}, []string{"source"}),
		MeetingsBooked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_meetings_booked_total",
			Help: "Meetings booked during calls.",
		}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agent_idempotent_replays_total",
			Help: "Provider retries answered from the response cache.",
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_normalization_fallbacks_total",
			Help: "Normalization steps that returned a substitute text.",
		}, []string{"direction", "reason"}),
	}
	if reg != nil {
		reg.MustRegister(t.Outcomes, t.Decisions, t.MeetingsBooked, t.Replays, t.Fallbacks)
	}
	return t
}

func (t *Turns) Outcome(outcome string) {
	if t != nil {
		t.Outcomes.WithLabelValues(outcome).Inc()
	}
}

func (t *Turns) Decision(source string) {
	if t != nil {
		t.Decisions.WithLabelValues(source).Inc()
	}
}

func (t *Turns) Booked() {
	if t != nil {
		t.MeetingsBooked.Inc()
	}
}

func (t *Turns) Replay() {
	if t != nil {
		t.Replays.Inc()
	}
}

func (t *Turns) Fallback(direction, reason string) {
	if t != nil {
		t.Fallbacks.WithLabelValues(direction, reason).Inc()
	}
}
