package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/session"
)

var (
	notInterestedKeywords = []string{"not interested", "no thanks", "not now", "don't want", "not for me"}
	identityKeywords      = []string{"who are you", "what is habari", "who is this", "what do you do"}
	offerMarkers          = []string{"availability", "10:00", "14:00", "tomorrow", "day after", "schedule", "works for you"}
	qualifyingMarkers     = []string{"how", "do you have", "what"}
	positiveKeywords      = []string{"yes", "sure", "of course", "sounds", "interesting", "want to hear"}
	timeKeywords          = []string{"10", "14", "tomorrow", "day after", "morning", "afternoon", "first", "second",
		"sunday", "monday", "tuesday", "wednesday", "thursday"}
)

type stage int

const (
	stageGreeting stage = iota
	stageQualifying
	stageOffering
)

// RuleEngine is the deterministic decision policy. Categories are checked
// in a fixed order: not interested, identity question, then the handler
// for the stage inferred from history.
type RuleEngine struct {
	sched calendar.Scheduler
	log   *slog.Logger
}

func NewRuleEngine(sched calendar.Scheduler, log *slog.Logger) *RuleEngine {
	if log == nil {
		log = slog.Default()
	}
	return &RuleEngine{sched: sched, log: log}
}

func (e *RuleEngine) Name() string { return "rules" }

func (e *RuleEngine) Decide(ctx context.Context, lead *leads.Lead, history []session.Turn, utterance string) Decision {
	msg := strings.ToLower(strings.TrimSpace(utterance))

	if containsAny(msg, notInterestedKeywords) {
		return Decision{Reply: ReplyNotInterested, Action: EndCall{Reason: "not interested"}}
	}
	if containsAny(msg, identityKeywords) {
		return Decision{Reply: "I'm Messiah from Habari's Sales Company. We build AI agents that answer and qualify " +
			"your inbound leads around the clock, so your team only talks to buyers. How do you handle inbound leads today?"}
	}

	switch stageOf(history) {
	case stageGreeting:
		return Decision{Reply: greeting(lead)}
	case stageOffering:
		return e.offering(ctx, lead, msg)
	default:
		return e.qualifying(msg, qualifyingCount(history))
	}
}

func (e *RuleEngine) qualifying(msg string, asked int) Decision {
	switch {
	case asked == 0:
		return Decision{Reply: "Great. Tell me, do you have an SDR team that handles your inbound calls?"}
	case containsAny(msg, positiveKeywords):
		slots := e.sched.AvailableSlots()
		if len(slots) > 2 {
			slots = slots[:2]
		}
		return Decision{Reply: OfferReply(slots), Action: OfferSlots{Slots: slots}}
	case asked == 1:
		return Decision{Reply: "I understand. Maybe we could talk briefly about how AI agents could take some of that load off your team?"}
	default:
		return Decision{Reply: "So what do you think? Shall we set up a brief call?"}
	}
}

// offering books the first slot whenever the caller mentions any time cue.
// Picking the exact slot is left to the turn pipeline's inference step.
func (e *RuleEngine) offering(ctx context.Context, lead *leads.Lead, msg string) Decision {
	if !containsAny(msg, timeKeywords) {
		return Decision{Reply: "No problem. Do you have another time this week that works better?"}
	}
	d, err := BookSlot(ctx, e.sched, lead, e.sched.AvailableSlots(), 0)
	if err != nil {
		e.log.ErrorContext(ctx, "rule engine booking failed", "err", err)
	}
	return d
}

func greeting(lead *leads.Lead) string {
	who := "there"
	if lead != nil {
		who = lead.FirstName()
	}
	return "Hi " + who + "! I'm Messiah from Habari's Sales Company. We help companies increase sales with AI agents. " +
		"How do you handle inbound leads today?"
}

func stageOf(history []session.Turn) stage {
	if len(history) == 0 {
		return stageGreeting
	}
	for _, t := range history {
		if t.Role == session.RoleAssistant && containsAny(strings.ToLower(t.Content), offerMarkers) {
			return stageOffering
		}
	}
	return stageQualifying
}

// qualifyingCount counts assistant turns that asked a qualifying question.
func qualifyingCount(history []session.Turn) int {
	n := 0
	for _, t := range history {
		if t.Role == session.RoleAssistant && containsAny(strings.ToLower(t.Content), qualifyingMarkers) {
			n++
		}
	}
	return n
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
