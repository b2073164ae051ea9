package agent

import (
	"context"
	"encoding/json"

	"github.com/Roeeht/Agent-Messiah/internal/calendar"
	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/session"
)

type ActionKind string

const (
	ActionNone        ActionKind = ""
	ActionOfferSlots  ActionKind = "offer_slots"
	ActionBookMeeting ActionKind = "book_meeting"
	ActionEndCall     ActionKind = "end_call"
)

// Action is one of OfferSlots, BookMeeting or EndCall. A nil Action means
// the conversation simply continues.
type Action interface {
	Kind() ActionKind
	isAction()
}

type OfferSlots struct {
	Slots []calendar.Slot `json:"slots"`
}

type BookMeeting struct {
	Meeting   calendar.Meeting `json:"meeting"`
	SlotIndex int              `json:"slot_index"`
	Display   string           `json:"display"`
}

type EndCall struct {
	Reason string `json:"reason"`
}

func (OfferSlots) Kind() ActionKind  { return ActionOfferSlots }
func (BookMeeting) Kind() ActionKind { return ActionBookMeeting }
func (EndCall) Kind() ActionKind     { return ActionEndCall }

func (OfferSlots) isAction()  {}
func (BookMeeting) isAction() {}
func (EndCall) isAction()     {}

// Decision is an engine's answer for one turn.
type Decision struct {
	Reply  string
	Action Action
}

// Kind returns ActionNone when no action was chosen.
func (d Decision) Kind() ActionKind {
	if d.Action == nil {
		return ActionNone
	}
	return d.Action.Kind()
}

// Payload encodes the action's data, or nil for no action.
func (d Decision) Payload() json.RawMessage {
	if d.Action == nil {
		return nil
	}
	b, err := json.Marshal(d.Action)
	if err != nil {
		return nil
	}
	return b
}

// Engine decides the agent's next reply. Implementations never fail:
// external errors become a fixed apology with no action.
type Engine interface {
	Name() string
	Decide(ctx context.Context, lead *leads.Lead, history []session.Turn, utterance string) Decision
}
