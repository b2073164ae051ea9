package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/calendar"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Stage string

const (
	StagePermission   Stage = "permission"
	StageConversation Stage = "conversation"
)

// Lang selects which of the two parallel histories an append targets.
type Lang string

const (
	LangInternal Lang = "internal"
	LangCaller   Lang = "caller"
)

// Session is the per-call aggregate. It is deleted explicitly when the
// call ends; losing it degrades the call to stateless handling.
type Session struct {
	CallID        string            `json:"call_id"`
	LeadID        int64             `json:"lead_id,omitempty"`
	History       []Turn            `json:"history"`
	CallerHistory []Turn            `json:"caller_history"`
	Responses     map[string]string `json:"responses,omitempty"`
	Stage         Stage             `json:"stage,omitempty"`
	PendingSlots  []calendar.Slot   `json:"pending_slots,omitempty"`
	LastAction    string            `json:"last_action,omitempty"`
	LastPayload   json.RawMessage   `json:"last_payload,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
}

// CachedResponse returns the response document stored under key.
func (s *Session) CachedResponse(key string) (string, bool) {
	doc, ok := s.Responses[key]
	return doc, ok
}

// Clone returns a deep copy so callers never share slices with the store.
func (s Session) Clone() Session {
	out := s
	out.History = append([]Turn(nil), s.History...)
	out.CallerHistory = append([]Turn(nil), s.CallerHistory...)
	out.PendingSlots = append([]calendar.Slot(nil), s.PendingSlots...)
	out.LastPayload = append(json.RawMessage(nil), s.LastPayload...)
	if s.Responses != nil {
		out.Responses = make(map[string]string, len(s.Responses))
		for k, v := range s.Responses {
			out.Responses[k] = v
		}
	}
	return out
}

// Patch mutates a stored session in place.
type Patch func(*Session)

func SetStage(st Stage) Patch {
	return func(s *Session) { s.Stage = st }
}

func SetPendingSlots(slots []calendar.Slot) Patch {
	return func(s *Session) { s.PendingSlots = append([]calendar.Slot(nil), slots...) }
}

func ClearPendingSlots() Patch {
	return func(s *Session) { s.PendingSlots = nil }
}

func SetLastAction(kind string, payload json.RawMessage) Patch {
	return func(s *Session) {
		s.LastAction = kind
		s.LastPayload = append(json.RawMessage(nil), payload...)
	}
}

func CacheResponse(key, doc string) Patch {
	return func(s *Session) {
		if s.Responses == nil {
			s.Responses = make(map[string]string)
		}
		s.Responses[key] = doc
	}
}

func appendTurn(s *Session, lang Lang, role Role, text string) {
	t := Turn{Role: role, Content: text}
	if lang == LangCaller {
		s.CallerHistory = append(s.CallerHistory, t)
		return
	}
	s.History = append(s.History, t)
}

// DebugEvent is an entry of the optional per-call inspection log.
type DebugEvent struct {
	Type    string         `json:"type"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Store holds call sessions. All methods accept ids that were never seen.
// Implementations must allow concurrent use across different call ids.
type Store interface {
	Get(ctx context.Context, callID string) (Session, bool, error)
	Put(ctx context.Context, s Session) error
	// Merge applies patches to an existing session and reports false,
	// without error, when the session does not exist.
	Merge(ctx context.Context, callID string, patches ...Patch) (bool, error)
	Delete(ctx context.Context, callID string) error
	// AppendHistory creates the session when missing.
	AppendHistory(ctx context.Context, callID string, lang Lang, role Role, text string) error
	// AppendDebugEvent is a no-op unless debug events are enabled. The log
	// is capped and outlives the session so finished calls stay inspectable.
	AppendDebugEvent(ctx context.Context, callID, typ string, payload map[string]any) error
	DebugEvents(ctx context.Context, callID string) ([]DebugEvent, error)
	// RememberFinal keeps a call-ending response document after the
	// session itself is deleted, so late provider retries still replay it.
	RememberFinal(ctx context.Context, callID, key, doc string) error
	FinalResponse(ctx context.Context, callID, key string) (string, bool, error)
}

// DebugOptions configures the debug-event log shared by all stores.
type DebugOptions struct {
	Enabled bool
	Max     int
}

func (o DebugOptions) max() int {
	if o.Max <= 0 {
		return 200
	}
	return o.Max
}
