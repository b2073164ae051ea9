package calls

import "strings"

// CallStatus is the provider's call lifecycle state as reported on the
// status callback.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// ParseStatus accepts both the provider's hyphenated form and the
// underscore form used by some SDKs.
func ParseStatus(s string) CallStatus {
	return CallStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
}

// IsTerminal reports whether no further webhooks are expected for the call.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	}
	return false
}

// Source says where an utterance came from.
type Source string

const (
	// SourceLive is the provider's streaming speech recognition.
	SourceLive Source = "live"
	// SourceRecording is a recorded answer transcribed by us.
	SourceRecording Source = "recording"
)

// TurnSignal is one inbound caller utterance.
type TurnSignal struct {
	CallID     string
	LeadID     int64
	Turn       int
	Utterance  string
	Confidence float64
	Source     Source
	// SourceID is the provider identifier of the utterance, such as a
	// recording SID. Empty for live speech.
	SourceID string
	// AllowRecordingFallback is set by the live-speech webhook only.
	AllowRecordingFallback bool
	// Raw carries the provider's callback fields for the debug log.
	Raw map[string]string
}

// StartRequest is the first webhook of a call.
type StartRequest struct {
	CallID string
	From   string
	To     string
	LeadID int64
}
