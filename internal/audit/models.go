package audit

import "time"

// Event is an append-only record of how a call ended. Emission is
// best-effort; a failed append never changes the call flow.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CallID    string    `json:"call_id"`
	LeadID    int64     `json:"lead_id,omitempty"`
	MeetingID int64     `json:"meeting_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventMeetingBooked      EventType = "meeting_booked"
	EventCallEnded          EventType = "call_ended"
	EventPermissionDeclined EventType = "permission_declined"
	EventNotInterested      EventType = "not_interested"
)
