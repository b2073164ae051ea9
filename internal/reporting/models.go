package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OutcomeSummaryRequest selects outcome events in [From, To). LeadID
// narrows the report to one lead when set.
type OutcomeSummaryRequest struct {
	Range  TimeRange `json:"range"`
	LeadID int64     `json:"lead_id,omitempty"`
}

// OutcomeSummary aggregates how calls ended.
type OutcomeSummary struct {
	Range  TimeRange `json:"range"`
	LeadID int64     `json:"lead_id,omitempty"`

	// Calls counts distinct call ids seen in any outcome event.
	Calls int `json:"calls"`

	MeetingsBooked     int `json:"meetings_booked"`
	PermissionDeclined int `json:"permission_declined"`
	NotInterested      int `json:"not_interested"`

	// EndedBy counts call_ended events by reason: provider statuses such
	// as completed or no-answer, or the agent's own end reason.
	EndedBy map[string]int `json:"ended_by"`

	BookingRate float64 `json:"booking_rate"`
	DeclineRate float64 `json:"decline_rate"`
}
