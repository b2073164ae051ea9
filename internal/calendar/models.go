package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidLead = errors.New("calendar: lead id is required")
	ErrInvalidSlot = errors.New("calendar: slot start and duration are required")
)

// Slot is a candidate meeting time offered to the caller. It is not held
// or reserved until booked.
type Slot struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Display  string        `json:"display"`
}

// Meeting is a booked slot. Immutable after creation.
type Meeting struct {
	ID           int64         `json:"id"`
	LeadID       int64         `json:"lead_id"`
	Start        time.Time     `json:"start"`
	Duration     time.Duration `json:"duration"`
	CalendarLink string        `json:"calendar_link"`
}

// Scheduler is what the decision engines and the turn pipeline need from
// the booking side.
type Scheduler interface {
	AvailableSlots() []Slot
	Book(ctx context.Context, leadID int64, start time.Time, d time.Duration) (Meeting, error)
}

// BookingStore persists meetings. Create assigns a strictly increasing ID.
type BookingStore interface {
	Create(ctx context.Context, m Meeting) (Meeting, error)
	List(ctx context.Context) ([]Meeting, error)
}
