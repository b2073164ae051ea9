package calendar

import (
	"context"
	"time"
)

// Service combines the slot generator with a booking store.
type Service struct {
	Slots *SlotSource
	Store BookingStore
}

func NewService(slots *SlotSource, store BookingStore) *Service {
	return &Service{Slots: slots, Store: store}
}

func (s *Service) AvailableSlots() []Slot {
	return s.Slots.AvailableSlots()
}

// Book records a meeting. Booking the same start twice yields two meetings;
// there is no conflict detection.
func (s *Service) Book(ctx context.Context, leadID int64, start time.Time, d time.Duration) (Meeting, error) {
	if leadID <= 0 {
		return Meeting{}, ErrInvalidLead
	}
	if start.IsZero() || d <= 0 {
		return Meeting{}, ErrInvalidSlot
	}
	return s.Store.Create(ctx, Meeting{LeadID: leadID, Start: start, Duration: d})
}

func (s *Service) Meetings(ctx context.Context) ([]Meeting, error) {
	return s.Store.List(ctx)
}
