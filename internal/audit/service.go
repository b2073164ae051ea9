package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the sink for outcome events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.CallID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) MeetingBooked(ctx context.Context, callID string, leadID, meetingID int64) error {
	return s.Append(ctx, Event{Type: EventMeetingBooked, CallID: callID, LeadID: leadID, MeetingID: meetingID})
}

func (s *Service) CallEnded(ctx context.Context, callID string, leadID int64, reason string) error {
	return s.Append(ctx, Event{Type: EventCallEnded, CallID: callID, LeadID: leadID, Reason: reason})
}

// Fanout appends to every repository and joins their errors.
type Fanout []Repository

func (f Fanout) Append(ctx context.Context, e Event) error {
	var errs []error
	for _, r := range f {
		if err := r.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
