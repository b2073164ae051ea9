package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/audit"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts read access to call-outcome events.
type Repository interface {
	ListOutcomes(ctx context.Context, from, to time.Time, leadID int64) ([]audit.Event, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) OutcomeSummary(ctx context.Context, req OutcomeSummaryRequest) (OutcomeSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return OutcomeSummary{}, ErrInvalidRequest
	}
	if req.LeadID < 0 {
		return OutcomeSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return OutcomeSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListOutcomes(ctx, req.Range.From, req.Range.To, req.LeadID)
	if err != nil {
		return OutcomeSummary{}, err
	}

	out := OutcomeSummary{Range: req.Range, LeadID: req.LeadID, EndedBy: map[string]int{}}
	seen := make(map[string]struct{}, len(rows))
	for _, e := range rows {
		seen[e.CallID] = struct{}{}
		switch e.Type {
		case audit.EventMeetingBooked:
			out.MeetingsBooked++
		case audit.EventPermissionDeclined:
			out.PermissionDeclined++
		case audit.EventNotInterested:
			out.NotInterested++
		case audit.EventCallEnded:
			reason := e.Reason
			if reason == "" {
				reason = "unknown"
			}
			out.EndedBy[reason]++
		}
	}
	out.Calls = len(seen)
	if out.Calls > 0 {
		out.BookingRate = float64(out.MeetingsBooked) / float64(out.Calls)
		out.DeclineRate = float64(out.PermissionDeclined+out.NotInterested) / float64(out.Calls)
	}
	return out, nil
}
