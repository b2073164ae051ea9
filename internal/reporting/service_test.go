package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/audit"
)

func seed(t *testing.T, now time.Time) *audit.MemoryRepo {
	t.Helper()
	repo := audit.NewMemoryRepo()
	events := []audit.Event{
		{Type: audit.EventMeetingBooked, CallID: "c1", LeadID: 1, MeetingID: 5, CreatedAt: now},
		{Type: audit.EventCallEnded, CallID: "c1", LeadID: 1, Reason: "completed", CreatedAt: now},
		{Type: audit.EventPermissionDeclined, CallID: "c2", LeadID: 2, CreatedAt: now},
		{Type: audit.EventCallEnded, CallID: "c3", LeadID: 1, Reason: "no-answer", CreatedAt: now},
		{Type: audit.EventCallEnded, CallID: "old", LeadID: 1, Reason: "completed", CreatedAt: now.Add(-48 * time.Hour)},
	}
	for _, e := range events {
		e.ID = e.CallID + string(e.Type)
		if err := repo.Append(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func TestReporting_OutcomeSummaryAggregates(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(NewMemoryRepo(seed(t, now)))

	out, err := svc.OutcomeSummary(context.Background(), OutcomeSummaryRequest{Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Calls != 3 {
		t.Fatalf("expected 3 calls in range, got %d", out.Calls)
	}
	if out.MeetingsBooked != 1 || out.PermissionDeclined != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if out.EndedBy["completed"] != 1 || out.EndedBy["no-answer"] != 1 {
		t.Fatalf("unexpected ended_by: %v", out.EndedBy)
	}
	if out.BookingRate == 0 || out.DeclineRate == 0 {
		t.Fatalf("expected non-zero rates")
	}
}

func TestReporting_LeadFilter(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(NewMemoryRepo(seed(t, now)))

	out, err := svc.OutcomeSummary(context.Background(), OutcomeSummaryRequest{LeadID: 2, Range: TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Calls != 1 || out.PermissionDeclined != 1 || out.MeetingsBooked != 0 {
		t.Fatalf("expected only lead 2's call, got %+v", out)
	}
}

func TestReporting_RejectsBadRange(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	svc := NewService(NewMemoryRepo(nil))
	_, err := svc.OutcomeSummary(context.Background(), OutcomeSummaryRequest{Range: TimeRange{From: now, To: now}})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
