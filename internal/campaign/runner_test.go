package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/telephony"
)

type fakeDialer struct {
	dialed []string
	failTo string
}

func (f *fakeDialer) Dial(_ context.Context, req telephony.DialRequest) (telephony.DialResult, error) {
	f.dialed = append(f.dialed, req.To)
	if req.To == f.failTo {
		return telephony.DialResult{}, errors.New("busy trunk")
	}
	return telephony.DialResult{CallSID: "CA-" + req.To, Status: "queued"}, nil
}

func TestRunnerDialsAllLeadsWithDelay(t *testing.T) {
	reg := leads.NewMemoryRegistry(leads.DemoLeads()...)
	d := &fakeDialer{failTo: "+972527654321"}
	r := NewRunner(d, reg, 5*time.Second, nil)
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	rep, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Total != 3 || len(rep.Results) != 3 || len(d.dialed) != 3 {
		t.Fatalf("unexpected report: %+v dialed=%v", rep, d.dialed)
	}
	if len(slept) != 2 || slept[0] != 5*time.Second {
		t.Fatalf("expected a pause between dials only, got %v", slept)
	}
	failed := 0
	for _, res := range rep.Results {
		switch res.Status {
		case StatusFailed:
			failed++
			if res.Error == "" {
				t.Fatalf("failed result without error")
			}
		case StatusInitiated:
			if res.CallSID == "" {
				t.Fatalf("initiated result without call sid")
			}
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failure, got %d", failed)
	}
}

func TestRunnerSelectedLeads(t *testing.T) {
	reg := leads.NewMemoryRegistry(leads.DemoLeads()...)
	reg.Add(leads.Lead{ID: 9, Name: "No Phone"})
	d := &fakeDialer{}
	r := NewRunner(d, reg, 0, nil)

	rep, err := r.Run(context.Background(), []int64{1, 42, 9})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Total != 3 || len(d.dialed) != 1 || d.dialed[0] != "+972501234567" {
		t.Fatalf("unexpected dials: total=%d dialed=%v", rep.Total, d.dialed)
	}
	skipped := 0
	for _, res := range rep.Results {
		if res.Status == StatusSkipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Fatalf("expected unknown and phoneless leads to be skipped, got %d", skipped)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	reg := leads.NewMemoryRegistry(leads.DemoLeads()...)
	d := &fakeDialer{}
	r := NewRunner(d, reg, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}
	rep, err := r.Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(d.dialed) != 1 || len(rep.Results) != 1 {
		t.Fatalf("expected one dial before cancel, got %d", len(d.dialed))
	}
}
