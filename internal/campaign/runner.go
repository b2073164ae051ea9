package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/leads"
	"github.com/Roeeht/Agent-Messiah/internal/telephony"
)

const (
	StatusInitiated = "initiated"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Dialer places one outbound call.
type Dialer interface {
	Dial(ctx context.Context, req telephony.DialRequest) (telephony.DialResult, error)
}

type Result struct {
	LeadID   int64  `json:"lead_id"`
	LeadName string `json:"lead_name,omitempty"`
	Status   string `json:"status"`
	CallSID  string `json:"call_sid,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Report struct {
	Total   int      `json:"total_leads"`
	Results []Result `json:"results"`
}

// Runner dials leads one after another with a fixed pause between dials.
// A failed dial is recorded and the loop moves on.
type Runner struct {
	dialer Dialer
	leads  leads.Registry
	delay  time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	log    *slog.Logger
}

func NewRunner(d Dialer, reg leads.Registry, delay time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{dialer: d, leads: reg, delay: delay, sleep: sleepCtx, log: log}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run dials the given leads, or every lead when ids is empty. A cancelled
// context stops the loop; the partial report is returned with the error.
func (r *Runner) Run(ctx context.Context, ids []int64) (Report, error) {
	targets, missing, err := r.targets(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Total: len(targets) + len(missing)}
	for _, id := range missing {
		rep.Results = append(rep.Results, Result{LeadID: id, Status: StatusSkipped, Error: "lead not found"})
	}

	r.log.Info("campaign started", "leads", len(targets))
	for i, l := range targets {
		if i > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return rep, fmt.Errorf("campaign interrupted after %d dials: %w", i, err)
			}
		}
		rep.Results = append(rep.Results, r.dial(ctx, l))
	}
	r.log.Info("campaign completed", "leads", len(targets), "skipped", len(missing))
	return rep, nil
}

func (r *Runner) dial(ctx context.Context, l leads.Lead) Result {
	res := Result{LeadID: l.ID, LeadName: l.Name}
	if strings.TrimSpace(l.Phone) == "" {
		res.Status = StatusSkipped
		res.Error = "lead has no phone"
		return res
	}
	out, err := r.dialer.Dial(ctx, telephony.DialRequest{To: l.Phone, LeadID: l.ID})
	if err != nil {
		r.log.Warn("campaign dial failed", "lead_id", l.ID, "err", err)
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}
	res.Status = StatusInitiated
	res.CallSID = out.CallSID
	return res
}

func (r *Runner) targets(ctx context.Context, ids []int64) ([]leads.Lead, []int64, error) {
	if len(ids) == 0 {
		all, err := r.leads.List(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list leads: %w", err)
		}
		return all, nil, nil
	}
	var (
		found   []leads.Lead
		missing []int64
	)
	for _, id := range ids {
		l, err := r.leads.Get(ctx, id)
		switch {
		case errors.Is(err, leads.ErrNotFound):
			missing = append(missing, id)
		case err != nil:
			return nil, nil, fmt.Errorf("get lead %d: %w", id, err)
		default:
			found = append(found, l)
		}
	}
	return found, missing, nil
}
