package telephony

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// DryRunProvider logs outbound calls instead of placing them. It is used
// when provider credentials are missing so campaigns can be rehearsed.
type DryRunProvider struct {
	Log *slog.Logger
}

func (p *DryRunProvider) Name() string { return "dry-run" }

func (p *DryRunProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *DryRunProvider) Dial(ctx context.Context, req DialRequest) (DialResult, error) {
	if strings.TrimSpace(req.To) == "" {
		return DialResult{}, ErrInvalidDial
	}
	if err := ctx.Err(); err != nil {
		return DialResult{}, err
	}
	sid := "DRY" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if p.Log != nil {
		p.Log.Info("dry-run dial", "to", req.To, "lead_id", req.LeadID, "call_sid", sid)
	}
	return DialResult{CallSID: sid, Status: "queued", To: req.To, LeadID: req.LeadID}, nil
}
