package reporting

import (
	"context"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/audit"
)

// EventSource is anything that can list recorded outcome events, such as
// *audit.MemoryRepo.
type EventSource interface {
	Events() []audit.Event
}

// MemoryRepo filters an in-process event source on every read.
type MemoryRepo struct {
	src EventSource
}

func NewMemoryRepo(src EventSource) *MemoryRepo { return &MemoryRepo{src: src} }

func (r *MemoryRepo) ListOutcomes(_ context.Context, from, to time.Time, leadID int64) ([]audit.Event, error) {
	if r.src == nil {
		return nil, nil
	}
	out := make([]audit.Event, 0)
	for _, e := range r.src.Events() {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		if leadID != 0 && e.LeadID != leadID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
