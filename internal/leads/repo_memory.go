package leads

import (
	"context"
	"sort"
	"sync"
)

// MemoryRegistry is a process-local registry seeded at construction.
type MemoryRegistry struct {
	mu    sync.RWMutex
	leads map[int64]Lead
}

func NewMemoryRegistry(seed ...Lead) *MemoryRegistry {
	r := &MemoryRegistry{leads: make(map[int64]Lead, len(seed))}
	for _, l := range seed {
		r.leads[l.ID] = l
	}
	return r
}

// DemoLeads is the seed set used when no database is configured.
func DemoLeads() []Lead {
	return []Lead{
		{ID: 1, Name: "Dana Cohen", Phone: "+972501234567", Company: "Cohen Logistics", Role: "VP Sales", Notes: "Inbound leads handled by two SDRs"},
		{ID: 2, Name: "Avi Levi", Phone: "+972527654321", Company: "Levi Insurance", Role: "CEO"},
		{ID: 3, Name: "Noa Mizrahi", Phone: "+14155550123", Company: "Mizrahi Studio", Role: "Founder", Notes: "Asked for a callback after the holidays"},
	}
}

func (r *MemoryRegistry) Add(l Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[l.ID] = l
}

func (r *MemoryRegistry) Get(_ context.Context, id int64) (Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryRegistry) List(_ context.Context) ([]Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRegistry) FindByPhone(ctx context.Context, numbers ...string) (Lead, error) {
	all, _ := r.List(ctx)
	for _, l := range all {
		if matchesPhone(l.Phone, numbers) {
			return l, nil
		}
	}
	return Lead{}, ErrNotFound
}
