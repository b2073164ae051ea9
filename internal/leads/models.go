package leads

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("lead not found")

// Lead is a sales prospect. It is read-only for the duration of a call.
type Lead struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Company string `json:"company,omitempty"`
	Role    string `json:"role,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// FirstName returns the first word of Name, or "there" when Name is blank.
func (l Lead) FirstName() string {
	f := strings.Fields(l.Name)
	if len(f) == 0 {
		return "there"
	}
	return f[0]
}

// Registry is the read side of the leads store.
type Registry interface {
	Get(ctx context.Context, id int64) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
	// FindByPhone returns the first lead whose phone appears in any of the
	// given numbers.
	FindByPhone(ctx context.Context, numbers ...string) (Lead, error)
}

// matchesPhone reports whether phone is a substring of any candidate.
// Both sides are compared on digits only so "+972-50..." matches "97250...".
func matchesPhone(phone string, candidates []string) bool {
	p := digits(phone)
	if p == "" {
		return false
	}
	for _, c := range candidates {
		d := digits(c)
		if d == "" {
			continue
		}
		if strings.Contains(d, p) || strings.Contains(p, d) {
			return true
		}
	}
	return false
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
