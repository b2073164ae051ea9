package leads

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRegistry_FindByPhoneSubstring(t *testing.T) {
	r := NewMemoryRegistry(DemoLeads()...)
	ctx := context.Background()

	l, err := r.FindByPhone(ctx, "+15005550006", "+972-50-123-4567")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if l.ID != 1 {
		t.Fatalf("expected lead 1, got %d", l.ID)
	}

	if _, err := r.FindByPhone(ctx, "+10000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.FindByPhone(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank number, got %v", err)
	}
}

func TestMemoryRegistry_ListSorted(t *testing.T) {
	r := NewMemoryRegistry(Lead{ID: 5, Name: "E"}, Lead{ID: 2, Name: "B"})
	all, _ := r.List(context.Background())
	if len(all) != 2 || all[0].ID != 2 || all[1].ID != 5 {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestLeadFirstName(t *testing.T) {
	if got := (Lead{Name: "Dana Cohen"}).FirstName(); got != "Dana" {
		t.Fatalf("got %q", got)
	}
	if got := (Lead{}).FirstName(); got != "there" {
		t.Fatalf("got %q", got)
	}
}
