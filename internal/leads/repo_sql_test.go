package leads

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Roeeht/Agent-Messiah/internal/storage"
	"github.com/Roeeht/Agent-Messiah/pkg/utils"
)

func openSQLite(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.DialectSQLite, filepath.Join(t.TempDir(), "agent.db"), utils.PoolConfig{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLRegistry_SeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	r := NewSQLRegistry(openSQLite(t))

	n, err := r.SeedIfEmpty(ctx, DemoLeads())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != len(DemoLeads()) {
		t.Fatalf("expected %d seeded leads, got %d", len(DemoLeads()), n)
	}

	l, err := r.FindByPhone(ctx, "+15005550006", "+972501234567")
	if err != nil {
		t.Fatalf("find seeded lead: %v", err)
	}
	if l.Name != "Dana Cohen" || l.Company != "Cohen Logistics" {
		t.Fatalf("unexpected lead: %+v", l)
	}
	got, err := r.Get(ctx, l.ID)
	if err != nil || got.Phone != "+972501234567" {
		t.Fatalf("get by id: %+v %v", got, err)
	}

	n, err = r.SeedIfEmpty(ctx, DemoLeads())
	if err != nil || n != 0 {
		t.Fatalf("second seed should be a no-op, got %d %v", n, err)
	}
	all, _ := r.List(ctx)
	if len(all) != len(DemoLeads()) {
		t.Fatalf("expected %d leads after reseed, got %d", len(DemoLeads()), len(all))
	}
}

func TestSQLRegistry_InsertAndMiss(t *testing.T) {
	ctx := context.Background()
	r := NewSQLRegistry(openSQLite(t))

	l, err := r.Insert(ctx, Lead{Name: "Yael Bar", Phone: "+972541112233", Company: "Bar Labs"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if l.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if _, err := r.FindByPhone(ctx, "+10000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Get(ctx, l.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}
