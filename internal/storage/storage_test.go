package storage

import "testing"

func TestRebind(t *testing.T) {
	q := `INSERT INTO meetings (lead_id, start_at) VALUES ($1, $12) RETURNING id`

	pg := &DB{Dialect: DialectPostgres}
	if got := pg.Rebind(q); got != q {
		t.Fatalf("postgres query should be unchanged, got %q", got)
	}

	lite := &DB{Dialect: DialectSQLite}
	want := `INSERT INTO meetings (lead_id, start_at) VALUES (?, ?) RETURNING id`
	if got := lite.Rebind(q); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		entries, err := migrationsFS.ReadDir(dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		if len(entries) == 0 {
			t.Fatalf("no migrations in %s", dir)
		}
	}
}
