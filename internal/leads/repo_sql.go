package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Roeeht/Agent-Messiah/internal/storage"
	"github.com/Roeeht/Agent-Messiah/pkg/utils"
)

// SQLRegistry reads leads from the shared SQL database.
type SQLRegistry struct {
	db *storage.DB
}

func NewSQLRegistry(db *storage.DB) *SQLRegistry {
	return &SQLRegistry{db: db}
}

const leadColumns = `id, name, phone, company, role, notes`

func (r *SQLRegistry) Get(ctx context.Context, id int64) (Lead, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+leadColumns+` FROM leads WHERE id = $1`), id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *SQLRegistry) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// FindByPhone loads all leads and matches in Go; the table is small and
// numbers arrive in inconsistent formats.
func (r *SQLRegistry) FindByPhone(ctx context.Context, numbers ...string) (Lead, error) {
	all, err := r.List(ctx)
	if err != nil {
		return Lead{}, err
	}
	for _, l := range all {
		if matchesPhone(l.Phone, numbers) {
			return l, nil
		}
	}
	return Lead{}, ErrNotFound
}

// Insert adds a lead and returns it with its assigned id.
func (r *SQLRegistry) Insert(ctx context.Context, l Lead) (Lead, error) {
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`INSERT INTO leads (name, phone, company, role, notes) VALUES ($1, $2, $3, $4, $5) RETURNING id`),
		l.Name, l.Phone, l.Company, l.Role, l.Notes,
	).Scan(&l.ID)
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return l, nil
}

// SeedIfEmpty inserts seed when the leads table has no rows and reports how
// many leads were added. Seed ids are ignored; the table assigns them.
func (r *SQLRegistry) SeedIfEmpty(ctx context.Context, seed []Lead) (int, error) {
	added := 0
	err := utils.WithTx(ctx, r.db.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		insert := r.db.Rebind(`INSERT INTO leads (name, phone, company, role, notes) VALUES ($1, $2, $3, $4, $5)`)
		for _, l := range seed {
			if _, err := tx.ExecContext(ctx, insert, l.Name, l.Phone, l.Company, l.Role, l.Notes); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed leads: %w", err)
	}
	return added, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(s scanner) (Lead, error) {
	var (
		l                    Lead
		company, role, notes sql.NullString
	)
	if err := s.Scan(&l.ID, &l.Name, &l.Phone, &company, &role, &notes); err != nil {
		return Lead{}, err
	}
	l.Company, l.Role, l.Notes = company.String, role.String, notes.String
	return l, nil
}
