package calendar

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Roeeht/Agent-Messiah/internal/storage"
	"github.com/Roeeht/Agent-Messiah/pkg/utils"
)

// SQLStore persists meetings in Postgres or SQLite. IDs come from the
// table's auto-increment column.
type SQLStore struct {
	db       *storage.DB
	linkBase string
}

func NewSQLStore(db *storage.DB, linkBase string) *SQLStore {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	return &SQLStore{db: db, linkBase: strings.TrimRight(linkBase, "/")}
}

func (s *SQLStore) Create(ctx context.Context, m Meeting) (Meeting, error) {
	err := utils.WithTx(ctx, s.db.DB, nil, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			s.db.Rebind(`INSERT INTO meetings (lead_id, start_at, duration_minutes) VALUES ($1, $2, $3) RETURNING id`),
			m.LeadID, m.Start.UTC(), int(m.Duration/time.Minute),
		).Scan(&m.ID)
		if err != nil {
			return err
		}
		m.CalendarLink = fmt.Sprintf("%s/%d", s.linkBase, m.ID)
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE meetings SET calendar_link = $1 WHERE id = $2`),
			m.CalendarLink, m.ID,
		)
		return err
	})
	if err != nil {
		return Meeting{}, fmt.Errorf("create meeting: %w", err)
	}
	return m, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, start_at, duration_minutes, calendar_link FROM meetings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var (
			m       Meeting
			minutes int
		)
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Start, &minutes, &m.CalendarLink); err != nil {
			return nil, err
		}
		m.Duration = time.Duration(minutes) * time.Minute
		out = append(out, m)
	}
	return out, rows.Err()
}
