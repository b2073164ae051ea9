package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/Roeeht/Agent-Messiah/pkg/utils"
)

//go:embed migrations
var migrationsFS embed.FS

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// DB is a *sql.DB that knows which placeholder style its driver wants.
// Queries are written with $N placeholders and passed through Rebind.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to Postgres (pgx) or SQLite and applies migrations.
func Open(ctx context.Context, dialect Dialect, dsn string, pool utils.PoolConfig) (*DB, error) {
	driver := "pgx"
	if dialect == DialectSQLite {
		driver = "sqlite3"
		// SQLite serializes writers; one connection avoids SQLITE_BUSY.
		pool.MaxOpenConns = 1
	}
	sqlDB, err := utils.OpenDB(ctx, driver, dsn, pool)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	db := &DB{DB: sqlDB, Dialect: dialect}
	if err := db.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations for the DB's dialect.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(string(db.Dialect)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, db.migrationsDir()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *DB) migrationsDir() string {
	if db.Dialect == DialectSQLite {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}

// Rebind rewrites $N placeholders to ? for SQLite.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
