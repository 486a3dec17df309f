// Package sqlstore persists the change log in PostgreSQL or SQLite through
// sqlx.
package sqlstore

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"refinener/internal/config"
)

// sqliteSchema mirrors db/migrations for the embedded store, which is not
// managed by the migrate tool.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS change_log (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	description TEXT NOT NULL,
	state       TEXT NOT NULL,
	change_data BLOB NOT NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL,
	UNIQUE (project_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_change_log_project ON change_log (project_id, seq);
`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewDB opens the change-log database selected by cfg.Driver.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "postgres", "pgx":
		return NewPostgresDB(cfg)
	case "sqlite", "":
		return NewSQLiteDB(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

// NewPostgresDB creates a new PostgreSQL connection pool.
func NewPostgresDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	return db, nil
}

// NewSQLiteDB opens (creating if needed) a SQLite database file and applies
// the change-log schema. Use ":memory:" for a throwaway database.
func NewSQLiteDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is
	// per-connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}
	return db, nil
}
