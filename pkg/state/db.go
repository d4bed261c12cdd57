package state

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/araneid-sim/araneid/internal/errx"
)

type migration struct {
	version int
	name    string
	sql     string
}

func subnetMigrations() []migration {
	return []migration{
		{
			version: 1,
			name:    "create_subnets",
			sql: `
CREATE TABLE IF NOT EXISTS subnets (
  host_id TEXT NOT NULL PRIMARY KEY,
  octet INTEGER NOT NULL UNIQUE,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subnets_octet ON subnets(octet);
`,
		},
	}
}

// openDB opens (creating if needed) the sqlite database at path and brings
// its schema up to date.
func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errx.Wrap(ErrOpenStateDB, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errx.Wrap(ErrOpenStateDB, err)
	}
	// Allocations are occasionally hit from several processes at once;
	// serialize writers at the driver instead of surfacing SQLITE_BUSY.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, errx.Wrap(ErrOpenStateDB, err)
	}

	if err := migrate(db, subnetMigrations()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB, migrations []migration) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER NOT NULL PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL
);`); err != nil {
		return errx.Wrap(ErrMigrateStateDB, err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return errx.Wrap(ErrMigrateStateDB, err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return errx.Wrap(ErrMigrateStateDB, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return errx.With(ErrMigrateStateDB, " %q: %w", m.name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`,
			m.version, m.name,
		); err != nil {
			tx.Rollback()
			return errx.With(ErrMigrateStateDB, " %q: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return errx.Wrap(ErrMigrateStateDB, err)
		}
	}
	return nil
}
