package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS graphvm_captures (
			id TEXT PRIMARY KEY,
			event_count INTEGER NOT NULL,
			events BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS graphvm_timelines (
			id TEXT PRIMARY KEY,
			frame_count INTEGER NOT NULL,
			frames BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS graphvm_proposals (
			id INTEGER PRIMARY KEY,
			graph_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			data BLOB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_status ON graphvm_proposals(status)`,
		`CREATE TABLE IF NOT EXISTS graphvm_proposal_ids (
			id INTEGER PRIMARY KEY,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	upsert: sqliteUpsert,
}

// SQLiteStore is a single-file Store for local tooling.
//
// The database runs in WAL mode with a single connection, so concurrent
// callers are serialized by the pool rather than by SQLITE_BUSY errors.
// Tables are created on open.
type SQLiteStore struct {
	*sqlStore
	path string
}

// NewSQLiteStore opens or creates the database at path. Use ":memory:" for a
// throwaway database.
//
//	st, err := store.NewSQLiteStore(ctx, "./graphvm.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(1) // one writer; also keeps ":memory:" on a single database
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s, err := newSQLStore(ctx, db, sqliteDialect, buildOptions(opts))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{sqlStore: s, path: path}, nil
}

// Path returns the database location given to NewSQLiteStore.
func (s *SQLiteStore) Path() string {
	return s.path
}
