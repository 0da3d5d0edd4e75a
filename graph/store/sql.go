package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/codec"
)

// lastProposalIDQuery also scans graphvm_proposals so databases created
// before graphvm_proposal_ids existed keep their ids.
const lastProposalIDQuery = `SELECT COALESCE(MAX(id), 0) FROM (
	SELECT id FROM graphvm_proposal_ids
	UNION ALL
	SELECT id FROM graphvm_proposals
) ids`

// dialect holds what differs between the database/sql backends.
type dialect struct {
	name   string
	schema []string

	// upsert renders the conflict clause that overwrites cols.
	upsert func(cols ...string) string
}

// sqlStore implements Store over database/sql. SQLiteStore and MySQLStore
// are thin constructors around it.
type sqlStore struct {
	db         *sql.DB
	mu         sync.RWMutex
	closed     bool
	serializer *codec.Serializer
	dialect    dialect
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, o options) (*sqlStore, error) {
	s := &sqlStore{db: db, serializer: o.serializer, dialect: d}
	if err := s.createTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *sqlStore) createTables(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

// check returns ErrClosed after Close. Callers hold s.mu.
func (s *sqlStore) check() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *sqlStore) SaveCapture(ctx context.Context, id string, events []graph.ReplayEvent) error {
	data, err := s.serializer.Serialize(events)
	if err != nil {
		return fmt.Errorf("failed to serialize capture %s: %w", id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	query := `INSERT INTO graphvm_captures (id, event_count, events) VALUES (?, ?, ?) ` +
		s.dialect.upsert("event_count", "events")
	if _, err := s.db.ExecContext(ctx, query, id, len(events), data); err != nil {
		return fmt.Errorf("failed to save capture %s: %w", id, err)
	}
	return nil
}

func (s *sqlStore) LoadCapture(ctx context.Context, id string) ([]graph.ReplayEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT events FROM graphvm_captures WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("capture %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load capture %s: %w", id, err)
	}

	var events []graph.ReplayEvent
	if err := s.serializer.Deserialize(data, &events); err != nil {
		return nil, fmt.Errorf("failed to deserialize capture %s: %w", id, err)
	}
	return events, nil
}

func (s *sqlStore) ListCaptures(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM graphvm_captures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan capture id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlStore) SaveTimeline(ctx context.Context, id string, frames []graph.Frame) error {
	data, err := s.serializer.Serialize(frames)
	if err != nil {
		return fmt.Errorf("failed to serialize timeline %s: %w", id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	query := `INSERT INTO graphvm_timelines (id, frame_count, frames) VALUES (?, ?, ?) ` +
		s.dialect.upsert("frame_count", "frames")
	if _, err := s.db.ExecContext(ctx, query, id, len(frames), data); err != nil {
		return fmt.Errorf("failed to save timeline %s: %w", id, err)
	}
	return nil
}

func (s *sqlStore) LoadTimeline(ctx context.Context, id string) ([]graph.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT frames FROM graphvm_timelines WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("timeline %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline %s: %w", id, err)
	}

	var frames []graph.Frame
	if err := s.serializer.Deserialize(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to deserialize timeline %s: %w", id, err)
	}
	return frames, nil
}

func (s *sqlStore) SaveProposal(ctx context.Context, p graph.Proposal) error {
	data, err := s.serializer.Serialize(p)
	if err != nil {
		return fmt.Errorf("failed to serialize proposal %d: %w", p.ID, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	// The id is reserved first; a failed save then only skips an id.
	reserve := `INSERT INTO graphvm_proposal_ids (id) VALUES (?) ` + s.dialect.upsert()
	if _, err := s.db.ExecContext(ctx, reserve, int64(p.ID)); err != nil {
		return fmt.Errorf("failed to reserve proposal id %d: %w", p.ID, err)
	}

	query := `INSERT INTO graphvm_proposals (id, graph_id, status, data) VALUES (?, ?, ?, ?) ` +
		s.dialect.upsert("graph_id", "status", "data")
	if _, err := s.db.ExecContext(ctx, query, int64(p.ID), int64(p.GraphID), p.Status.String(), data); err != nil {
		return fmt.Errorf("failed to save proposal %d: %w", p.ID, err)
	}
	return nil
}

func (s *sqlStore) LoadProposals(ctx context.Context) ([]graph.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM graphvm_proposals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposals: %w", err)
	}
	defer rows.Close()

	out := make([]graph.Proposal, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		var p graph.Proposal
		if err := s.serializer.Deserialize(data, &p); err != nil {
			return nil, fmt.Errorf("failed to deserialize proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) DeleteProposal(ctx context.Context, id uint64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM graphvm_proposals WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete proposal %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete proposal %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("proposal %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *sqlStore) LastProposalID(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return 0, err
	}

	var last int64
	if err := s.db.QueryRowContext(ctx, lastProposalIDQuery).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read last proposal id: %w", err)
	}
	return uint64(last), nil
}

// Close closes the database. Calling Close twice is a no-op.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func sqliteUpsert(cols ...string) string {
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = excluded."+c)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	return "ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
}

func mysqlUpsert(cols ...string) string {
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = VALUES("+c+")")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}
