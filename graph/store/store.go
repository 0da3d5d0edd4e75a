// Package store persists the artifacts produced around a graph: replay
// captures, editor timelines and sandbox proposals.
//
// Graphs themselves are never stored. Node behavior lives in code; what a
// store keeps is structure (snapshots) and review state, serialized through
// a codec.Serializer.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/codec"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested capture, timeline or proposal
// does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by every method of a store after Close.
var ErrClosed = errors.New("store is closed")

// Store provides persistence for tooling artifacts.
//
// Implementations:
//   - MemStore: in-process, for tests and one-shot CLI runs
//   - SQLiteStore: single-file database for local tooling
//   - MySQLStore, PostgresStore: shared databases for CI and teams
//
// Save methods overwrite any existing record with the same id.
type Store interface {
	// SaveCapture stores the events of a replay capture under id.
	SaveCapture(ctx context.Context, id string, events []graph.ReplayEvent) error

	// LoadCapture returns the events stored under id, in recording order.
	// Returns ErrNotFound if id does not exist.
	LoadCapture(ctx context.Context, id string) ([]graph.ReplayEvent, error)

	// ListCaptures returns every capture id in ascending order.
	ListCaptures(ctx context.Context) ([]string, error)

	// SaveTimeline stores the frames of a timeline under id.
	SaveTimeline(ctx context.Context, id string, frames []graph.Frame) error

	// LoadTimeline returns the frames stored under id.
	// Returns ErrNotFound if id does not exist.
	LoadTimeline(ctx context.Context, id string) ([]graph.Frame, error)

	// SaveProposal inserts or replaces a proposal, keyed by its ID.
	SaveProposal(ctx context.Context, p graph.Proposal) error

	// LoadProposals returns every stored proposal in ascending id order.
	LoadProposals(ctx context.Context) ([]graph.Proposal, error)

	// DeleteProposal removes a proposal. Returns ErrNotFound if id does not
	// exist.
	DeleteProposal(ctx context.Context, id uint64) error

	// LastProposalID returns the highest proposal id ever saved, or 0.
	// Deleting a proposal does not lower it.
	LastProposalID(ctx context.Context) (uint64, error)

	// Close releases the underlying resources.
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	serializer *codec.Serializer
}

// WithSerializer sets the blob serializer. The default is
// codec.DefaultSerializer.
func WithSerializer(s *codec.Serializer) Option {
	return func(o *options) {
		if s != nil {
			o.serializer = s
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{serializer: codec.DefaultSerializer()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewCaptureID returns a fresh random id for a capture or timeline.
func NewCaptureID() string {
	return uuid.NewString()
}

// Open creates a store for driver.
//
//   - "memory": dsn is ignored
//   - "sqlite": dsn is a file path or ":memory:"
//   - "mysql": dsn is a go-sql-driver DSN
//   - "postgres": dsn is a libpq URL or keyword string
func Open(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	switch driver {
	case "memory":
		return NewMemStore(opts...), nil
	case "sqlite":
		return NewSQLiteStore(ctx, dsn, opts...)
	case "mysql":
		return NewMySQLStore(ctx, dsn, opts...)
	case "postgres":
		return NewPostgresStore(ctx, dsn, opts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// Drivers lists the names accepted by Open.
func Drivers() []string {
	return []string{"memory", "sqlite", "mysql", "postgres"}
}
