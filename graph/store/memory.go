package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/codec"
)

// MemStore is an in-memory Store.
//
// Records are kept serialized, so values returned by Load methods never
// alias what was saved. MemStore is safe for concurrent use.
//
// Data is lost when the process exits.
type MemStore struct {
	mu         sync.RWMutex
	serializer *codec.Serializer
	captures   map[string][]byte
	timelines  map[string][]byte
	proposals  map[uint64][]byte
	lastID     uint64
	closed     bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(opts ...Option) *MemStore {
	o := buildOptions(opts)
	return &MemStore{
		serializer: o.serializer,
		captures:   make(map[string][]byte),
		timelines:  make(map[string][]byte),
		proposals:  make(map[uint64][]byte),
	}
}

func (m *MemStore) SaveCapture(_ context.Context, id string, events []graph.ReplayEvent) error {
	data, err := m.serializer.Serialize(events)
	if err != nil {
		return fmt.Errorf("failed to serialize capture %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.captures[id] = data
	return nil
}

func (m *MemStore) LoadCapture(_ context.Context, id string) ([]graph.ReplayEvent, error) {
	m.mu.RLock()
	data, ok := m.captures[id]
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("capture %s: %w", id, ErrNotFound)
	}

	var events []graph.ReplayEvent
	if err := m.serializer.Deserialize(data, &events); err != nil {
		return nil, fmt.Errorf("failed to deserialize capture %s: %w", id, err)
	}
	return events, nil
}

func (m *MemStore) ListCaptures(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	ids := make([]string, 0, len(m.captures))
	for id := range m.captures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) SaveTimeline(_ context.Context, id string, frames []graph.Frame) error {
	data, err := m.serializer.Serialize(frames)
	if err != nil {
		return fmt.Errorf("failed to serialize timeline %s: %w", id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.timelines[id] = data
	return nil
}

func (m *MemStore) LoadTimeline(_ context.Context, id string) ([]graph.Frame, error) {
	m.mu.RLock()
	data, ok := m.timelines[id]
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("timeline %s: %w", id, ErrNotFound)
	}

	var frames []graph.Frame
	if err := m.serializer.Deserialize(data, &frames); err != nil {
		return nil, fmt.Errorf("failed to deserialize timeline %s: %w", id, err)
	}
	return frames, nil
}

func (m *MemStore) SaveProposal(_ context.Context, p graph.Proposal) error {
	data, err := m.serializer.Serialize(p)
	if err != nil {
		return fmt.Errorf("failed to serialize proposal %d: %w", p.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.proposals[p.ID] = data
	if p.ID > m.lastID {
		m.lastID = p.ID
	}
	return nil
}

func (m *MemStore) LoadProposals(_ context.Context) ([]graph.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([]graph.Proposal, 0, len(m.proposals))
	for id, data := range m.proposals {
		var p graph.Proposal
		if err := m.serializer.Deserialize(data, &p); err != nil {
			return nil, fmt.Errorf("failed to deserialize proposal %d: %w", id, err)
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) DeleteProposal(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.proposals[id]; !ok {
		return fmt.Errorf("proposal %d: %w", id, ErrNotFound)
	}
	delete(m.proposals, id)
	return nil
}

func (m *MemStore) LastProposalID(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.lastID, nil
}

// Close marks the store closed. Later calls fail.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
