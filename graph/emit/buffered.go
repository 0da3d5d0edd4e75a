package emit

import "sync"

// BufferedEmitter implements Emitter by storing events in memory, grouped
// by graph id.
//
// It is meant for tests and for tools that inspect what a short session
// did. It keeps every event, so long-running simulations should use
// LogEmitter or OTelEmitter instead.
//
// Example usage:
//
//	emitter := emit.NewBufferedEmitter()
//	g := graph.New[anim.PortType, anim.Context](graph.WithGraphID(7), graph.WithEmitter(emitter))
//	...
//	ticks := emitter.GetHistoryWithFilter(7, emit.HistoryFilter{Msg: "tick_executed"})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[uint64][]Event
}

// HistoryFilter selects events. Unset fields match everything; set fields
// are combined with AND.
//
// Example:
//
//	minStep, maxStep := 5, 10
//	filter := emit.HistoryFilter{
//		Msg:     "tick_executed",
//		MinStep: &minStep,
//		MaxStep: &maxStep,
//	}
type HistoryFilter struct {
	NodeID  *uint64 // Filter by node ID (nil = no filter)
	Msg     string  // Filter by message (empty = no filter)
	MinStep *int    // Minimum step number (nil = no filter)
	MaxStep *int    // Maximum step number (nil = no filter)
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[uint64][]Event),
	}
}

// Emit stores an event.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.GraphID] = append(b.events[event.GraphID], event)
}

// GetHistory returns a copy of every event of graphID in emission order.
// The result is never nil.
func (b *BufferedEmitter) GetHistory(graphID uint64) []Event {
	return b.GetHistoryWithFilter(graphID, HistoryFilter{})
}

// GetHistoryWithFilter returns the events of graphID matching filter, in
// emission order. The result is never nil.
func (b *BufferedEmitter) GetHistoryWithFilter(graphID uint64, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]Event, 0, len(b.events[graphID]))
	for _, event := range b.events[graphID] {
		if filter.matches(event) {
			result = append(result, event)
		}
	}
	return result
}

// Messages returns just the Msg of each event of graphID, in order.
func (b *BufferedEmitter) Messages(graphID uint64) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msgs := make([]string, 0, len(b.events[graphID]))
	for _, event := range b.events[graphID] {
		msgs = append(msgs, event.Msg)
	}
	return msgs
}

func (f HistoryFilter) matches(event Event) bool {
	if f.NodeID != nil && event.NodeID != *f.NodeID {
		return false
	}
	if f.Msg != "" && event.Msg != f.Msg {
		return false
	}
	if f.MinStep != nil && event.Step < *f.MinStep {
		return false
	}
	if f.MaxStep != nil && event.Step > *f.MaxStep {
		return false
	}
	return true
}

// Clear removes the events of graphID.
func (b *BufferedEmitter) Clear(graphID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, graphID)
}

// ClearAll removes every stored event.
func (b *BufferedEmitter) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(map[uint64][]Event)
}
