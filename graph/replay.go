package graph

// Replay capture records what a simulation did, tick by tick, so that two
// runs of the same session (two peers, or a live run and its replay) can be
// compared for bit-identical behavior.
//
// # Determinism
//
// A replay is only meaningful if every graph involved evaluates
// deterministically. The engine guarantees its part:
//
//   - Compile orders ready nodes by ascending NodeID, never by map order
//   - Fan-in is resolved by edge contents, never by insertion order
//   - Execute evaluates each node exactly once per pass, synchronously
//
// Node authors guarantee theirs:
//
//	// Non-deterministic:
//	func (n *Jitter) Evaluate(ec Ctx, in, out []graph.Value[P]) {
//	    out[0] = graph.Scalar(Float, rand.Float64())
//	}
//
//	// Deterministic: randomness derived from an explicit seed
//	func (n *Jitter) Evaluate(ec Ctx, in, out []graph.Value[P]) {
//	    out[0] = graph.Scalar(Float, hashToUnit(ec.Seed, ec.Tick))
//	}
//
// Other sources to avoid: time.Now, map iteration order, goroutine
// scheduling, global mutable state (use the injected SignalTable instead).
//
// # Hashing
//
// ReplayCapture.ComputeHash folds every event into one 64-bit FNV-1a value
// in recording order. Two captures with equal hashes and lengths are treated
// as identical without comparing events one by one; CompareReplays walks the
// events only when they differ.

// ReplayEvent is one recorded occurrence.
type ReplayEvent struct {
	// Tick is the simulation step the event happened at.
	Tick uint64 `json:"tick" msgpack:"tick"`

	// GraphID identifies the graph (or external system) involved.
	GraphID uint64 `json:"graphId" msgpack:"graphId"`

	// EventType is a short label such as "compile", "execute" or "edit".
	EventType string `json:"eventType" msgpack:"eventType"`

	// Snapshot is the structure at the time of the event.
	Snapshot Snapshot `json:"snapshot" msgpack:"snapshot"`

	// Metadata is free-form annotation. It does not contribute to the hash.
	Metadata map[string]string `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// sameIdentity reports whether two events agree on tick, graph and type.
func (e ReplayEvent) sameIdentity(o ReplayEvent) bool {
	return e.Tick == o.Tick && e.GraphID == o.GraphID && e.EventType == o.EventType
}

// ReplayCapture is an append-only event log.
//
// ReplayCapture is not safe for concurrent use.
type ReplayCapture struct {
	events []ReplayEvent
}

// NewReplayCapture creates an empty capture.
func NewReplayCapture() *ReplayCapture {
	return &ReplayCapture{}
}

// LoadReplayCapture rebuilds a capture from previously recorded events.
func LoadReplayCapture(events []ReplayEvent) *ReplayCapture {
	c := &ReplayCapture{events: make([]ReplayEvent, 0, len(events))}
	for _, e := range events {
		c.append(e)
	}
	return c
}

// Record appends an event. The snapshot and metadata are copied.
func (c *ReplayCapture) Record(tick, graphID uint64, eventType string, snap Snapshot, meta map[string]string) {
	c.append(ReplayEvent{
		Tick:      tick,
		GraphID:   graphID,
		EventType: eventType,
		Snapshot:  snap,
		Metadata:  meta,
	})
}

func (c *ReplayCapture) append(e ReplayEvent) {
	c.events = append(c.events, e.clone())
}

// clone returns a copy that shares neither snapshot storage nor metadata
// with e.
func (e ReplayEvent) clone() ReplayEvent {
	e.Snapshot = e.Snapshot.Clone()
	if e.Metadata != nil {
		meta := make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			meta[k] = v
		}
		e.Metadata = meta
	}
	return e
}

// Events returns a copy of the log in recording order. Mutating the result
// does not affect the capture.
func (c *ReplayCapture) Events() []ReplayEvent {
	out := make([]ReplayEvent, len(c.events))
	for i, e := range c.events {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of events.
func (c *ReplayCapture) Len() int {
	return len(c.events)
}

// ByGraph returns the events of one graph in recording order.
func (c *ReplayCapture) ByGraph(graphID uint64) []ReplayEvent {
	return c.filter(func(e ReplayEvent) bool { return e.GraphID == graphID })
}

// AtTick returns the events recorded at exactly tick.
func (c *ReplayCapture) AtTick(tick uint64) []ReplayEvent {
	return c.filter(func(e ReplayEvent) bool { return e.Tick == tick })
}

// InRange returns the events with from <= Tick <= to.
func (c *ReplayCapture) InRange(from, to uint64) []ReplayEvent {
	return c.filter(func(e ReplayEvent) bool { return e.Tick >= from && e.Tick <= to })
}

func (c *ReplayCapture) filter(keep func(ReplayEvent) bool) []ReplayEvent {
	var out []ReplayEvent
	for _, e := range c.events {
		if keep(e) {
			out = append(out, e.clone())
		}
	}
	return out
}

// ComputeHash returns an order-sensitive hash of the whole stream.
//
// Each event contributes its tick, graph id, event type and snapshot hash.
// Metadata is excluded so annotations such as wall-clock timings do not
// break replay equality.
func (c *ReplayCapture) ComputeHash() uint64 {
	h := newHasher()
	h.writeInt(len(c.events))
	for _, e := range c.events {
		h.writeUint(e.Tick)
		h.writeUint(e.GraphID)
		h.writeInt(len(e.EventType))
		h.writeString(e.EventType)
		h.writeUint(HashSnapshot(e.Snapshot))
	}
	return h.Sum64()
}

// Clear removes every event.
func (c *ReplayCapture) Clear() {
	c.events = nil
}
