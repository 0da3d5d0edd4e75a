package emit

// Event is an observability event emitted by a graph, a sandbox or the
// determinism validator.
//
// Events describe what happened; they never influence evaluation. Typical
// messages:
//   - graph_compiled / compile_failed
//   - tick_executed
//   - proposal_submitted / proposal_approved / proposal_rejected / proposals_purged
//   - determinism_passed / determinism_failed
type Event struct {
	// GraphID identifies the graph the event concerns. Zero when the
	// emitter was not given one.
	GraphID uint64

	// Step is the execute pass (for graph events) or simulation tick (for
	// sandbox events) the event belongs to. Zero before the first pass.
	Step int

	// NodeID identifies a node within the graph. Zero for graph-level
	// events.
	NodeID uint64

	// Msg is the event name.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "error": Error details
	//   - "code": GraphError code
	//   - "nodes", "edges": Structure sizes
	//   - "proposal_id": Sandbox proposal id
	Meta map[string]interface{}
}
