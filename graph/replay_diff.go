package graph

// DivergenceKind classifies how two replays differ at one event index.
type DivergenceKind int

const (
	// DivergenceEvent: tick, graph id or event type differ; structure matches.
	DivergenceEvent DivergenceKind = iota + 1

	// DivergenceSnapshot: identity matches but the snapshots differ.
	DivergenceSnapshot

	// DivergenceBoth: identity and snapshot both differ.
	DivergenceBoth

	// DivergenceMissing: one replay ended before the other.
	DivergenceMissing
)

func (k DivergenceKind) String() string {
	switch k {
	case DivergenceEvent:
		return "event"
	case DivergenceSnapshot:
		return "snapshot"
	case DivergenceBoth:
		return "both"
	case DivergenceMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Divergence describes one mismatching event index.
type Divergence struct {
	Index int
	Kind  DivergenceKind

	// A and B are the events at Index. The side that ran out is nil for
	// DivergenceMissing.
	A *ReplayEvent
	B *ReplayEvent

	// Diff is the structural diff from A's snapshot to B's. Empty unless
	// Kind is DivergenceSnapshot or DivergenceBoth.
	Diff GraphDiff
}

// ReplayDiff is the result of CompareReplays.
type ReplayDiff struct {
	Identical   bool
	HashA       uint64
	HashB       uint64
	LenA        int
	LenB        int
	Divergences []Divergence
}

// FirstDivergence returns the lowest diverging index.
func (d ReplayDiff) FirstDivergence() (int, bool) {
	if len(d.Divergences) == 0 {
		return 0, false
	}
	return d.Divergences[0].Index, true
}

// CompareReplays compares two captures.
//
// If the stream hashes and event counts match the captures are reported
// identical. Otherwise events are compared pairwise and every mismatching
// index is recorded. A length mismatch contributes one DivergenceMissing at
// the first index present in only one capture.
func CompareReplays(a, b *ReplayCapture) ReplayDiff {
	d := ReplayDiff{
		HashA: a.ComputeHash(),
		HashB: b.ComputeHash(),
		LenA:  a.Len(),
		LenB:  b.Len(),
	}
	if d.HashA == d.HashB && d.LenA == d.LenB {
		d.Identical = true
		return d
	}

	n := d.LenA
	if d.LenB < n {
		n = d.LenB
	}

	for i := 0; i < n; i++ {
		ea, eb := a.events[i], b.events[i]
		idMismatch := !ea.sameIdentity(eb)
		structural := HashSnapshot(ea.Snapshot) != HashSnapshot(eb.Snapshot)
		if !idMismatch && !structural {
			continue
		}

		ea, eb = ea.clone(), eb.clone()
		div := Divergence{Index: i, A: &ea, B: &eb}
		switch {
		case idMismatch && structural:
			div.Kind = DivergenceBoth
		case idMismatch:
			div.Kind = DivergenceEvent
		default:
			div.Kind = DivergenceSnapshot
		}
		if structural {
			div.Diff = ComputeGraphDiff(ea.Snapshot, eb.Snapshot)
		}
		d.Divergences = append(d.Divergences, div)
	}

	if d.LenA != d.LenB {
		div := Divergence{Index: n, Kind: DivergenceMissing}
		if d.LenA > n {
			extra := a.events[n].clone()
			div.A = &extra
		} else {
			extra := b.events[n].clone()
			div.B = &extra
		}
		d.Divergences = append(d.Divergences, div)
	}

	// Hash collisions aside, equal lengths with unequal hashes always yield
	// at least one divergence above.
	d.Identical = len(d.Divergences) == 0
	return d
}
