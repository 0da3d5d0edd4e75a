package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/graphvm/graph/emit"
)

// ProposalStatus is the state of a sandbox proposal.
type ProposalStatus int

const (
	ProposalPending ProposalStatus = iota
	ProposalApproved
	ProposalRejected
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalPending:
		return "pending"
	case ProposalApproved:
		return "approved"
	case ProposalRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseProposalStatus is the inverse of ProposalStatus.String.
func ParseProposalStatus(s string) (ProposalStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return ProposalPending, nil
	case "approved":
		return ProposalApproved, nil
	case "rejected":
		return ProposalRejected, nil
	default:
		return 0, fmt.Errorf("unknown proposal status %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ProposalStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ProposalStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseProposalStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Proposal is a structural change suggested by an automated source and
// awaiting, or having received, a human decision.
type Proposal struct {
	ID          uint64 `json:"id" msgpack:"id"`
	GraphID     uint64 `json:"graphId" msgpack:"graphId"`
	GraphType   string `json:"graphType" msgpack:"graphType"`
	Description string `json:"description" msgpack:"description"`

	// Source names the proposer, e.g. "advisor/anthropic".
	Source string `json:"source,omitempty" msgpack:"source,omitempty"`

	Diff         GraphDiff `json:"diff" msgpack:"diff"`
	ProposedTick uint64    `json:"proposedTick" msgpack:"proposedTick"`

	Status       ProposalStatus `json:"status" msgpack:"status"`
	Reviewer     string         `json:"reviewer,omitempty" msgpack:"reviewer,omitempty"`
	Reason       string         `json:"reason,omitempty" msgpack:"reason,omitempty"`
	ResolvedTick uint64         `json:"resolvedTick,omitempty" msgpack:"resolvedTick,omitempty"`
}

// IsResolved reports whether the proposal has left the pending state.
func (p Proposal) IsResolved() bool {
	return p.Status != ProposalPending
}

func (p Proposal) clone() Proposal {
	out := p
	out.Diff = GraphDiff{
		AddedNodes:   append([]SnapshotNode(nil), p.Diff.AddedNodes...),
		RemovedNodes: append([]SnapshotNode(nil), p.Diff.RemovedNodes...),
		AddedEdges:   append([]Edge(nil), p.Diff.AddedEdges...),
		RemovedEdges: append([]Edge(nil), p.Diff.RemovedEdges...),
	}
	return out
}

// Sandbox is the approval queue for AI-originated structural changes.
//
// A proposal moves from pending to approved or rejected exactly once.
// Resolved proposals are terminal: a second Approve or Reject fails with
// ErrProposalResolved and changes nothing.
//
// The sandbox never applies a diff. Acting on an approved proposal is the
// job of whoever owns the graph (an editor command, a tool), which keeps
// every applied change behind an explicit human decision.
//
// Sandbox is safe for concurrent use: proposers and reviewers are usually
// different goroutines.
type Sandbox struct {
	mu        sync.Mutex
	proposals map[uint64]*Proposal
	nextID    uint64
	cfg       config
}

// NewSandbox creates an empty sandbox. WithEmitter and WithMetrics are
// honored.
func NewSandbox(opts ...Option) *Sandbox {
	return &Sandbox{
		proposals: make(map[uint64]*Proposal),
		cfg:       buildConfig(opts),
	}
}

// Propose queues p as pending and returns its id. ID, Status and the review
// fields of p are ignored. Propose always succeeds; ids start at 1 and
// increase monotonically.
func (s *Sandbox) Propose(p Proposal) uint64 {
	s.mu.Lock()
	s.nextID++
	stored := p.clone()
	stored.ID = s.nextID
	stored.Status = ProposalPending
	stored.Reviewer = ""
	stored.Reason = ""
	stored.ResolvedTick = 0
	s.proposals[stored.ID] = &stored
	pending := s.pendingLocked()
	s.mu.Unlock()

	s.cfg.metrics.RecordProposal(ProposalPending)
	s.cfg.metrics.SetPendingProposals(pending)
	s.emit(stored, "proposal_submitted", map[string]interface{}{
		"description": stored.Description,
		"changes":     stored.Diff.TotalChanges(),
	})
	return stored.ID
}

// Approve marks a pending proposal approved.
func (s *Sandbox) Approve(id uint64, reviewer string, tick uint64) error {
	return s.resolve(id, ProposalApproved, reviewer, "", tick)
}

// Reject marks a pending proposal rejected.
func (s *Sandbox) Reject(id uint64, reviewer, reason string, tick uint64) error {
	return s.resolve(id, ProposalRejected, reviewer, reason, tick)
}

func (s *Sandbox) resolve(id uint64, status ProposalStatus, reviewer, reason string, tick uint64) error {
	s.mu.Lock()
	p, ok := s.proposals[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("proposal %d: %w", id, ErrProposalNotFound)
	}
	if p.IsResolved() {
		s.mu.Unlock()
		return fmt.Errorf("proposal %d is %s: %w", id, p.Status, ErrProposalResolved)
	}
	p.Status = status
	p.Reviewer = reviewer
	p.Reason = reason
	p.ResolvedTick = tick
	resolved := p.clone()
	pending := s.pendingLocked()
	s.mu.Unlock()

	s.cfg.metrics.RecordProposal(status)
	s.cfg.metrics.SetPendingProposals(pending)
	meta := map[string]interface{}{"reviewer": reviewer}
	if reason != "" {
		meta["reason"] = reason
	}
	s.emit(resolved, "proposal_"+status.String(), meta)
	return nil
}

// Get returns a copy of proposal id.
func (s *Sandbox) Get(id uint64) (Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return Proposal{}, false
	}
	return p.clone(), true
}

// All returns every proposal in ascending id order.
func (s *Sandbox) All() []Proposal {
	return s.query(func(*Proposal) bool { return true })
}

// ByStatus returns the proposals in status, ascending by id.
func (s *Sandbox) ByStatus(status ProposalStatus) []Proposal {
	return s.query(func(p *Proposal) bool { return p.Status == status })
}

// ByGraph returns the proposals targeting graphID, ascending by id.
func (s *Sandbox) ByGraph(graphID uint64) []Proposal {
	return s.query(func(p *Proposal) bool { return p.GraphID == graphID })
}

func (s *Sandbox) query(keep func(*Proposal) bool) []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Proposal, 0)
	for _, p := range s.proposals {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PendingCount returns the number of proposals awaiting review.
func (s *Sandbox) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Sandbox) pendingLocked() int {
	n := 0
	for _, p := range s.proposals {
		if !p.IsResolved() {
			n++
		}
	}
	return n
}

// PurgeResolved drops every approved or rejected proposal and returns how
// many were dropped. Pending proposals are untouched.
func (s *Sandbox) PurgeResolved() int {
	s.mu.Lock()
	removed := 0
	for id, p := range s.proposals {
		if p.IsResolved() {
			delete(s.proposals, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 && s.cfg.emitter != nil {
		s.cfg.emitter.Emit(emit.Event{
			GraphID: s.cfg.graphID,
			Msg:     "proposals_purged",
			Meta:    map[string]interface{}{"removed": removed},
		})
	}
	return removed
}

// Restore replaces the sandbox contents with previously persisted
// proposals. Later proposals with a duplicate id win. Ids already issued by
// this sandbox are never reissued; otherwise the next id is one past the
// highest restored id.
func (s *Sandbox) Restore(proposals []Proposal) {
	s.mu.Lock()
	s.proposals = make(map[uint64]*Proposal, len(proposals))
	for _, p := range proposals {
		stored := p.clone()
		s.proposals[stored.ID] = &stored
		if stored.ID > s.nextID {
			s.nextID = stored.ID
		}
	}
	pending := s.pendingLocked()
	s.mu.Unlock()

	s.cfg.metrics.SetPendingProposals(pending)
}

// ReserveThrough marks every id up to lastID as issued, so the next Propose
// returns at least lastID+1. Stores call this with their persisted
// high-water mark because purged proposals no longer show up in Restore.
func (s *Sandbox) ReserveThrough(lastID uint64) {
	s.mu.Lock()
	if lastID > s.nextID {
		s.nextID = lastID
	}
	s.mu.Unlock()
}

func (s *Sandbox) emit(p Proposal, msg string, meta map[string]interface{}) {
	if s.cfg.emitter == nil {
		return
	}
	meta["proposal_id"] = p.ID
	meta["graph_type"] = p.GraphType
	s.cfg.emitter.Emit(emit.Event{
		GraphID: p.GraphID,
		Step:    int(p.ProposedTick),
		Msg:     msg,
		Meta:    meta,
	})
}
