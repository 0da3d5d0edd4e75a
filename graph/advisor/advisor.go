// Package advisor asks a language model for structural changes to a graph
// and queues them in a sandbox for human review.
//
// The advisor never mutates a graph. Its output is a pending
// graph.Proposal; applying an approved proposal is the graph owner's job.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/emit"
	"github.com/dshills/graphvm/graph/model"
)

var (
	// ErrInvalidSuggestion means the model reply could not be parsed or
	// does not apply to the snapshot it was asked about.
	ErrInvalidSuggestion = errors.New("invalid suggestion")

	// ErrEmptySuggestion means the model proposed no changes.
	ErrEmptySuggestion = errors.New("empty suggestion")
)

// Request describes what to ask the model about.
type Request struct {
	GraphID   uint64
	GraphType string
	Tick      uint64
	Snapshot  graph.Snapshot

	// Goal is the free-form intent, e.g. "blend the idle pose toward run".
	Goal string

	// Catalog lists the node types the model may add. Empty means any type.
	Catalog []string
}

// Suggestion is the reply format the model is asked to produce.
type Suggestion struct {
	Description string `json:"description"`
	graph.GraphDiff
}

// Advisor turns model replies into sandbox proposals.
type Advisor struct {
	model   model.ChatModel
	sandbox *graph.Sandbox
	source  string
	emitter emit.Emitter
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithSource sets Proposal.Source, e.g. "advisor/anthropic".
func WithSource(source string) Option {
	return func(a *Advisor) { a.source = source }
}

// WithEmitter reports each model call as an "advisor_reply" event.
func WithEmitter(e emit.Emitter) Option {
	return func(a *Advisor) { a.emitter = e }
}

// New creates an advisor that submits to sandbox.
func New(m model.ChatModel, sandbox *graph.Sandbox, opts ...Option) *Advisor {
	a := &Advisor{model: m, sandbox: sandbox, source: "advisor"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Propose asks the model for a change, validates it against req.Snapshot and
// queues it. Returns the proposal id.
//
// Nothing is queued on error.
func (a *Advisor) Propose(ctx context.Context, req Request) (uint64, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return 0, err
	}

	out, err := a.model.Chat(ctx, messages)
	if err != nil {
		return 0, fmt.Errorf("advisor: %w", err)
	}
	meta := map[string]interface{}{
		"source":      a.source,
		"tokens_used": out.TokensUsed,
	}
	if name := model.NameOf(a.model); name != "" {
		meta["model"] = name
	}
	a.emit(req, "advisor_reply", meta)

	s, err := ParseSuggestion(out.Text)
	if err != nil {
		return 0, err
	}
	if !s.HasChanges() {
		return 0, ErrEmptySuggestion
	}
	if err := Validate(req.Snapshot, s.GraphDiff, req.Catalog); err != nil {
		return 0, err
	}

	return a.sandbox.Propose(graph.Proposal{
		GraphID:      req.GraphID,
		GraphType:    req.GraphType,
		Description:  s.Description,
		Source:       a.source,
		Diff:         s.GraphDiff,
		ProposedTick: req.Tick,
	}), nil
}

func (a *Advisor) emit(req Request, msg string, meta map[string]interface{}) {
	if a.emitter == nil {
		return
	}
	a.emitter.Emit(emit.Event{GraphID: req.GraphID, Step: int(req.Tick), Msg: msg, Meta: meta})
}

const systemPrompt = `You edit node graphs. You are given a graph snapshot as JSON:
nodes are {"id", "type"} and edges are {"fromNode", "fromPort", "toNode", "toPort"}.
Reply with a single JSON object and nothing else:
{"description": "<one sentence>", "addedNodes": [...], "removedNodes": [...], "addedEdges": [...], "removedEdges": [...]}
New nodes need ids not present in the snapshot. Never introduce a cycle.`

func buildMessages(req Request) ([]model.Message, error) {
	snap, err := json.Marshal(req.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("advisor: encode snapshot: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Graph %d (%s) at tick %d:\n%s\n\n", req.GraphID, req.GraphType, req.Tick, snap)
	if len(req.Catalog) > 0 {
		sb.WriteString("Allowed node types: ")
		sb.WriteString(strings.Join(req.Catalog, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Goal: ")
	sb.WriteString(req.Goal)

	return []model.Message{
		{Role: model.RoleSystem, Content: systemPrompt},
		{Role: model.RoleUser, Content: sb.String()},
	}, nil
}

// ParseSuggestion decodes a model reply. Markdown code fences and text
// around the outermost JSON object are tolerated.
func ParseSuggestion(text string) (Suggestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Suggestion{}, fmt.Errorf("%w: no JSON object in reply", ErrInvalidSuggestion)
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrInvalidSuggestion, err)
	}
	return s, nil
}
