package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/emit"
	"github.com/dshills/graphvm/graph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blendSnapshot is two pose sources feeding a blend.
func blendSnapshot() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.SnapshotNode{
			{ID: 1, Type: "PoseSource"},
			{ID: 2, Type: "PoseSource"},
			{ID: 3, Type: "Blend"},
		},
		Edges: []graph.Edge{
			graph.Connect(1, 0, 3, 0),
			graph.Connect(2, 0, 3, 1),
		},
	}
}

func request() Request {
	return Request{
		GraphID:   5,
		GraphType: "anim",
		Tick:      40,
		Snapshot:  blendSnapshot(),
		Goal:      "drive the blend weight from a signal",
		Catalog:   []string{"PoseSource", "Blend", "SignalWeight"},
	}
}

const goodReply = "Here you go:\n```json\n" + `{
  "description": "drive weight from speed",
  "addedNodes": [{"id": 4, "type": "SignalWeight"}],
  "addedEdges": [{"fromNode": 4, "fromPort": 0, "toNode": 3, "toPort": 2}]
}` + "\n```"

func TestAdvisor_Propose(t *testing.T) {
	mock := &model.MockChatModel{Responses: []model.ChatOut{{Text: goodReply, TokensUsed: 99}}}
	events := emit.NewBufferedEmitter()
	sb := graph.NewSandbox(graph.WithEmitter(events))
	a := New(mock, sb, WithSource("advisor/mock"), WithEmitter(events))

	id, err := a.Propose(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	p, ok := sb.Get(id)
	require.True(t, ok)
	assert.Equal(t, graph.ProposalPending, p.Status)
	assert.Equal(t, "drive weight from speed", p.Description)
	assert.Equal(t, "advisor/mock", p.Source)
	assert.Equal(t, uint64(5), p.GraphID)
	assert.Equal(t, uint64(40), p.ProposedTick)
	assert.Equal(t, []graph.SnapshotNode{{ID: 4, Type: "SignalWeight"}}, p.Diff.AddedNodes)
	assert.Equal(t, []graph.Edge{graph.Connect(4, 0, 3, 2)}, p.Diff.AddedEdges)

	msgs := events.Messages(5)
	assert.Equal(t, []string{"advisor_reply", "proposal_submitted"}, msgs)

	// The prompt carries the snapshot, the catalog and the goal.
	call, ok := mock.LastCall()
	require.True(t, ok)
	require.Len(t, call, 2)
	assert.Equal(t, model.RoleSystem, call[0].Role)
	assert.Contains(t, call[1].Content, `"type":"Blend"`)
	assert.Contains(t, call[1].Content, "SignalWeight")
	assert.Contains(t, call[1].Content, "drive the blend weight")
}

func TestAdvisor_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  error
	}{
		{"not json", "I would add a node.", ErrInvalidSuggestion},
		{"malformed", `{"addedNodes": [`, ErrInvalidSuggestion},
		{"no changes", `{"description": "looks fine"}`, ErrEmptySuggestion},
		{"id collision", `{"addedNodes": [{"id": 2, "type": "Blend"}]}`, ErrInvalidSuggestion},
		{"off catalog", `{"addedNodes": [{"id": 9, "type": "Shader"}]}`, ErrInvalidSuggestion},
		{"dangling edge", `{"addedEdges": [{"fromNode": 8, "fromPort": 0, "toNode": 3, "toPort": 2}]}`, ErrInvalidSuggestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := graph.NewSandbox()
			a := New(&model.MockChatModel{Responses: []model.ChatOut{{Text: tt.reply}}}, sb)

			_, err := a.Propose(context.Background(), request())
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, sb.PendingCount(), "nothing may be queued on error")
		})
	}
}

func TestAdvisor_ModelError(t *testing.T) {
	boom := errors.New("boom")
	sb := graph.NewSandbox()
	a := New(&model.MockChatModel{Err: boom}, sb)

	_, err := a.Propose(context.Background(), request())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sb.All())
}

func TestValidate(t *testing.T) {
	snap := blendSnapshot()

	tests := []struct {
		name    string
		diff    graph.GraphDiff
		catalog []string
		wantErr string
	}{
		{
			name: "remove node and its replacement wiring",
			diff: graph.GraphDiff{
				RemovedNodes: []graph.SnapshotNode{{ID: 2, Type: "PoseSource"}},
				AddedNodes:   []graph.SnapshotNode{{ID: 7, Type: "PoseSource"}},
				AddedEdges:   []graph.Edge{graph.Connect(7, 0, 3, 1)},
			},
		},
		{
			name:    "remove missing node",
			diff:    graph.GraphDiff{RemovedNodes: []graph.SnapshotNode{{ID: 9}}},
			wantErr: "does not exist",
		},
		{
			name:    "remove missing edge",
			diff:    graph.GraphDiff{RemovedEdges: []graph.Edge{graph.Connect(2, 0, 3, 0)}},
			wantErr: "does not exist",
		},
		{
			name:    "zero id",
			diff:    graph.GraphDiff{AddedNodes: []graph.SnapshotNode{{ID: 0, Type: "Blend"}}},
			wantErr: "id 0",
		},
		{
			name:    "duplicate added id",
			diff:    graph.GraphDiff{AddedNodes: []graph.SnapshotNode{{ID: 5, Type: "Blend"}, {ID: 5, Type: "Blend"}}},
			wantErr: "twice",
		},
		{
			name:    "edge to removed node",
			diff:    graph.GraphDiff{RemovedNodes: []graph.SnapshotNode{{ID: 1}}, AddedEdges: []graph.Edge{graph.Connect(1, 0, 3, 2)}},
			wantErr: "missing node",
		},
		{
			name:    "self loop",
			diff:    graph.GraphDiff{AddedEdges: []graph.Edge{graph.Connect(3, 0, 3, 0)}},
			wantErr: "self-loop",
		},
		{
			name:    "negative port",
			diff:    graph.GraphDiff{AddedEdges: []graph.Edge{graph.Connect(1, -1, 3, 2)}},
			wantErr: "negative port",
		},
		{
			name:    "existing edge",
			diff:    graph.GraphDiff{AddedEdges: []graph.Edge{graph.Connect(1, 0, 3, 0)}},
			wantErr: "already exists",
		},
		{
			name: "any type without catalog",
			diff: graph.GraphDiff{AddedNodes: []graph.SnapshotNode{{ID: 10, Type: "Anything"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(snap, tt.diff, tt.catalog)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSuggestion)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestPreview(t *testing.T) {
	snap := blendSnapshot()
	diff := graph.GraphDiff{
		RemovedNodes: []graph.SnapshotNode{{ID: 2, Type: "PoseSource"}},
		AddedNodes:   []graph.SnapshotNode{{ID: 7, Type: "PoseSource"}},
		AddedEdges:   []graph.Edge{graph.Connect(7, 0, 3, 1)},
	}
	require.NoError(t, Validate(snap, diff, nil))

	after := Preview(snap, diff)
	assert.Equal(t, []graph.SnapshotNode{{ID: 1, Type: "PoseSource"}, {ID: 3, Type: "Blend"}, {ID: 7, Type: "PoseSource"}}, after.Nodes)
	assert.Equal(t, []graph.Edge{graph.Connect(1, 0, 3, 0), graph.Connect(7, 0, 3, 1)}, after.Edges)

	// The implicit edge removal shows up when diffing the preview.
	got := graph.ComputeGraphDiff(snap, after)
	assert.Equal(t, diff.AddedNodes, got.AddedNodes)
	assert.Equal(t, diff.RemovedNodes, got.RemovedNodes)
	assert.Equal(t, []graph.Edge{graph.Connect(2, 0, 3, 1)}, got.RemovedEdges)

	// The input is untouched.
	assert.Equal(t, blendSnapshot(), snap)
}

func TestParseSuggestion(t *testing.T) {
	s, err := ParseSuggestion(`{"description":"x","removedEdges":[{"fromNode":1,"fromPort":0,"toNode":3,"toPort":0}]}`)
	require.NoError(t, err)
	assert.Equal(t, "x", s.Description)
	assert.Equal(t, 1, s.TotalChanges())
}
