package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/advisor"
	"github.com/dshills/graphvm/graph/model"
	"github.com/dshills/graphvm/graph/model/anthropic"
	"github.com/dshills/graphvm/graph/model/google"
	"github.com/dshills/graphvm/graph/model/openai"
	"github.com/dshills/graphvm/internal/config"
)

func suggestCmd(a *app) *cobra.Command {
	var goal string
	var graphID, tick uint64

	cmd := &cobra.Command{
		Use:   "suggest <graph-type>",
		Short: "Ask the configured model for a change and queue it for review",
		Long: `Sends the snapshot of a built-in graph (anim or worldgen) and a goal to the
model selected by GRAPHVM_LLM_PROVIDER. A valid reply becomes a pending
proposal in the store; nothing is applied until it is approved.

The "mock" provider answers offline by adding one node of the first
catalog type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dg, err := domainGraphByName(args[0])
			if err != nil {
				return err
			}
			snap, err := dg.build(a.graphOptions(graph.WithGraphID(graphID))...)
			if err != nil {
				return err
			}
			m, err := newChatModel(a.cfg.LLM, snap, dg.catalog)
			if err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			sb, err := a.loadSandbox(cmd.Context(), st)
			if err != nil {
				return err
			}

			adv := advisor.New(m, sb,
				advisor.WithSource("advisor/"+a.cfg.LLM.Provider),
				advisor.WithEmitter(a.emitter),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.LLM.Timeout)
			defer cancel()
			id, err := adv.Propose(ctx, advisor.Request{
				GraphID:   graphID,
				GraphType: args[0],
				Tick:      tick,
				Snapshot:  snap,
				Goal:      goal,
				Catalog:   dg.catalog,
			})
			if err != nil {
				return err
			}

			p, _ := sb.Get(id)
			if err := st.SaveProposal(cmd.Context(), p); err != nil {
				return err
			}
			printProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "what the change should achieve")
	cmd.Flags().Uint64Var(&graphID, "graph-id", 1, "graph id the proposal targets")
	cmd.Flags().Uint64Var(&tick, "tick", 0, "tick recorded on the proposal")
	_ = cmd.MarkFlagRequired("goal")

	return cmd
}

// newChatModel builds the provider selected by cfg, wrapped in retries.
// snap and catalog only feed the offline mock reply.
func newChatModel(cfg config.LLMConfig, snap graph.Snapshot, catalog []string) (model.ChatModel, error) {
	var m model.ChatModel
	switch cfg.Provider {
	case "anthropic":
		m = anthropic.NewChatModel(cfg.APIKey, cfg.Model)
	case "openai":
		m = openai.NewChatModel(cfg.APIKey, cfg.Model).WithJSONMode()
	case "google":
		m = google.NewChatModel(cfg.APIKey, cfg.Model).WithJSONMode()
	case "mock":
		reply, err := mockReply(snap, catalog)
		if err != nil {
			return nil, err
		}
		return &model.MockChatModel{Responses: []model.ChatOut{{Text: reply}}}, nil
	case "":
		return nil, fmt.Errorf("no model configured: set GRAPHVM_LLM_PROVIDER")
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	return model.WithRetry(m, cfg.MaxRetries, time.Second), nil
}

// mockReply adds one node of the first catalog type, fed by the lowest-id
// node of the snapshot.
func mockReply(snap graph.Snapshot, catalog []string) (string, error) {
	if len(catalog) == 0 {
		return "", fmt.Errorf("mock provider needs a node catalog")
	}
	var next graph.NodeID
	for _, n := range snap.Nodes {
		if n.ID > next {
			next = n.ID
		}
	}
	next++

	s := advisor.Suggestion{Description: "add a " + catalog[0] + " node"}
	s.AddedNodes = []graph.SnapshotNode{{ID: next, Type: catalog[0]}}
	if len(snap.Nodes) > 0 {
		first := snap.Nodes[0].ID
		for _, n := range snap.Nodes {
			if n.ID < first {
				first = n.ID
			}
		}
		s.AddedEdges = []graph.Edge{graph.Connect(first, 0, next, 0)}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
