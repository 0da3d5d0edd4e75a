package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/graphvm/graph"
)

func proposalsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Review persisted sandbox proposals",
	}
	cmd.AddCommand(proposalsListCmd(a))
	cmd.AddCommand(proposalsShowCmd(a))
	cmd.AddCommand(proposalsResolveCmd(a, true))
	cmd.AddCommand(proposalsResolveCmd(a, false))
	cmd.AddCommand(proposalsPurgeCmd(a))
	return cmd
}

func proposalsListCmd(a *app) *cobra.Command {
	var status string
	var graphID uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			sb, err := a.loadSandbox(cmd.Context(), st)
			if err != nil {
				return err
			}

			var list []graph.Proposal
			switch {
			case status != "":
				s, err := graph.ParseProposalStatus(status)
				if err != nil {
					return err
				}
				list = sb.ByStatus(s)
			case graphID != 0:
				list = sb.ByGraph(graphID)
			default:
				list = sb.All()
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "no proposals")
				return nil
			}
			for _, p := range list {
				fmt.Fprintf(out, "%4d  %-8s graph=%d %-8s changes=%-3d %s\n",
					p.ID, p.Status, p.GraphID, p.GraphType, p.Diff.TotalChanges(), p.Description)
			}
			fmt.Fprintf(out, "%d pending\n", sb.PendingCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only pending, approved or rejected")
	cmd.Flags().Uint64Var(&graphID, "graph", 0, "only proposals for this graph id")

	return cmd
}

func proposalsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one proposal with its diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
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

			p, ok := sb.Get(id)
			if !ok {
				return fmt.Errorf("proposal %d: %w", id, graph.ErrProposalNotFound)
			}
			printProposal(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func proposalsResolveCmd(a *app, approve bool) *cobra.Command {
	var reviewer, reason string
	var tick uint64

	use, short := "approve <id>", "Approve a pending proposal"
	if !approve {
		use, short = "reject <id>", "Reject a pending proposal"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProposalID(args[0])
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

			if approve {
				err = sb.Approve(id, reviewer, tick)
			} else {
				err = sb.Reject(id, reviewer, reason, tick)
			}
			if err != nil {
				return err
			}

			p, _ := sb.Get(id)
			if err := st.SaveProposal(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "proposal %d %s by %s\n", p.ID, p.Status, p.Reviewer)
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewer, "reviewer", defaultReviewer(), "reviewer name")
	cmd.Flags().Uint64Var(&tick, "tick", 0, "tick recorded as the resolution time")
	if !approve {
		cmd.Flags().StringVar(&reason, "reason", "", "why the proposal was rejected")
	}

	return cmd
}

func proposalsPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every approved or rejected proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			sb, err := a.loadSandbox(cmd.Context(), st)
			if err != nil {
				return err
			}

			resolved := append(sb.ByStatus(graph.ProposalApproved), sb.ByStatus(graph.ProposalRejected)...)
			n := sb.PurgeResolved()
			for _, p := range resolved {
				if err := st.DeleteProposal(cmd.Context(), p.ID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d proposals, %d pending\n", n, sb.PendingCount())
			return nil
		},
	}
}

func printProposal(w io.Writer, p graph.Proposal) {
	fmt.Fprintf(w, "proposal %d (%s)\n", p.ID, p.Status)
	fmt.Fprintf(w, "  graph:       %d %s\n", p.GraphID, p.GraphType)
	fmt.Fprintf(w, "  source:      %s\n", p.Source)
	fmt.Fprintf(w, "  description: %s\n", p.Description)
	fmt.Fprintf(w, "  proposed at: tick %d\n", p.ProposedTick)
	if p.IsResolved() {
		fmt.Fprintf(w, "  reviewer:    %s at tick %d\n", p.Reviewer, p.ResolvedTick)
		if p.Reason != "" {
			fmt.Fprintf(w, "  reason:      %s\n", p.Reason)
		}
	}
	printDiff(w, p.Diff)
}

func parseProposalID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid proposal id %q", s)
	}
	return id, nil
}

func defaultReviewer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "reviewer"
}
