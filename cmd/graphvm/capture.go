package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/domain/worldgen"
	"github.com/dshills/graphvm/graph/store"
)

// errDiverged is returned by "capture diff" so the exit status reflects
// the comparison.
var errDiverged = errors.New("captures diverge")

func captureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Record and compare replay captures",
	}
	cmd.AddCommand(captureRecordCmd(a))
	cmd.AddCommand(captureListCmd(a))
	cmd.AddCommand(captureDiffCmd(a))
	cmd.AddCommand(captureTimelineCmd(a))
	return cmd
}

func captureRecordCmd(a *app) *cobra.Command {
	var seed uint64
	var lod, radius int
	var graphID uint64
	var id string
	var timeline bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Generate worldgen chunks around the origin and store the replay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if radius < 0 {
				return fmt.Errorf("--radius must not be negative")
			}
			gen, err := worldgen.NewGenerator(a.graphOptions(graph.WithGraphID(graphID))...)
			if err != nil {
				return err
			}
			capture := graph.NewReplayCapture()
			if err := gen.Record(capture, seed, lod, radius); err != nil {
				return err
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if id == "" {
				id = store.NewCaptureID()
			}
			if err := st.SaveCapture(cmd.Context(), id, capture.Events()); err != nil {
				return err
			}
			if timeline {
				tl := timelineFromCapture(capture)
				if err := st.SaveTimeline(cmd.Context(), id, tl.Frames()); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  events=%d hash=%016x\n", id, capture.Len(), capture.ComputeHash())
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 1, "world seed")
	cmd.Flags().IntVar(&lod, "lod", 0, "level of detail")
	cmd.Flags().IntVar(&radius, "radius", 1, "chunks generated in each direction from the origin")
	cmd.Flags().Uint64Var(&graphID, "graph-id", 1, "graph id recorded in events")
	cmd.Flags().StringVar(&id, "id", "", "capture id (default: a new UUID)")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "also store the events as a timeline under the same id")

	return cmd
}

func captureListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			ids, err := st.ListCaptures(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func captureDiffCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "diff <capture-a> <capture-b>",
		Short: "Compare two stored captures event by event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			ea, err := st.LoadCapture(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			eb, err := st.LoadCapture(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			d := graph.CompareReplays(graph.LoadReplayCapture(ea), graph.LoadReplayCapture(eb))
			out := cmd.OutOrStdout()
			if d.Identical {
				fmt.Fprintf(out, "identical: %d events, hash %016x\n", d.LenA, d.HashA)
				return nil
			}

			fmt.Fprintf(out, "a: %d events, hash %016x\n", d.LenA, d.HashA)
			fmt.Fprintf(out, "b: %d events, hash %016x\n", d.LenB, d.HashB)
			for i, div := range d.Divergences {
				if limit > 0 && i >= limit {
					fmt.Fprintf(out, "... %d more\n", len(d.Divergences)-limit)
					break
				}
				fmt.Fprintf(out, "event %d: %s", div.Index, div.Kind)
				if div.Diff.HasChanges() {
					fmt.Fprintf(out, " (%d structural changes)", div.Diff.TotalChanges())
				}
				fmt.Fprintln(out)
			}
			return errDiverged
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum divergences to print (0 = all)")

	return cmd
}

// timelineFromCapture turns each event into a frame labelled with its type
// and, for chunk events, the chunk coordinates.
func timelineFromCapture(c *graph.ReplayCapture) *graph.Timeline {
	tl := graph.NewTimeline()
	for _, e := range c.Events() {
		label := e.EventType
		if chunk := e.Metadata["chunk"]; chunk != "" {
			label += " " + chunk
		}
		tl.Record(e.Tick, e.Snapshot, label)
	}
	return tl
}

func captureTimelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <id>",
		Short: "Step through a stored timeline frame by frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			frames, err := st.LoadTimeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tl := graph.NewTimeline()
			tl.Load(frames)

			out := cmd.OutOrStdout()
			for ok := tl.SeekToBeginning(); ok; ok = tl.StepForward() {
				f, _ := tl.Current()
				fmt.Fprintf(out, "%3d  tick=%-4d %-14s nodes=%-4d changes=%d\n",
					tl.Index(), f.Tick, f.Label, len(f.Snapshot.Nodes), tl.DiffFromPrevious().TotalChanges())
			}
			fmt.Fprintf(out, "%d frames\n", tl.Len())
			return nil
		},
	}
}
