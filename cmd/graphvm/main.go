// Command graphvm is the tooling front end for graph determinism checks,
// snapshot diffs, replay captures and the AI proposal sandbox.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/dshills/graphvm/graph"
	"github.com/dshills/graphvm/graph/emit"
	"github.com/dshills/graphvm/graph/store"
	"github.com/dshills/graphvm/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand, built once the
// configuration has been loaded.
type app struct {
	cfg      *config.Config
	emitter  emit.Emitter
	otel     *emit.OTelEmitter
	registry *prometheus.Registry
	metrics  *graph.PrometheusMetrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "graphvm",
		Short:         "Tooling for deterministic dataflow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.registry = prometheus.NewRegistry()
			a.metrics = graph.NewPrometheusMetrics(a.registry)

			emitters := emit.MultiEmitter{}
			if verbose {
				emitters = append(emitters, emit.NewLogEmitter(cmd.ErrOrStderr(), cfg.Log.Format == "json"))
			}
			if cfg.Log.Tracing {
				a.otel = emit.NewOTelEmitter(otel.Tracer("graphvm"))
				emitters = append(emitters, a.otel)
			}
			if len(emitters) == 0 {
				a.emitter = emit.NewNullEmitter()
			} else {
				a.emitter = emitters
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.otel != nil {
				return a.otel.Flush(context.Background())
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine events to stderr")

	rootCmd.AddCommand(verifyCmd(a))
	rootCmd.AddCommand(snapshotCmd(a))
	rootCmd.AddCommand(diffCmd(a))
	rootCmd.AddCommand(captureCmd(a))
	rootCmd.AddCommand(proposalsCmd(a))
	rootCmd.AddCommand(suggestCmd(a))
	rootCmd.AddCommand(serveMetricsCmd(a))

	return rootCmd
}

// graphOptions are the engine options every command passes to graphs,
// validators and sandboxes it creates.
func (a *app) graphOptions(extra ...graph.Option) []graph.Option {
	opts := []graph.Option{graph.WithEmitter(a.emitter), graph.WithMetrics(a.metrics)}
	return append(opts, extra...)
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	ser, err := a.cfg.Serializer()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN, store.WithSerializer(ser))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	return st, nil
}

// loadSandbox restores every persisted proposal into a fresh sandbox. Ids
// of purged proposals stay reserved.
func (a *app) loadSandbox(ctx context.Context, st store.Store) (*graph.Sandbox, error) {
	proposals, err := st.LoadProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}
	lastID, err := st.LastProposalID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load proposals: %w", err)
	}
	sb := graph.NewSandbox(a.graphOptions()...)
	sb.Restore(proposals)
	sb.ReserveThrough(lastID)
	return sb, nil
}
