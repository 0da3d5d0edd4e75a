package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dshills/graphvm/graph"
)

func serveMetricsCmd(a *app) *cobra.Command {
	var addr string
	var interval time.Duration
	var seed uint64

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve Prometheus metrics while re-running determinism checks",
		Long: `Starts an HTTP server exposing /metrics. Every --interval the built-in
producers are re-verified with an incrementing seed so the
graphvm_determinism_checks_total counters stay live.

Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "serving metrics on http://%s/metrics\n", addr)

			v := graph.NewDeterminismValidator(a.graphOptions()...)
			for _, p := range producers {
				v.Register(p.name, p.producer)
			}
			v.RunAll(seed)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					seed++
					v.RunAll(seed)
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: GRAPHVM_METRICS_ADDR)")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "time between verification rounds")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "first verification seed")

	return cmd
}
