package graph

import "github.com/dshills/graphvm/graph/emit"

// Option is a functional option shared by the graph, cache, sandbox and
// determinism validator constructors.
//
// Functional options keep the constructors small:
//   - Optional: zero configuration yields a working value
//   - Chainable: New[T, C](WithGraphID(7), WithEmitter(e), WithMetrics(m))
//   - Tolerant: an option a component does not use is ignored
//
// Example:
//
//	g := graph.New[anim.PortType, anim.Context](
//	    graph.WithGraphID(42),
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stderr, false)),
//	    graph.WithFanInPolicy(graph.FanInReject),
//	)
type Option func(*config)

// config collects options before they are applied to a component.
type config struct {
	graphID     uint64
	emitter     emit.Emitter
	metrics     *PrometheusMetrics
	fanIn       FanInPolicy
	strictTypes bool
}

func defaultConfig() config {
	return config{
		fanIn:       FanInLowestSource,
		strictTypes: true,
	}
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// FanInPolicy decides how Compile treats two or more distinct edges that
// target the same input port.
type FanInPolicy int

const (
	// FanInLowestSource keeps the edge with the lowest (FromNode, FromPort).
	// The winner depends only on edge contents, never on insertion order.
	FanInLowestSource FanInPolicy = iota

	// FanInReject makes Compile fail with CodeInputConflict.
	FanInReject
)

// WithGraphID tags emitted events and metrics with a graph identifier.
//
// Default: 0.
func WithGraphID(id uint64) Option {
	return func(cfg *config) {
		cfg.graphID = id
	}
}

// WithEmitter sets the observability event receiver.
//
// Default: nil (no events). Emitters never influence evaluation results.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *config) {
		cfg.emitter = e
	}
}

// WithMetrics attaches Prometheus metrics.
//
// Default: nil (no metrics).
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithFanInPolicy selects duplicate-input resolution.
//
// Default: FanInLowestSource.
func WithFanInPolicy(p FanInPolicy) Option {
	return func(cfg *config) {
		cfg.fanIn = p
	}
}

// WithStrictTypes toggles source/destination port type checking in Compile.
//
// Default: true. Domains whose pins are intentionally untyped (e.g. a
// generic UI layout graph) may disable it.
func WithStrictTypes(strict bool) Option {
	return func(cfg *config) {
		cfg.strictTypes = strict
	}
}
