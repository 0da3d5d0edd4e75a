package graph

import (
	"fmt"
	"sync"

	"github.com/dshills/graphvm/graph/emit"
)

// Producer builds a snapshot from a seed. A deterministic producer returns
// the same snapshot every time it is called with the same seed.
type Producer func(seed uint64) Snapshot

// DeterminismResult reports one validator run. A failed run is a value, not
// an error; what to do about it (fail a CI job, log, ignore) is the caller's
// decision.
type DeterminismResult struct {
	Name    string `json:"name"`
	Seed    uint64 `json:"seed"`
	Passed  bool   `json:"passed"`
	HashA   uint64 `json:"hashA"`
	HashB   uint64 `json:"hashB"`
	Message string `json:"message,omitempty"`
}

// DeterminismValidator is a registry of named producers that can be
// re-run to prove they are deterministic.
//
// The registry is safe for concurrent use. Producers run outside the lock.
type DeterminismValidator struct {
	mu        sync.Mutex
	names     []string
	producers map[string]Producer
	cfg       config
}

// NewDeterminismValidator creates an empty registry. WithEmitter and
// WithMetrics are honored.
func NewDeterminismValidator(opts ...Option) *DeterminismValidator {
	return &DeterminismValidator{
		producers: make(map[string]Producer),
		cfg:       buildConfig(opts),
	}
}

// Register adds a producer under name. Re-registering a name replaces the
// producer but keeps its original position. A nil producer is ignored.
func (v *DeterminismValidator) Register(name string, p Producer) {
	if p == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.producers[name]; !exists {
		v.names = append(v.names, name)
	}
	v.producers[name] = p
}

// Names returns the registered names in registration order.
func (v *DeterminismValidator) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// RunOne invokes the named producer twice with seed and compares the
// snapshot hashes. An unknown name yields a failed result whose message
// says the producer was not found.
func (v *DeterminismValidator) RunOne(name string, seed uint64) DeterminismResult {
	v.mu.Lock()
	p, ok := v.producers[name]
	v.mu.Unlock()

	res := DeterminismResult{Name: name, Seed: seed}
	if !ok {
		res.Message = fmt.Sprintf("producer %q not found", name)
		v.report(res)
		return res
	}

	res.HashA = HashSnapshot(p(seed))
	res.HashB = HashSnapshot(p(seed))
	res.Passed = res.HashA == res.HashB
	if !res.Passed {
		res.Message = fmt.Sprintf("hash mismatch: %016x != %016x", res.HashA, res.HashB)
	}
	v.report(res)
	return res
}

// RunAll runs every registered producer with seed, in registration order.
func (v *DeterminismValidator) RunAll(seed uint64) []DeterminismResult {
	names := v.Names()
	results := make([]DeterminismResult, 0, len(names))
	for _, name := range names {
		results = append(results, v.RunOne(name, seed))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []DeterminismResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (v *DeterminismValidator) report(res DeterminismResult) {
	v.cfg.metrics.RecordDeterminismCheck(res.Passed)
	if v.cfg.emitter == nil {
		return
	}
	msg := "determinism_passed"
	meta := map[string]interface{}{
		"name":   res.Name,
		"seed":   res.Seed,
		"hash_a": res.HashA,
		"hash_b": res.HashB,
	}
	if !res.Passed {
		msg = "determinism_failed"
		meta["error"] = res.Message
	}
	v.cfg.emitter.Emit(emit.Event{GraphID: v.cfg.graphID, Msg: msg, Meta: meta})
}
