// Package engine runs one readiness evaluation end to end: category
// evaluators, aggregation, gates, classification.
package engine

import (
	"context"
	"sync"

	"github.com/DavinciInspired/H2Ready-Kit/internal/aggregate"
	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/driver"
	"github.com/DavinciInspired/H2Ready-Kit/internal/eval"
	"github.com/DavinciInspired/H2Ready-Kit/internal/gate"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region result
// Result is the outcome of one evaluation.
//
// When the fracture gate fires, Pillars["M"] holds the capped Metallurgy
// score while HRI was capped from the index computed before that cap. The
// two are not re-derivable from each other.
type Result struct {
	ModelVersion   string          `json:"model_version"`
	RulesDigest    string          `json:"rules_digest,omitempty"`
	HRI            float64         `json:"hri"`
	PreGateHRI     float64         `json:"pre_gate_hri"`
	ReadinessClass aggregate.Class `json:"readiness_class"`
	Pillars        category.Scores `json:"pillars"`
	Weights        category.Scores `json:"weights"`
	Drivers        []string        `json:"drivers"`
	Gates          []gate.Trigger  `json:"gates,omitempty"`
}

// StoredDrivers returns the driver prefix kept for persistence.
func (r Result) StoredDrivers() []string {
	return driver.Stored(r.Drivers)
}

// ReturnedDrivers returns the driver prefix handed back to callers.
func (r Result) ReturnedDrivers() []string {
	return driver.Returned(r.Drivers)
}

// ForCaller returns a copy with drivers truncated for external responses.
func (r Result) ForCaller() Result {
	out := r
	out.Pillars = r.Pillars.Clone()
	out.Weights = r.Weights.Clone()
	out.Drivers = r.ReturnedDrivers()
	out.Gates = append([]gate.Trigger(nil), r.Gates...)
	return out
}

// GateFired reports whether the given gate triggered.
func (r Result) GateFired(t gate.TriggerType) bool {
	for _, g := range r.Gates {
		if g.Type == t {
			return true
		}
	}
	return false
}

// #endregion result

// #region engine
// Engine evaluates inputs against one immutable rule config. It is safe for
// concurrent use.
type Engine struct {
	cfg        *rules.Config
	harness    *eval.Harness
	gate       *gate.Gate
	classifier aggregate.Classifier
}

// New builds an engine from a loaded rule config.
func New(cfg *rules.Config) *Engine {
	return &Engine{
		cfg:        cfg,
		harness:    eval.NewHarness(cfg),
		gate:       gate.NewGate(gate.ConfigFromRules(cfg.Gates)),
		classifier: aggregate.Classifier{LegacyGaps: cfg.Classification.LegacyGaps},
	}
}

// Rules returns the config the engine was built from.
func (e *Engine) Rules() *rules.Config {
	return e.cfg
}

// Evaluate scores one input record. It is pure and deterministic.
func (e *Engine) Evaluate(in segment.Inputs) Result {
	var log driver.Log
	pillars := make(category.Scores, len(category.Order))
	for _, cr := range e.harness.Run(in) {
		pillars[cr.Category] = cr.Score
		for _, d := range cr.Drivers {
			log.Note(d)
		}
	}

	weights := e.cfg.WeightsCopy()
	agg := aggregate.Aggregate(pillars, weights, e.classifier)

	decision := e.gate.Evaluate(gate.GateInput{
		Index:  agg.Index,
		Scores: pillars,
		KI:     in.KIMPaSqrtM,
		KTH:    in.KTHMPaSqrtM,
	})
	for _, msg := range decision.Messages() {
		log.Note(msg)
	}

	return Result{
		ModelVersion:   e.cfg.Version,
		RulesDigest:    e.cfg.Digest,
		HRI:            decision.Index,
		PreGateHRI:     agg.Index,
		ReadinessClass: e.classifier.Classify(decision.Index),
		Pillars:        decision.Scores,
		Weights:        weights,
		Drivers:        log.Entries(),
		Gates:          decision.Triggers,
	}
}

// #endregion engine

// #region batch
// EvaluateBatch scores items across at most workers goroutines. Results keep
// input order. Once ctx is done no further items are started and ctx's error
// is returned along with whatever finished.
func (e *Engine) EvaluateBatch(ctx context.Context, items []segment.Inputs, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, max(len(items), 1))

	out := make([]Result, len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.Evaluate(items[i])
			}
		}()
	}

	var err error
schedule:
	for i := range items {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break schedule
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return out, err
}

// #endregion batch
