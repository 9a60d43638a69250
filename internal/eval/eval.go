package eval

import (
	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/driver"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region harness
// evaluator scores one category from the inputs.
type evaluator func(cfg *rules.Config, s *scorer, in segment.Inputs)

var evaluators = map[category.Code]evaluator{
	category.Metallurgy:          evalMetallurgy,
	category.DesignOperations:    evalDesignOperations,
	category.Integrity:           evalIntegrity,
	category.CoatingCP:           evalCoatingCP,
	category.Environment:         evalEnvironment,
	category.DataQuality:         evalDataQuality,
	category.OperationalControls: evalOperationalControls,
}

// Harness runs the seven category evaluators against a shared rule config.
type Harness struct {
	cfg *rules.Config
}

// NewHarness creates a harness bound to cfg. cfg is read, never written.
func NewHarness(cfg *rules.Config) *Harness {
	return &Harness{cfg: cfg}
}

// Run evaluates every category. Results come back in category.Order.
func (h *Harness) Run(in segment.Inputs) []CategoryResult {
	out := make([]CategoryResult, 0, len(category.Order))
	for _, code := range category.Order {
		out = append(out, h.Category(code, in))
	}
	return out
}

// Category evaluates a single category.
func (h *Harness) Category(code category.Code, in segment.Inputs) CategoryResult {
	s := newScorer(code)
	if fn, ok := evaluators[code]; ok {
		fn(h.cfg, s, in)
	}
	return s.result()
}

// #endregion harness

// #region scorer
// scorer accumulates penalties for one category. It starts at 1.0 and
// clamps to [0,1] only when the result is taken.
type scorer struct {
	code      category.Code
	score     float64
	penalties []Penalty
	log       driver.Log
}

func newScorer(code category.Code) *scorer {
	return &scorer{code: code, score: 1.0}
}

// apply subtracts amount and records a driver. Zero amounts are no-ops.
func (s *scorer) apply(family string, amount float64, label string) {
	reason := string(s.code) + ": " + label
	if !s.log.Penalty(amount, reason) {
		return
	}
	s.score -= amount
	s.penalties = append(s.penalties, Penalty{Family: family, Amount: amount, Reason: reason})
}

func (s *scorer) threshold(family string, f rules.ThresholdFamily, v *float64) {
	if v == nil {
		return
	}
	if hit, ok := f.Match(*v); ok {
		s.apply(family, hit.Penalty, hit.Label)
	}
}

// categorical penalizes a known value. Absent, blank and unknown values are
// neutral.
func (s *scorer) categorical(family string, f rules.CategoricalFamily, v *string) {
	if v == nil {
		return
	}
	if e, ok := f.Lookup(*v); ok {
		s.apply(family, e.Penalty, f.Describe(e))
	}
}

func (s *scorer) flag(family string, f rules.Flag, v *bool, p FlagPolicy) {
	if p.fires(v) {
		s.apply(family, f.Penalty, f.Label)
	}
}

func (s *scorer) result() CategoryResult {
	return CategoryResult{
		Category:  s.code,
		Score:     clamp01(s.score),
		raw:       s.score,
		Penalties: s.penalties,
		Drivers:   s.log.Entries(),
	}
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}

// #endregion scorer
