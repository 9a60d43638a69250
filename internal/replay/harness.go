package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/gate"
	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
)

// #region types
// ReplayConfig tunes result comparison.
type ReplayConfig struct {
	HRITolerance    float64
	PillarTolerance float64
}

// DefaultReplayConfig compares indices to the reported two decimals.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		HRITolerance:    0.005,
		PillarTolerance: 1e-9,
	}
}

// CaseResult captures the outcome of replaying one case.
type CaseResult struct {
	Name       string
	Passed     bool
	Mismatches []string

	// DigestChanged is set when the case was recorded under different rules.
	DigestChanged bool

	Result engine.Result
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total         int
	Passed        int
	Failed        int
	DigestChanged int
	Failures      []string
}

// #endregion types

// #region replay
// Replay evaluates every case against e and compares the outcome with the
// case expectation.
func Replay(e *engine.Engine, cases []Case, config ReplayConfig) []CaseResult {
	digest := e.Rules().Digest
	results := make([]CaseResult, 0, len(cases))

	for _, c := range cases {
		r := e.Evaluate(c.Inputs)
		m := compare(c.Expected, r, config)
		results = append(results, CaseResult{
			Name:          c.Name,
			Passed:        len(m) == 0,
			Mismatches:    m,
			DigestChanged: c.RulesDigest != "" && c.RulesDigest != digest,
			Result:        r,
		})
	}
	return results
}

func compare(want Expectation, got engine.Result, config ReplayConfig) []string {
	var m []string
	if want.HRI != nil && math.Abs(*want.HRI-got.HRI) > config.HRITolerance {
		m = append(m, fmt.Sprintf("hri: want %.2f, got %.2f", *want.HRI, got.HRI))
	}
	if want.ReadinessClass != "" && want.ReadinessClass != string(got.ReadinessClass) {
		m = append(m, fmt.Sprintf("readiness_class: want %q, got %q", want.ReadinessClass, got.ReadinessClass))
	}
	for _, code := range category.Order {
		v, ok := want.Pillars[code]
		if !ok {
			continue
		}
		if g := got.Pillars[code]; math.Abs(v-g) > config.PillarTolerance {
			m = append(m, fmt.Sprintf("pillar %s: want %.4f, got %.4f", code, v, g))
		}
	}
	var unknown []category.Code
	for code := range want.Pillars {
		if !code.Valid() {
			unknown = append(unknown, code)
		}
	}
	slices.Sort(unknown)
	for _, code := range unknown {
		m = append(m, fmt.Sprintf("pillar %s: unknown category", code))
	}
	for _, sub := range want.DriverContains {
		if !containsDriver(got.Drivers, sub) {
			m = append(m, fmt.Sprintf("driver %q not found", sub))
		}
	}
	if want.Gates != nil {
		var fired []gate.TriggerType
		for _, t := range got.Gates {
			fired = append(fired, t.Type)
		}
		if !sameGates(want.Gates, fired) {
			m = append(m, fmt.Sprintf("gates: want %v, got %v", want.Gates, fired))
		}
	}
	return m
}

func containsDriver(drivers []string, sub string) bool {
	for _, d := range drivers {
		if strings.Contains(d, sub) {
			return true
		}
	}
	return false
}

func sameGates(a, b []gate.TriggerType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FromProvenance turns recorded provenance rows into cases whose expectation
// is the recorded outcome. Replaying them detects rule drift.
func FromProvenance(entries []logging.ProvenanceEntry) ([]Case, error) {
	cases := make([]Case, 0, len(entries))
	for _, e := range entries {
		in, err := e.Inputs()
		if err != nil {
			return nil, fmt.Errorf("provenance %d: %w", e.ID, err)
		}
		gates := []gate.TriggerType{}
		if e.GatesJSON != "" {
			var triggers []gate.Trigger
			if err := json.Unmarshal([]byte(e.GatesJSON), &triggers); err != nil {
				return nil, fmt.Errorf("provenance %d gates: %w", e.ID, err)
			}
			for _, t := range triggers {
				gates = append(gates, t.Type)
			}
		}
		hri := e.HRI
		name := e.ScoreID
		if e.SegmentID != "" {
			name = e.SegmentID + "/" + e.ScoreID
		}
		cases = append(cases, Case{
			Name:        name,
			RulesDigest: e.RulesDigest,
			Inputs:      in,
			Expected: Expectation{
				HRI:            &hri,
				ReadinessClass: e.ReadinessClass,
				Gates:          gates,
			},
		})
	}
	return cases, nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
			s.Failures = append(s.Failures, r.Name+": "+strings.Join(r.Mismatches, "; "))
		}
		if r.DigestChanged {
			s.DigestChanged++
		}
	}
	return s
}

// #endregion replay
