// Package aggregate combines category scores into the readiness index and
// maps the index onto a readiness class.
package aggregate

import (
	"math"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

// #region class
// Class is one of the four readiness labels.
type Class string

const (
	NotReady           Class = "Not Ready"
	ConditionallyReady Class = "Conditionally Ready"
	ReadyWithControls  Class = "Ready with Controls"
	FullyReady         Class = "Fully Ready"
)

// Classes lists every label from least to most ready.
var Classes = [...]Class{NotReady, ConditionallyReady, ReadyWithControls, FullyReady}

// #endregion class

// #region index
// WeightedIndex returns 100 × Σ weight×score over the seven categories,
// unrounded. Missing scores count as zero.
func WeightedIndex(scores, weights category.Scores) float64 {
	var sum float64
	for _, c := range category.Order {
		sum += weights[c] * scores[c]
	}
	return 100 * sum
}

// Round2 rounds to two decimals, half away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// #endregion index

// #region classify
// Classifier maps an index to a Class.
type Classifier struct {
	// LegacyGaps keeps the inclusive band chain where (40,41) and (69,70)
	// fall through to FullyReady.
	LegacyGaps bool
}

// Classify returns the class for a final index.
func (c Classifier) Classify(index float64) Class {
	if c.LegacyGaps {
		return legacyClass(index)
	}
	switch {
	case index < 41:
		return NotReady
	case index < 70:
		return ConditionallyReady
	case index <= 85:
		return ReadyWithControls
	default:
		return FullyReady
	}
}

func legacyClass(index float64) Class {
	if index <= 40 {
		return NotReady
	}
	if index >= 41 && index <= 69 {
		return ConditionallyReady
	}
	if index >= 70 && index <= 85 {
		return ReadyWithControls
	}
	return FullyReady
}

// #endregion classify

// #region aggregate
// Result is the pre-gate aggregate.
type Result struct {
	Raw   float64 // unrounded weighted index
	Index float64 // rounded to two decimals
	Class Class
}

// Aggregate computes the rounded index and its class.
func Aggregate(scores, weights category.Scores, c Classifier) Result {
	raw := WeightedIndex(scores, weights)
	idx := Round2(raw)
	return Result{Raw: raw, Index: idx, Class: c.Classify(idx)}
}

// #endregion aggregate
