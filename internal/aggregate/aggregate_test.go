package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

var weights = category.Scores{"M": .20, "D": .15, "I": .20, "C": .15, "E": .10, "Q": .10, "O": .10}

func allScores(v float64) category.Scores {
	s := category.Scores{}
	for _, c := range category.Order {
		s[c] = v
	}
	return s
}

func TestWeightedIndex(t *testing.T) {
	assert.InDelta(t, 100, WeightedIndex(allScores(1), weights), 1e-9)
	assert.InDelta(t, 0, WeightedIndex(allScores(0), weights), 1e-9)

	s := allScores(1)
	s["O"] = 0.45
	assert.InDelta(t, 94.5, WeightedIndex(s, weights), 1e-9)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 94.5, Round2(94.5))
	assert.Equal(t, 12.35, Round2(12.345000001))
	assert.Equal(t, -1.24, Round2(-1.2351))
	assert.Equal(t, 0.01, Round2(0.005))
}

func TestClassifyPartition(t *testing.T) {
	c := Classifier{}
	cases := map[float64]Class{
		0: NotReady, 40: NotReady, 40.5: NotReady, 40.99: NotReady,
		41: ConditionallyReady, 69.5: ConditionallyReady, 69.99: ConditionallyReady,
		70: ReadyWithControls, 85: ReadyWithControls,
		85.01: FullyReady, 100: FullyReady,
	}
	for idx, want := range cases {
		assert.Equal(t, want, c.Classify(idx), "index %v", idx)
	}
}

func TestClassifyLegacyGaps(t *testing.T) {
	c := Classifier{LegacyGaps: true}
	assert.Equal(t, NotReady, c.Classify(40))
	assert.Equal(t, FullyReady, c.Classify(40.5))
	assert.Equal(t, ConditionallyReady, c.Classify(41))
	assert.Equal(t, FullyReady, c.Classify(69.5))
	assert.Equal(t, ReadyWithControls, c.Classify(70))
	assert.Equal(t, FullyReady, c.Classify(86))
}

func TestAggregate(t *testing.T) {
	s := allScores(1)
	s["O"] = 0.45
	r := Aggregate(s, weights, Classifier{})
	assert.Equal(t, 94.5, r.Index)
	assert.Equal(t, FullyReady, r.Class)
}
