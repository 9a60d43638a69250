package eval

import "github.com/DavinciInspired/H2Ready-Kit/internal/category"

// #region flag-policy
// FlagPolicy decides when a boolean input triggers its flag penalty.
type FlagPolicy struct {
	PenalizeWhen   bool // value that triggers the penalty when present
	PenalizeAbsent bool // whether a missing value also triggers it
}

var (
	// PenalizeTrue fires on a present true value; absence is neutral.
	PenalizeTrue = FlagPolicy{PenalizeWhen: true}
	// RequireTrue fires unless the value is present and true.
	RequireTrue = FlagPolicy{PenalizeWhen: false, PenalizeAbsent: true}
)

func (p FlagPolicy) fires(v *bool) bool {
	if v == nil {
		return p.PenalizeAbsent
	}
	return *v == p.PenalizeWhen
}

// #endregion flag-policy

// #region penalty
// Penalty is one applied rule: the family that matched, the amount
// subtracted, and the reason shown to callers.
type Penalty struct {
	Family string
	Amount float64
	Reason string
}

// #endregion penalty

// #region category-result
// CategoryResult is the outcome of one category evaluator. Score is the
// clamped category score; raw is 1.0 minus the summed penalties before
// clamping.
type CategoryResult struct {
	Category  category.Code
	Score     float64
	raw       float64
	Penalties []Penalty
	Drivers   []string
}

// total returns the summed penalty amount.
func (r CategoryResult) total() float64 {
	var t float64
	for _, p := range r.Penalties {
		t += p.Amount
	}
	return t
}

// #endregion category-result
