package category

// #region code
// Code is the single-letter key of a scoring category (pillar).
type Code string

const (
	Metallurgy          Code = "M"
	DesignOperations    Code = "D"
	Integrity           Code = "I"
	CoatingCP           Code = "C"
	Environment         Code = "E"
	DataQuality         Code = "Q"
	OperationalControls Code = "O"
)

// Order is the fixed evaluation and driver order.
var Order = [...]Code{
	Metallurgy,
	DesignOperations,
	Integrity,
	CoatingCP,
	Environment,
	DataQuality,
	OperationalControls,
}

var names = map[Code]string{
	Metallurgy:          "Metallurgy",
	DesignOperations:    "Design/Operations",
	Integrity:           "Integrity",
	CoatingCP:           "Coating/Cathodic-Protection",
	Environment:         "Environment",
	DataQuality:         "Data Quality",
	OperationalControls: "Operational Controls",
}

// Name returns the human-readable category name.
func (c Code) Name() string {
	if n, ok := names[c]; ok {
		return n
	}
	return string(c)
}

// Valid reports whether c is one of the seven category codes.
func (c Code) Valid() bool {
	_, ok := names[c]
	return ok
}

// #endregion code

// #region scores
// Scores maps each category to a value (a pillar score or a weight).
type Scores map[Code]float64

// Clone returns an independent copy.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Sum adds the values of all seven categories in fixed order.
func (s Scores) Sum() float64 {
	var total float64
	for _, c := range Order {
		total += s[c]
	}
	return total
}

// #endregion scores
