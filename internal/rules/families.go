package rules

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region direction
// Direction states which side of an entry's bound counts as a match.
type Direction string

const (
	Descending Direction = "descending"  // value >= min; larger is worse
	Exceeds    Direction = "exceeds"     // value > min; larger is worse
	Ascending  Direction = "ascending"   // value < max; smaller is worse
	AtOrBelow  Direction = "at_or_below" // value <= max; smaller is worse
)

// usesMin reports whether entries of this direction are keyed by min.
func (d Direction) usesMin() bool {
	return d == Descending || d == Exceeds
}

// #endregion direction

// #region threshold
// Threshold is one {bound, penalty, label} entry of a threshold family.
type Threshold struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Penalty float64  `yaml:"pen"`
	Label   string   `yaml:"label"`
}

// ThresholdFamily is an ordered list of entries, most severe first.
type ThresholdFamily struct {
	Direction Direction   `yaml:"direction"`
	Entries   []Threshold `yaml:"entries"`
}

// Match returns the first entry whose bound admits v. The boolean is false
// when no entry matches.
func (f ThresholdFamily) Match(v float64) (Threshold, bool) {
	for _, e := range f.Entries {
		if f.admits(e, v) {
			return e, true
		}
	}
	return Threshold{}, false
}

func (f ThresholdFamily) admits(e Threshold, v float64) bool {
	switch f.Direction {
	case Descending:
		return e.Min != nil && v >= *e.Min
	case Exceeds:
		return e.Min != nil && v > *e.Min
	case Ascending:
		return e.Max != nil && v < *e.Max
	case AtOrBelow:
		return e.Max != nil && v <= *e.Max
	}
	return false
}

func (f ThresholdFamily) validate(path string) error {
	switch f.Direction {
	case Descending, Exceeds, Ascending, AtOrBelow:
	default:
		return fmt.Errorf("%s: unknown direction %q", path, f.Direction)
	}
	if len(f.Entries) == 0 {
		return fmt.Errorf("%s: no entries", path)
	}
	var prev float64
	for i, e := range f.Entries {
		bound := e.Max
		key := "max"
		if f.Direction.usesMin() {
			bound, key = e.Min, "min"
		}
		if bound == nil {
			return fmt.Errorf("%s.entries[%d]: %s direction requires %q", path, i, f.Direction, key)
		}
		if e.Penalty < 0 {
			return fmt.Errorf("%s.entries[%d]: negative penalty %v", path, i, e.Penalty)
		}
		if i > 0 {
			// most severe first: larger-is-worse bounds fall, smaller-is-worse bounds rise
			if f.Direction.usesMin() && *bound > prev {
				return fmt.Errorf("%s.entries[%d]: min %v after %v breaks most-severe-first order", path, i, *bound, prev)
			}
			if !f.Direction.usesMin() && *bound < prev {
				return fmt.Errorf("%s.entries[%d]: max %v after %v breaks most-severe-first order", path, i, *bound, prev)
			}
		}
		prev = *bound
	}
	return nil
}

// #endregion threshold

// #region cycling
// CycleEntry matches when both the daily cycle count and the cycle range reach
// their minimums.
type CycleEntry struct {
	CyclesMin float64 `yaml:"cycles_min"`
	RangeMin  float64 `yaml:"range_min"`
	Penalty   float64 `yaml:"pen"`
	Label     string  `yaml:"label"`
}

// CyclingFamily is a two-signal threshold family, most severe first.
type CyclingFamily []CycleEntry

// Match returns the first entry admitted by both signals.
func (f CyclingFamily) Match(cycles, rng float64) (CycleEntry, bool) {
	for _, e := range f {
		if cycles >= e.CyclesMin && rng >= e.RangeMin {
			return e, true
		}
	}
	return CycleEntry{}, false
}

func (f CyclingFamily) validate(path string) error {
	if len(f) == 0 {
		return fmt.Errorf("%s: no entries", path)
	}
	for i := 1; i < len(f); i++ {
		if f[i].CyclesMin > f[i-1].CyclesMin || f[i].RangeMin > f[i-1].RangeMin {
			return fmt.Errorf("%s[%d]: breaks most-severe-first order", path, i)
		}
	}
	return nil
}

// #endregion cycling

// #region categorical
// MatchMode selects how a categorical family compares input strings.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
)

// CategoricalEntry is one key of a categorical map. Key is normalized; Name
// is the key as written in the document.
type CategoricalEntry struct {
	Key     string
	Name    string
	Penalty float64
	Label   string
}

// CategoricalFamily maps normalized strings to penalties. Entries keep
// document order; in contains mode the first contained key wins.
type CategoricalFamily struct {
	Match   MatchMode
	Label   string
	Entries []CategoricalEntry
}

// UnmarshalYAML decodes the entries mapping in document order. Entry values
// are either a bare penalty or a {pen, label} mapping.
func (f *CategoricalFamily) UnmarshalYAML(value *yaml.Node) error {
	var shape struct {
		Match   MatchMode `yaml:"match"`
		Label   string    `yaml:"label"`
		Entries yaml.Node `yaml:"entries"`
	}
	if err := value.Decode(&shape); err != nil {
		return err
	}
	f.Match = shape.Match
	if f.Match == "" {
		f.Match = MatchExact
	}
	f.Label = shape.Label
	f.Entries = nil

	if shape.Entries.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: categorical entries must be a mapping", value.Line)
	}
	content := shape.Entries.Content
	for i := 0; i+1 < len(content); i += 2 {
		k, v := content[i], content[i+1]
		e := CategoricalEntry{Key: NormalizeKey(k.Value), Name: k.Value}
		switch v.Kind {
		case yaml.ScalarNode:
			if err := v.Decode(&e.Penalty); err != nil {
				return fmt.Errorf("line %d: entry %q: %w", v.Line, k.Value, err)
			}
		case yaml.MappingNode:
			var body struct {
				Penalty float64 `yaml:"pen"`
				Label   string  `yaml:"label"`
			}
			if err := v.Decode(&body); err != nil {
				return fmt.Errorf("line %d: entry %q: %w", v.Line, k.Value, err)
			}
			e.Penalty, e.Label = body.Penalty, body.Label
		default:
			return fmt.Errorf("line %d: entry %q must be a penalty or {pen, label}", v.Line, k.Value)
		}
		f.Entries = append(f.Entries, e)
	}
	return nil
}

// Lookup finds the entry for raw, or reports false for unknown values.
func (f CategoricalFamily) Lookup(raw string) (CategoricalEntry, bool) {
	key := NormalizeKey(raw)
	for _, e := range f.Entries {
		switch f.Match {
		case MatchContains:
			if strings.Contains(key, e.Key) {
				return e, true
			}
		default:
			if key == e.Key {
				return e, true
			}
		}
	}
	return CategoricalEntry{}, false
}

// Describe renders the driver label for an entry.
func (f CategoricalFamily) Describe(e CategoricalEntry) string {
	if e.Label != "" {
		return e.Label
	}
	if f.Label == "" {
		return e.Name
	}
	return strings.NewReplacer("{key}", e.Name, "{KEY}", strings.ToUpper(e.Name)).Replace(f.Label)
}

func (f CategoricalFamily) validate(path string) error {
	switch f.Match {
	case MatchExact, MatchContains:
	default:
		return fmt.Errorf("%s: unknown match mode %q", path, f.Match)
	}
	if len(f.Entries) == 0 {
		return fmt.Errorf("%s: no entries", path)
	}
	seen := make(map[string]bool, len(f.Entries))
	for _, e := range f.Entries {
		if e.Key == "" {
			return fmt.Errorf("%s: empty key", path)
		}
		if seen[e.Key] {
			return fmt.Errorf("%s: duplicate key %q after normalization", path, e.Key)
		}
		seen[e.Key] = true
		if e.Penalty < 0 {
			return fmt.Errorf("%s.%s: negative penalty %v", path, e.Name, e.Penalty)
		}
	}
	return nil
}

// #endregion categorical

// #region bands
// Band is a single-sided screen used by split-band rules.
type Band struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Penalty float64  `yaml:"pen"`
	Label   string   `yaml:"label"`
}

// SplitBand penalizes either tail of a range: the acidic band (value <= acid
// max) is checked first, then the alkaline band (value >= alk min).
type SplitBand struct {
	Acid Band `yaml:"acid"`
	Alk  Band `yaml:"alk"`
}

// Match returns the band that admits v.
func (b SplitBand) Match(v float64) (Band, bool) {
	if b.Acid.Max != nil && v <= *b.Acid.Max {
		return b.Acid, true
	}
	if b.Alk.Min != nil && v >= *b.Alk.Min {
		return b.Alk, true
	}
	return Band{}, false
}

func (b SplitBand) validate(path string) error {
	if b.Acid.Max == nil {
		return fmt.Errorf("%s.acid: requires \"max\"", path)
	}
	if b.Alk.Min == nil {
		return fmt.Errorf("%s.alk: requires \"min\"", path)
	}
	if *b.Acid.Max >= *b.Alk.Min {
		return fmt.Errorf("%s: acid max %v overlaps alkaline min %v", path, *b.Acid.Max, *b.Alk.Min)
	}
	return nil
}

// Flag is a flat penalty driven by a boolean input. Which value triggers it,
// and how absence is treated, is fixed by the evaluator for each rule.
type Flag struct {
	Penalty float64 `yaml:"pen"`
	Label   string  `yaml:"label"`
}

// #endregion bands
