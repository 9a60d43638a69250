package gate

import (
	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
)

// #region trigger-type
// TriggerType names a gate.
type TriggerType string

const (
	TriggerFracture    TriggerType = "fracture_mechanics"
	TriggerIntegrity   TriggerType = "integrity_floor"
	TriggerDataQuality TriggerType = "data_quality_floor"
)

// #endregion trigger-type

// #region trigger
// Trigger records one fired gate.
type Trigger struct {
	Type        TriggerType `json:"type"`
	Message     string      `json:"message"`
	IndexBefore float64     `json:"index_before"`
	IndexAfter  float64     `json:"index_after"`
}

// #endregion trigger

// #region gate-config
// GateConfig holds the caps and floors applied after aggregation.
type GateConfig struct {
	MetallurgyCap       float64 // fracture gate: Metallurgy score ceiling
	FractureIndexCap    float64 // fracture gate: index ceiling
	IntegrityFloor      float64 // integrity gate fires below this score
	IntegrityIndexCap   float64
	DataQualityFloor    float64 // data quality gate fires below this score
	DataQualityIndexCap float64
}

// DefaultGateConfig returns the reference gate limits.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MetallurgyCap:       0.30,
		FractureIndexCap:    40,
		IntegrityFloor:      0.30,
		IntegrityIndexCap:   40,
		DataQualityFloor:    0.40,
		DataQualityIndexCap: 50,
	}
}

// ConfigFromRules applies any gate overrides in the rule document to the
// defaults.
func ConfigFromRules(t rules.GateThresholds) GateConfig {
	c := DefaultGateConfig()
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.MetallurgyCap, t.MetallurgyCap)
	set(&c.FractureIndexCap, t.FractureIndexCap)
	set(&c.IntegrityFloor, t.IntegrityFloor)
	set(&c.IntegrityIndexCap, t.IntegrityIndexCap)
	set(&c.DataQualityFloor, t.DataQualityFloor)
	set(&c.DataQualityIndexCap, t.DataQualityIndexCap)
	return c
}

// #endregion gate-config

// #region gate-io
// GateInput is the aggregate state the gates inspect.
type GateInput struct {
	Index  float64         // rounded pre-gate index
	Scores category.Scores // category scores after clamping
	KI     *float64        // applied stress intensity, MPa√m
	KTH    *float64        // threshold toughness, MPa√m
}

// GateDecision is the post-gate state. Scores is a copy; the input map is
// never modified.
type GateDecision struct {
	Index    float64
	Scores   category.Scores
	Triggers []Trigger
}

// fired reports whether any gate triggered.
func (d GateDecision) fired() bool {
	return len(d.Triggers) > 0
}

// Messages returns the trigger messages in firing order.
func (d GateDecision) Messages() []string {
	out := make([]string, len(d.Triggers))
	for i, t := range d.Triggers {
		out[i] = t.Message
	}
	return out
}

// #endregion gate-io
