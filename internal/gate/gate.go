package gate

import (
	"fmt"
	"strconv"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

// #region gate
// Gate applies the post-aggregation caps in a fixed order. Later gates see
// the index as left by earlier ones.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate runs the fracture, integrity and data quality gates in order.
//
// The fracture gate lowers the reported Metallurgy score but does not
// recompute the index from it; the index is only capped. Callers must not
// expect the post-gate scores to reproduce the post-gate index.
func (g *Gate) Evaluate(in GateInput) GateDecision {
	d := GateDecision{Index: in.Index, Scores: in.Scores.Clone()}

	// 1. Fracture mechanics: K_I above K_TH
	if in.KI != nil && in.KTH != nil && *in.KI > *in.KTH {
		oldM := d.Scores[category.Metallurgy]
		newM := min(oldM, g.config.MetallurgyCap)
		d.Scores[category.Metallurgy] = newM
		before := d.Index
		if d.Index > g.config.FractureIndexCap {
			d.Index = g.config.FractureIndexCap
		}
		d.Triggers = append(d.Triggers, Trigger{
			Type: TriggerFracture,
			Message: fmt.Sprintf(
				"Gating: K_I = %s MPa√m exceeds K_TH = %s MPa√m. Metallurgy pillar reduced from %.2f to %.2f and HRI capped at %s.",
				num(*in.KI), num(*in.KTH), oldM, newM, num(g.config.FractureIndexCap)),
			IndexBefore: before,
			IndexAfter:  d.Index,
		})
	}

	// 2. Integrity floor
	if i := d.Scores[category.Integrity]; i < g.config.IntegrityFloor && d.Index > g.config.IntegrityIndexCap {
		before := d.Index
		d.Index = g.config.IntegrityIndexCap
		d.Triggers = append(d.Triggers, Trigger{
			Type: TriggerIntegrity,
			Message: fmt.Sprintf(
				"Gating: Integrity pillar I = %.2f < %.2f. HRI limited to %s until defects are remediated.",
				i, g.config.IntegrityFloor, num(g.config.IntegrityIndexCap)),
			IndexBefore: before,
			IndexAfter:  d.Index,
		})
	}

	// 3. Data quality floor
	if q := d.Scores[category.DataQuality]; q < g.config.DataQualityFloor && d.Index > g.config.DataQualityIndexCap {
		before := d.Index
		d.Index = g.config.DataQualityIndexCap
		d.Triggers = append(d.Triggers, Trigger{
			Type: TriggerDataQuality,
			Message: fmt.Sprintf(
				"Gating: Data Quality pillar Q = %.2f < %.2f. HRI limited to %s until data coverage improves.",
				q, g.config.DataQualityFloor, num(g.config.DataQualityIndexCap)),
			IndexBefore: before,
			IndexAfter:  d.Index,
		})
	}

	return d
}

// #endregion gate

// #region helpers
// num prints a value without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// #endregion helpers
