package eval

import (
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region metallurgy
func evalMetallurgy(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.Metallurgy
	s.threshold("hardness", r.Hardness, in.HardnessHAZHV)
	s.threshold("yt_ratio", r.YTRatio, in.YTRatio)
	s.categorical("seam", r.Seam, in.SeamType)
}

// #endregion metallurgy

// #region design-operations
func evalDesignOperations(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.DesignOperations
	s.threshold("stress_ratio", r.StressRatio, in.StressRatio)

	// cycling needs both signals; a lone range falls back to the range table
	switch {
	case in.CyclesPerDay != nil && in.CycleRangeBar != nil:
		if hit, ok := r.Cycling.Match(*in.CyclesPerDay, *in.CycleRangeBar); ok {
			s.apply("cycling", hit.Penalty, hit.Label)
		}
	case in.CycleRangeBar != nil:
		s.threshold("range_only", r.RangeOnly, in.CycleRangeBar)
	}

	s.threshold("surges", r.Surges, in.SurgeEventsPerYear)
	s.threshold("dpdt", r.DPDT, in.DPDTP95BarPerS)
}

// #endregion design-operations

// #region integrity
func evalIntegrity(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.Integrity
	s.threshold("crack_density", r.CrackDensity, in.CrackDensityPerKM)
	s.threshold("crack_len", r.CrackLength, in.MaxCrackLengthMM)
	s.threshold("metal_loss", r.MetalLoss, in.MaxMetalLossPct)
	s.flag("backlog", r.Backlog, in.RepairBacklogHigh, PenalizeTrue)
}

// #endregion integrity

// #region coating-cp
func evalCoatingCP(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.CoatingCP
	s.categorical("coating_type", r.CoatingType, in.CoatingType)
	s.threshold("coating_age", r.CoatingAge, in.CoatingAgeYears)
	s.threshold("dcvg", r.DCVG, in.DCVGAnomalyPct)
	s.threshold("overprot", r.Overprotect, in.CPOverprotectPct)
	s.threshold("pot_screen", r.PotentialFlr, in.CPPotentialAvgV)
}

// #endregion coating-cp

// #region environment
func evalEnvironment(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.Environment
	s.threshold("resistivity", r.Resistivity, in.SoilResistivityOhmCM)
	if in.SoilPH != nil {
		if band, ok := r.PH.Match(*in.SoilPH); ok {
			s.apply("ph", band.Penalty, band.Label)
		}
	}
	s.categorical("mic", r.MIC, in.MICRisk)
	s.flag("moisture", r.Moisture, in.MoistureHigh, PenalizeTrue)
	s.categorical("stray", r.Stray, in.StrayCurrentRisk)
}

// #endregion environment

// #region data-quality
func evalDataQuality(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.DataQuality
	s.threshold("ili", r.ILICoverage, in.ILICoveragePct)
	s.threshold("cp_age", r.CPSurveyAge, in.CPSurveyAgeMonths)
	s.threshold("scada", r.SCADAUptime, in.SCADAUptimePct)
	s.threshold("missing", r.Missing, in.MissingFieldsPct)
}

// #endregion data-quality

// #region operational-controls
// Each control is penalized unless it is affirmatively confirmed.
func evalOperationalControls(cfg *rules.Config, s *scorer, in segment.Inputs) {
	r := cfg.OperationalControls
	s.flag("no_plan", r.NoPlan, in.HasH2Plan, RequireTrue)
	s.flag("no_sensors", r.NoSensors, in.H2Sensors, RequireTrue)
	s.flag("no_proc", r.NoProc, in.OperatingProcedureUpdated, RequireTrue)
	s.flag("no_leak", r.NoLeak, in.LeakDetectionEnhanced, RequireTrue)
	s.flag("no_training", r.NoTraining, in.TrainingComplete, RequireTrue)
}

// #endregion operational-controls
