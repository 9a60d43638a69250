package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

// #region kinds
// Kind is the scalar type of an input field.
type Kind string

const (
	KindReal   Kind = "real"
	KindString Kind = "string"
	KindBool   Kind = "bool"
)

// #endregion kinds

// #region catalog
// Field describes one input column.
type Field struct {
	Name     string
	Kind     Kind
	Category category.Code

	real func(*Inputs) **float64
	str  func(*Inputs) **string
	flag func(*Inputs) **bool
}

func realField(name string, c category.Code, f func(*Inputs) **float64) Field {
	return Field{Name: name, Kind: KindReal, Category: c, real: f}
}

func stringField(name string, c category.Code, f func(*Inputs) **string) Field {
	return Field{Name: name, Kind: KindString, Category: c, str: f}
}

func boolField(name string, c category.Code, f func(*Inputs) **bool) Field {
	return Field{Name: name, Kind: KindBool, Category: c, flag: f}
}

var catalog = []Field{
	stringField("api_grade", category.Metallurgy, func(in *Inputs) **string { return &in.APIGrade }),
	realField("smys_mpa", category.Metallurgy, func(in *Inputs) **float64 { return &in.SMYSMPa }),
	realField("yt_ratio", category.Metallurgy, func(in *Inputs) **float64 { return &in.YTRatio }),
	realField("hardness_haz_hv", category.Metallurgy, func(in *Inputs) **float64 { return &in.HardnessHAZHV }),
	stringField("seam_type", category.Metallurgy, func(in *Inputs) **string { return &in.SeamType }),
	realField("ki_mpa_sqrtm", category.Metallurgy, func(in *Inputs) **float64 { return &in.KIMPaSqrtM }),
	realField("kth_mpa_sqrtm", category.Metallurgy, func(in *Inputs) **float64 { return &in.KTHMPaSqrtM }),

	realField("stress_ratio", category.DesignOperations, func(in *Inputs) **float64 { return &in.StressRatio }),
	realField("cycles_per_day", category.DesignOperations, func(in *Inputs) **float64 { return &in.CyclesPerDay }),
	realField("cycle_range_bar", category.DesignOperations, func(in *Inputs) **float64 { return &in.CycleRangeBar }),
	realField("surge_events_per_year", category.DesignOperations, func(in *Inputs) **float64 { return &in.SurgeEventsPerYear }),
	realField("dpdt_p95_bar_per_s", category.DesignOperations, func(in *Inputs) **float64 { return &in.DPDTP95BarPerS }),
	realField("temp_min_c", category.DesignOperations, func(in *Inputs) **float64 { return &in.TempMinC }),
	realField("temp_max_c", category.DesignOperations, func(in *Inputs) **float64 { return &in.TempMaxC }),

	realField("max_metal_loss_pct", category.Integrity, func(in *Inputs) **float64 { return &in.MaxMetalLossPct }),
	realField("crack_density_per_km", category.Integrity, func(in *Inputs) **float64 { return &in.CrackDensityPerKM }),
	realField("max_crack_length_mm", category.Integrity, func(in *Inputs) **float64 { return &in.MaxCrackLengthMM }),
	boolField("repair_backlog_high", category.Integrity, func(in *Inputs) **bool { return &in.RepairBacklogHigh }),

	stringField("coating_type", category.CoatingCP, func(in *Inputs) **string { return &in.CoatingType }),
	realField("coating_age_years", category.CoatingCP, func(in *Inputs) **float64 { return &in.CoatingAgeYears }),
	realField("dcvg_anomaly_pct", category.CoatingCP, func(in *Inputs) **float64 { return &in.DCVGAnomalyPct }),
	realField("cp_potential_avg_v", category.CoatingCP, func(in *Inputs) **float64 { return &in.CPPotentialAvgV }),
	realField("cp_overprotect_pct", category.CoatingCP, func(in *Inputs) **float64 { return &in.CPOverprotectPct }),

	realField("soil_resistivity_ohm_cm", category.Environment, func(in *Inputs) **float64 { return &in.SoilResistivityOhmCM }),
	realField("soil_ph", category.Environment, func(in *Inputs) **float64 { return &in.SoilPH }),
	stringField("mic_risk", category.Environment, func(in *Inputs) **string { return &in.MICRisk }),
	boolField("moisture_high", category.Environment, func(in *Inputs) **bool { return &in.MoistureHigh }),
	stringField("stray_current_risk", category.Environment, func(in *Inputs) **string { return &in.StrayCurrentRisk }),

	realField("ili_coverage_pct", category.DataQuality, func(in *Inputs) **float64 { return &in.ILICoveragePct }),
	realField("cp_survey_age_months", category.DataQuality, func(in *Inputs) **float64 { return &in.CPSurveyAgeMonths }),
	realField("scada_uptime_pct", category.DataQuality, func(in *Inputs) **float64 { return &in.SCADAUptimePct }),
	realField("missing_fields_pct", category.DataQuality, func(in *Inputs) **float64 { return &in.MissingFieldsPct }),

	boolField("has_h2_plan", category.OperationalControls, func(in *Inputs) **bool { return &in.HasH2Plan }),
	boolField("h2_sensors", category.OperationalControls, func(in *Inputs) **bool { return &in.H2Sensors }),
	boolField("operating_procedure_updated", category.OperationalControls, func(in *Inputs) **bool { return &in.OperatingProcedureUpdated }),
	boolField("leak_detection_enhanced", category.OperationalControls, func(in *Inputs) **bool { return &in.LeakDetectionEnhanced }),
	boolField("training_complete", category.OperationalControls, func(in *Inputs) **bool { return &in.TrainingComplete }),
}

var byName = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, f := range catalog {
		m[f.Name] = i
	}
	return m
}()

// Fields returns the catalog of input fields in declaration order.
func Fields() []Field {
	out := make([]Field, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the field with the given wire name.
func Lookup(name string) (Field, bool) {
	i, ok := byName[name]
	if !ok {
		return Field{}, false
	}
	return catalog[i], true
}

// #endregion catalog

// #region access
// Present reports whether the field carries evidence in in.
func (f Field) Present(in *Inputs) bool {
	switch f.Kind {
	case KindReal:
		return *f.real(in) != nil
	case KindString:
		return *f.str(in) != nil
	case KindBool:
		return *f.flag(in) != nil
	}
	return false
}

// Clear removes any evidence for the field.
func (f Field) Clear(in *Inputs) {
	switch f.Kind {
	case KindReal:
		*f.real(in) = nil
	case KindString:
		*f.str(in) = nil
	case KindBool:
		*f.flag(in) = nil
	}
}

// Set parses raw according to the field kind and stores it. An empty raw
// value clears the field.
func (f Field) Set(in *Inputs, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.Clear(in)
		return nil
	}
	switch f.Kind {
	case KindReal:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("field %s: parse real %q: %w", f.Name, raw, err)
		}
		*f.real(in) = &v
	case KindString:
		v := raw
		*f.str(in) = &v
	case KindBool:
		v, err := parseBool(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		*f.flag(in) = &v
	}
	return nil
}

// Merge copies every field present in src onto dst.
func Merge(dst *Inputs, src Inputs) {
	for _, f := range catalog {
		if !f.Present(&src) {
			continue
		}
		switch f.Kind {
		case KindReal:
			v := **f.real(&src)
			*f.real(dst) = &v
		case KindString:
			v := **f.str(&src)
			*f.str(dst) = &v
		case KindBool:
			v := **f.flag(&src)
			*f.flag(dst) = &v
		}
	}
}

// CountPresent returns how many fields carry evidence.
func CountPresent(in Inputs) int {
	n := 0
	for _, f := range catalog {
		if f.Present(&in) {
			n++
		}
	}
	return n
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "t", "true", "y", "yes":
		return true, nil
	case "0", "f", "false", "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("parse bool %q", raw)
}

// #endregion access
