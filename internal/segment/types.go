package segment

// #region inputs
// Inputs is the evidence recorded for one pipeline segment. Every field is
// optional: nil means "no evidence", never zero.
type Inputs struct {
	// Metallurgy
	APIGrade      *string  `json:"api_grade,omitempty"`
	SMYSMPa       *float64 `json:"smys_mpa,omitempty"`
	YTRatio       *float64 `json:"yt_ratio,omitempty"`
	HardnessHAZHV *float64 `json:"hardness_haz_hv,omitempty"`
	SeamType      *string  `json:"seam_type,omitempty"`
	KIMPaSqrtM    *float64 `json:"ki_mpa_sqrtm,omitempty"`
	KTHMPaSqrtM   *float64 `json:"kth_mpa_sqrtm,omitempty"`

	// Design & operations
	StressRatio        *float64 `json:"stress_ratio,omitempty"`
	CyclesPerDay       *float64 `json:"cycles_per_day,omitempty"`
	CycleRangeBar      *float64 `json:"cycle_range_bar,omitempty"`
	SurgeEventsPerYear *float64 `json:"surge_events_per_year,omitempty"`
	DPDTP95BarPerS     *float64 `json:"dpdt_p95_bar_per_s,omitempty"`
	TempMinC           *float64 `json:"temp_min_c,omitempty"`
	TempMaxC           *float64 `json:"temp_max_c,omitempty"`

	// Integrity
	MaxMetalLossPct   *float64 `json:"max_metal_loss_pct,omitempty"`
	CrackDensityPerKM *float64 `json:"crack_density_per_km,omitempty"`
	MaxCrackLengthMM  *float64 `json:"max_crack_length_mm,omitempty"`
	RepairBacklogHigh *bool    `json:"repair_backlog_high,omitempty"`

	// Coating & cathodic protection
	CoatingType      *string  `json:"coating_type,omitempty"`
	CoatingAgeYears  *float64 `json:"coating_age_years,omitempty"`
	DCVGAnomalyPct   *float64 `json:"dcvg_anomaly_pct,omitempty"`
	CPPotentialAvgV  *float64 `json:"cp_potential_avg_v,omitempty"`
	CPOverprotectPct *float64 `json:"cp_overprotect_pct,omitempty"`

	// Environment
	SoilResistivityOhmCM *float64 `json:"soil_resistivity_ohm_cm,omitempty"`
	SoilPH               *float64 `json:"soil_ph,omitempty"`
	MICRisk              *string  `json:"mic_risk,omitempty"`
	MoistureHigh         *bool    `json:"moisture_high,omitempty"`
	StrayCurrentRisk     *string  `json:"stray_current_risk,omitempty"`

	// Data quality
	ILICoveragePct    *float64 `json:"ili_coverage_pct,omitempty"`
	CPSurveyAgeMonths *float64 `json:"cp_survey_age_months,omitempty"`
	SCADAUptimePct    *float64 `json:"scada_uptime_pct,omitempty"`
	MissingFieldsPct  *float64 `json:"missing_fields_pct,omitempty"`

	// Operational controls
	HasH2Plan                 *bool `json:"has_h2_plan,omitempty"`
	H2Sensors                 *bool `json:"h2_sensors,omitempty"`
	OperatingProcedureUpdated *bool `json:"operating_procedure_updated,omitempty"`
	LeakDetectionEnhanced     *bool `json:"leak_detection_enhanced,omitempty"`
	TrainingComplete          *bool `json:"training_complete,omitempty"`
}

// #endregion inputs

// #region constructors
// Float returns a pointer to v, for building Inputs literals.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// #endregion constructors
