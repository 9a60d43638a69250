package rules

import "github.com/DavinciInspired/H2Ready-Kit/internal/category"

// DefaultVersion is the model version reported when a document omits one.
const DefaultVersion = "rules-v2-gated"

// #region config
// Config is the immutable rule configuration. It is built once by Parse or
// Load and then shared read-only by every evaluation; nothing in this module
// mutates a Config after load.
type Config struct {
	Version        string          `yaml:"version"`
	Weights        category.Scores `yaml:"weights"`
	Classification Classification  `yaml:"classification"`
	Gates          GateThresholds  `yaml:"gates"`

	Metallurgy          Metallurgy          `yaml:"M"`
	DesignOperations    DesignOperations    `yaml:"D"`
	Integrity           Integrity           `yaml:"I"`
	CoatingCP           CoatingCP           `yaml:"C"`
	Environment         Environment         `yaml:"E"`
	DataQuality         DataQuality         `yaml:"Q"`
	OperationalControls OperationalControls `yaml:"O"`

	// Source and Digest identify the document the config was loaded from.
	Source string `yaml:"-"`
	Digest string `yaml:"-"`
}

// WeightsCopy returns an independent copy of the category weights.
func (c *Config) WeightsCopy() category.Scores {
	return c.Weights.Clone()
}

// Classification controls readiness banding.
type Classification struct {
	// LegacyGaps reproduces the original inclusive band chain, where indices in
	// (40,41) and (69,70) fall through to "Fully Ready".
	LegacyGaps bool `yaml:"legacy_gaps"`
}

// GateThresholds overrides gate limits. Nil fields keep the gate defaults.
type GateThresholds struct {
	MetallurgyCap       *float64 `yaml:"metallurgy_cap"`
	FractureIndexCap    *float64 `yaml:"fracture_index_cap"`
	IntegrityFloor      *float64 `yaml:"integrity_floor"`
	IntegrityIndexCap   *float64 `yaml:"integrity_index_cap"`
	DataQualityFloor    *float64 `yaml:"data_quality_floor"`
	DataQualityIndexCap *float64 `yaml:"data_quality_index_cap"`
}

// #endregion config

// #region categories
type Metallurgy struct {
	Hardness ThresholdFamily   `yaml:"hardness"`
	YTRatio  ThresholdFamily   `yaml:"yt_ratio"`
	Seam     CategoricalFamily `yaml:"seam"`
}

type DesignOperations struct {
	StressRatio ThresholdFamily `yaml:"stress_ratio"`
	Cycling     CyclingFamily   `yaml:"cycling"`
	RangeOnly   ThresholdFamily `yaml:"range_only"`
	Surges      ThresholdFamily `yaml:"surges"`
	DPDT        ThresholdFamily `yaml:"dpdt"`
}

type Integrity struct {
	CrackDensity ThresholdFamily `yaml:"crack_density"`
	CrackLength  ThresholdFamily `yaml:"crack_len"`
	MetalLoss    ThresholdFamily `yaml:"metal_loss"`
	Backlog      Flag            `yaml:"backlog"`
}

type CoatingCP struct {
	CoatingType  CategoricalFamily `yaml:"coating_type"`
	CoatingAge   ThresholdFamily   `yaml:"coating_age"`
	DCVG         ThresholdFamily   `yaml:"dcvg"`
	Overprotect  ThresholdFamily   `yaml:"overprot"`
	PotentialFlr ThresholdFamily   `yaml:"pot_screen"`
}

type Environment struct {
	Resistivity ThresholdFamily   `yaml:"resistivity"`
	PH          SplitBand         `yaml:"ph"`
	MIC         CategoricalFamily `yaml:"mic"`
	Moisture    Flag              `yaml:"moisture"`
	Stray       CategoricalFamily `yaml:"stray"`
}

type DataQuality struct {
	ILICoverage ThresholdFamily `yaml:"ili"`
	CPSurveyAge ThresholdFamily `yaml:"cp_age"`
	SCADAUptime ThresholdFamily `yaml:"scada"`
	Missing     ThresholdFamily `yaml:"missing"`
}

// OperationalControls holds the five "penalize unless proven" checks.
type OperationalControls struct {
	NoPlan     Flag `yaml:"no_plan"`
	NoSensors  Flag `yaml:"no_sensors"`
	NoProc     Flag `yaml:"no_proc"`
	NoLeak     Flag `yaml:"no_leak"`
	NoTraining Flag `yaml:"no_training"`
}

// #endregion categories
