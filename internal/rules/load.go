package rules

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 1e-6

// #region errors
// ConfigError reports a rule document that cannot be used. Path names the
// offending node when it is known.
type ConfigError struct {
	Source string
	Path   string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("rules")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// #endregion errors

// #region schema

//go:embed schema.json
var rulesSchema string

//go:embed penalties.yaml
var defaultDocument []byte

const rulesSchemaURL = "https://h2ready.schemas.local/rules/schema.json"

var compileRulesSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(rulesSchemaURL, strings.NewReader(rulesSchema)); err != nil {
		return nil, fmt.Errorf("load rules schema: %w", err)
	}
	return c.Compile(rulesSchemaURL)
})

// #endregion schema

// #region load
// Load reads and parses the rule document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	return Parse(data, path)
}

var defaultConfig = sync.OnceValues(func() (*Config, error) {
	return Parse(defaultDocument, "embedded:penalties.yaml")
})

// Default returns the reference rule table compiled into the binary.
func Default() (*Config, error) {
	return defaultConfig()
}

// LoadOrDefault loads path, or the embedded table when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// DefaultDocument returns a copy of the embedded reference document.
func DefaultDocument() []byte {
	return bytes.Clone(defaultDocument)
}

// Parse validates a YAML rule document and builds a Config from it. Any
// structural or semantic defect yields a *ConfigError.
func Parse(data []byte, source string) (*Config, error) {
	fail := func(path string, err error) (*Config, error) {
		return nil, &ConfigError{Source: source, Path: path, Err: err}
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fail("", fmt.Errorf("parse yaml: %w", err))
	}
	if raw == nil {
		return fail("", errors.New("empty document"))
	}
	doc, err := jsonCompatible(raw)
	if err != nil {
		return fail("", err)
	}

	sch, err := compileRulesSchema()
	if err != nil {
		return fail("", err)
	}
	if err := sch.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := deepestCause(ve)
			return fail(leaf.InstanceLocation, errors.New(leaf.Message))
		}
		return fail("", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fail("", fmt.Errorf("decode: %w", err))
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if err := cfg.validate(); err != nil {
		return fail("", err)
	}

	sum := sha256.Sum256(data)
	cfg.Digest = hex.EncodeToString(sum[:])
	cfg.Source = source
	return cfg, nil
}

// jsonCompatible converts a decoded YAML tree into the shape produced by
// encoding/json so the schema validator can walk it.
func jsonCompatible(v any) (any, error) {
	normalized, err := stringKeys(v)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return doc, nil
}

func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			c, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			c, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			c, err := stringKeys(child)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	return v, nil
}

func deepestCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// #endregion load

// #region validate
func (c *Config) validate() error {
	for _, code := range category.Order {
		w, ok := c.Weights[code]
		if !ok {
			return fmt.Errorf("weights: missing %s", code)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("weights.%s: invalid weight %v", code, w)
		}
	}
	for code := range c.Weights {
		if !code.Valid() {
			return fmt.Errorf("weights: unknown category %q", code)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1) > WeightTolerance {
		return fmt.Errorf("weights: sum %.6f, want 1.0", sum)
	}

	thresholds := []struct {
		path string
		fam  ThresholdFamily
	}{
		{"M.hardness", c.Metallurgy.Hardness},
		{"M.yt_ratio", c.Metallurgy.YTRatio},
		{"D.stress_ratio", c.DesignOperations.StressRatio},
		{"D.range_only", c.DesignOperations.RangeOnly},
		{"D.surges", c.DesignOperations.Surges},
		{"D.dpdt", c.DesignOperations.DPDT},
		{"I.crack_density", c.Integrity.CrackDensity},
		{"I.crack_len", c.Integrity.CrackLength},
		{"I.metal_loss", c.Integrity.MetalLoss},
		{"C.coating_age", c.CoatingCP.CoatingAge},
		{"C.dcvg", c.CoatingCP.DCVG},
		{"C.overprot", c.CoatingCP.Overprotect},
		{"C.pot_screen", c.CoatingCP.PotentialFlr},
		{"E.resistivity", c.Environment.Resistivity},
		{"Q.ili", c.DataQuality.ILICoverage},
		{"Q.cp_age", c.DataQuality.CPSurveyAge},
		{"Q.scada", c.DataQuality.SCADAUptime},
		{"Q.missing", c.DataQuality.Missing},
	}
	for _, t := range thresholds {
		if err := t.fam.validate(t.path); err != nil {
			return err
		}
	}

	categoricals := []struct {
		path string
		fam  CategoricalFamily
	}{
		{"M.seam", c.Metallurgy.Seam},
		{"C.coating_type", c.CoatingCP.CoatingType},
		{"E.mic", c.Environment.MIC},
		{"E.stray", c.Environment.Stray},
	}
	for _, cf := range categoricals {
		if err := cf.fam.validate(cf.path); err != nil {
			return err
		}
	}

	if err := c.DesignOperations.Cycling.validate("D.cycling"); err != nil {
		return err
	}
	return c.Environment.PH.validate("E.ph")
}

// #endregion validate
