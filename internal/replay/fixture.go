package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/gate"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string `json:"description"`
	Cases       []Case `json:"cases"`
}

// Case is one recorded evaluation and what it is expected to produce.
type Case struct {
	Name        string         `json:"name"`
	RulesDigest string         `json:"rules_digest,omitempty"`
	Inputs      segment.Inputs `json:"inputs"`
	Expected    Expectation    `json:"expected"`
}

// Expectation lists the checked parts of a result. Zero fields are not
// checked; Gates is checked whenever it is non-nil, so an empty list asserts
// that no gate fired.
type Expectation struct {
	HRI            *float64           `json:"hri,omitempty"`
	ReadinessClass string             `json:"readiness_class,omitempty"`
	Pillars        category.Scores    `json:"pillars,omitempty"`
	DriverContains []string           `json:"driver_contains,omitempty"`
	Gates          []gate.TriggerType `json:"gates"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. Unknown input names are
// rejected so a typo cannot silently drop evidence.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture renders f as indented JSON at path.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-loader
