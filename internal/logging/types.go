package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table: what was
// scored, under which rules, and what came out.
type ProvenanceEntry struct {
	ID             int64
	ScoreID        string
	SegmentID      string // empty for stateless evaluations
	InputsJSON     string
	RulesDigest    string
	ModelVersion   string
	GatesJSON      string
	HRI            float64
	ReadinessClass string
	CreatedAt      time.Time
}

// #endregion provenance-entry
