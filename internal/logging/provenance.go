package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region new-entry
// NewEntry captures an evaluation for the provenance log.
func NewEntry(scoreID, segmentID string, in segment.Inputs, r engine.Result) (ProvenanceEntry, error) {
	inputs, err := json.Marshal(in)
	if err != nil {
		return ProvenanceEntry{}, fmt.Errorf("marshal inputs: %w", err)
	}
	entry := ProvenanceEntry{
		ScoreID:        scoreID,
		SegmentID:      segmentID,
		InputsJSON:     string(inputs),
		RulesDigest:    r.RulesDigest,
		ModelVersion:   r.ModelVersion,
		HRI:            r.HRI,
		ReadinessClass: string(r.ReadinessClass),
	}
	if len(r.Gates) > 0 {
		gates, err := json.Marshal(r.Gates)
		if err != nil {
			return ProvenanceEntry{}, fmt.Errorf("marshal gates: %w", err)
		}
		entry.GatesJSON = string(gates)
	}
	return entry, nil
}

// Inputs decodes the recorded inputs.
func (e ProvenanceEntry) Inputs() (segment.Inputs, error) {
	var in segment.Inputs
	if err := json.Unmarshal([]byte(e.InputsJSON), &in); err != nil {
		return segment.Inputs{}, fmt.Errorf("unmarshal inputs: %w", err)
	}
	return in, nil
}

// #endregion new-entry

// #region log-evaluation
// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// LogEvaluation writes a provenance entry to the provenance_log table.
func LogEvaluation(db Execer, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (score_id, segment_id, inputs_json, rules_digest, model_version, gates_json, hri, readiness_class, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ScoreID,
		nullIfEmpty(entry.SegmentID),
		entry.InputsJSON,
		nullIfEmpty(entry.RulesDigest),
		entry.ModelVersion,
		nullIfEmpty(entry.GatesJSON),
		entry.HRI,
		entry.ReadinessClass,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log evaluation: %w", err)
	}
	return nil
}

// #endregion log-evaluation

// #region list-entries
// ListEntries returns the most recent limit entries, oldest first.
func ListEntries(db *sql.DB, limit int) ([]ProvenanceEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT id, score_id, segment_id, inputs_json, rules_digest, model_version, gates_json, hri, readiness_class, created_at
		 FROM provenance_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list provenance: %w", err)
	}
	defer rows.Close()

	var out []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var segmentID, digest, gates sql.NullString
		var created string
		if err := rows.Scan(&e.ID, &e.ScoreID, &segmentID, &e.InputsJSON, &digest, &e.ModelVersion,
			&gates, &e.HRI, &e.ReadinessClass, &created); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		e.SegmentID = segmentID.String
		e.RulesDigest = digest.String
		e.GatesJSON = gates.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// #endregion list-entries

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
