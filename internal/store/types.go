package store

import (
	"errors"
	"time"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

// #region errors
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// #endregion errors

// #region pipeline
// Pipeline is a named line owned by an operator.
type Pipeline struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Operator  string    `json:"operator,omitempty"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion pipeline

// #region segment
// Segment is a stretch of a pipeline between two chainages.
type Segment struct {
	ID         string    `json:"id"`
	PipelineID string    `json:"pipeline_id"`
	StartKM    float64   `json:"start_km"`
	EndKM      float64   `json:"end_km"`
	CreatedAt  time.Time `json:"created_at"`
}

// #endregion segment

// #region score-record
// ScoreRecord is one persisted evaluation. Drivers hold at most the stored
// prefix.
type ScoreRecord struct {
	ID             string          `json:"score_id"`
	SegmentID      string          `json:"segment_id"`
	ModelVersion   string          `json:"model_version"`
	HRI            float64         `json:"hri"`
	ReadinessClass string          `json:"readiness_class"`
	Pillars        category.Scores `json:"pillars"`
	Drivers        []string        `json:"drivers"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SegmentScore pairs a segment with its latest score. Score is nil when the
// segment was never scored.
type SegmentScore struct {
	Segment Segment      `json:"segment"`
	Score   *ScoreRecord `json:"score"`
}

// #endregion score-record
