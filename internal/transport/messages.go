package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/gate"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region requests
type EvaluateRequest struct {
	Inputs json.RawMessage `json:"inputs"`
}

type SegmentRequest struct {
	SegmentID string `json:"segment_id"`
}

type LatestScoresRequest struct {
	PipelineID string `json:"pipeline_id,omitempty"`
}

type UpsertInputsRequest struct {
	SegmentID string          `json:"segment_id"`
	Inputs    json.RawMessage `json:"inputs"`
}

type CreatePipelineRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Operator string `json:"operator,omitempty"`
	Region   string `json:"region,omitempty"`
}

type ListSegmentsRequest struct {
	PipelineID string `json:"pipeline_id,omitempty"`
}

type CreateSegmentRequest struct {
	ID         string  `json:"id"`
	PipelineID string  `json:"pipeline_id"`
	StartKM    float64 `json:"start_km"`
	EndKM      float64 `json:"end_km"`
}

// #endregion requests

// #region responses
// ScoreResponse is a readiness result as returned to callers. Drivers hold
// at most the returned prefix.
type ScoreResponse struct {
	SegmentID      string          `json:"segment_id,omitempty"`
	ScoreID        string          `json:"score_id,omitempty"`
	ModelVersion   string          `json:"model_version"`
	HRI            float64         `json:"hri"`
	PreGateHRI     float64         `json:"pre_gate_hri"`
	ReadinessClass string          `json:"readiness_class"`
	Pillars        category.Scores `json:"pillars"`
	Weights        category.Scores `json:"weights"`
	Drivers        []string        `json:"drivers"`
	Gates          []gate.Trigger  `json:"gates,omitempty"`
}

// LatestScore is one row of a LatestScores response. Score fields are nil
// for segments never scored.
type LatestScore struct {
	SegmentID      string          `json:"segment_id"`
	PipelineID     string          `json:"pipeline_id"`
	StartKM        float64         `json:"start_km"`
	EndKM          float64         `json:"end_km"`
	HRI            *float64        `json:"hri"`
	ReadinessClass *string         `json:"readiness_class"`
	Pillars        category.Scores `json:"pillars"`
}

type LatestScoresResponse struct {
	Segments []LatestScore `json:"segments"`
}

type PipelinesResponse struct {
	Pipelines []store.Pipeline `json:"pipelines"`
}

type SegmentsResponse struct {
	Segments []store.Segment `json:"segments"`
}

// InputsResponse carries a segment's recorded inputs by wire name. Absent
// fields are omitted.
type InputsResponse struct {
	SegmentID string          `json:"segment_id"`
	Inputs    json.RawMessage `json:"inputs"`
}

type AckResponse struct {
	OK         bool   `json:"ok"`
	PipelineID string `json:"pipeline_id,omitempty"`
	SegmentID  string `json:"segment_id,omitempty"`
}

// #endregion responses

// #region conversion
// toStruct renders v as a protobuf Struct via its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return st, nil
}

// fromStruct decodes a protobuf Struct into v, rejecting unknown fields.
func fromStruct(st *structpb.Struct, v any) error {
	if st == nil {
		st = &structpb.Struct{}
	}
	data, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("read struct: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// decodeInputs parses an inputs object by wire name. Unknown names are
// rejected; an absent object is an empty record.
func decodeInputs(raw json.RawMessage) (segment.Inputs, error) {
	var in segment.Inputs
	if len(raw) == 0 || string(raw) == "null" {
		return in, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return segment.Inputs{}, fmt.Errorf("decode inputs: %w", err)
	}
	return in, nil
}

// #endregion conversion
