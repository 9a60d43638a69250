// Package scoring ties the engine to persistence, provenance and metrics.
package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/logging"
	"github.com/DavinciInspired/H2Ready-Kit/internal/metrics"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region service
// Service scores stored segments and ad hoc inputs.
type Service struct {
	engine  *engine.Engine
	store   *store.Store
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewService wires the service. rec may be nil; logger defaults to
// slog.Default.
func NewService(e *engine.Engine, st *store.Store, rec *metrics.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{engine: e, store: st, metrics: rec, logger: logger}
}

// Engine returns the engine in use.
func (s *Service) Engine() *engine.Engine { return s.engine }

// Store returns the backing store.
func (s *Service) Store() *store.Store { return s.store }

// #endregion service

// #region evaluate
// Evaluate scores inputs without persisting anything.
func (s *Service) Evaluate(in segment.Inputs) engine.Result {
	r := s.engine.Evaluate(in)
	s.metrics.Observe(r)
	s.logger.Debug("evaluated",
		"hri", r.HRI,
		"class", r.ReadinessClass,
		"gates", len(r.Gates),
	)
	return r
}

// #endregion evaluate

// #region compute-segment
// ComputeSegment scores a stored segment, persists the score and a
// provenance entry, and returns both.
func (s *Service) ComputeSegment(segmentID string) (store.ScoreRecord, engine.Result, error) {
	in, err := s.store.GetInputs(segmentID)
	if err != nil {
		return store.ScoreRecord{}, engine.Result{}, err
	}
	r := s.engine.Evaluate(in)
	rec, err := s.persist(segmentID, in, r)
	if err != nil {
		return store.ScoreRecord{}, engine.Result{}, err
	}
	return rec, r, nil
}

func (s *Service) persist(segmentID string, in segment.Inputs, r engine.Result) (store.ScoreRecord, error) {
	rec, err := s.store.SaveScoreWith(store.ScoreRecord{
		SegmentID:      segmentID,
		ModelVersion:   r.ModelVersion,
		HRI:            r.HRI,
		ReadinessClass: string(r.ReadinessClass),
		Pillars:        r.Pillars,
		Drivers:        r.StoredDrivers(),
	}, func(tx *sql.Tx, rec store.ScoreRecord) error {
		entry, err := logging.NewEntry(rec.ID, segmentID, in, r)
		if err != nil {
			return err
		}
		return logging.LogEvaluation(tx, entry)
	})
	if err != nil {
		return store.ScoreRecord{}, fmt.Errorf("save score: %w", err)
	}

	s.metrics.Observe(r)
	s.logger.Info("segment scored",
		"segment", segmentID,
		"score_id", rec.ID,
		"hri", r.HRI,
		"pre_gate_hri", r.PreGateHRI,
		"class", r.ReadinessClass,
		"drivers", len(r.Drivers),
		"gates", len(r.Gates),
	)
	return rec, nil
}

// #endregion compute-segment

// #region compute-pipeline
// PipelineOutcome is the result for one segment of a pipeline run.
type PipelineOutcome struct {
	Segment store.Segment
	Record  store.ScoreRecord
	Result  engine.Result
}

// ComputePipeline scores every segment of a pipeline. Evaluation fans out
// across workers; persistence is sequential in segment order.
func (s *Service) ComputePipeline(ctx context.Context, pipelineID string, workers int) ([]PipelineOutcome, error) {
	if _, err := s.store.GetPipeline(pipelineID); err != nil {
		return nil, err
	}
	segs, err := s.store.ListSegments(pipelineID)
	if err != nil {
		return nil, err
	}

	inputs := make([]segment.Inputs, len(segs))
	for i, seg := range segs {
		if inputs[i], err = s.store.GetInputs(seg.ID); err != nil {
			return nil, err
		}
	}

	results, err := s.engine.EvaluateBatch(ctx, inputs, workers)
	if err != nil {
		return nil, fmt.Errorf("evaluate pipeline %s: %w", pipelineID, err)
	}

	out := make([]PipelineOutcome, 0, len(segs))
	for i, seg := range segs {
		rec, err := s.persist(seg.ID, inputs[i], results[i])
		if err != nil {
			return out, err
		}
		out = append(out, PipelineOutcome{Segment: seg, Record: rec, Result: results[i]})
	}
	s.logger.Info("pipeline scored", "pipeline", pipelineID, "segments", len(out))
	return out, nil
}

// #endregion compute-pipeline
