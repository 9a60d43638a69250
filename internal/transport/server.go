package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/scoring"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region server
// Server implements ScoringServer on top of a scoring.Service.
type Server struct {
	svc    *scoring.Service
	strict bool
}

// ServerOptions tunes request handling.
type ServerOptions struct {
	// StrictInputs rejects inputs outside their declared physical ranges.
	StrictInputs bool
}

// NewServer creates a server for svc.
func NewServer(svc *scoring.Service, opts ServerOptions) *Server {
	return &Server{svc: svc, strict: opts.StrictInputs}
}

// NewGRPCServer builds a grpc.Server with the logging interceptor and the
// scoring service registered.
func NewGRPCServer(srv ScoringServer, logger *slog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.UnaryInterceptor(LoggingInterceptor(logger))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterScoringServer(s, srv)
	return s
}

// #endregion server

// #region handlers
func (s *Server) Evaluate(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r EvaluateRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	in, err := s.inputs(r.Inputs)
	if err != nil {
		return nil, err
	}
	return reply(scoreResponse(s.svc.Evaluate(in), "", ""))
}

func (s *Server) ComputeSegmentScore(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r SegmentRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if r.SegmentID == "" {
		return nil, status.Error(codes.InvalidArgument, "segment_id is required")
	}
	rec, res, err := s.svc.ComputeSegment(r.SegmentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(scoreResponse(res, r.SegmentID, rec.ID))
}

func (s *Server) LatestScores(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r LatestScoresRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rows, err := s.svc.Store().LatestScores(r.PipelineID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := LatestScoresResponse{Segments: make([]LatestScore, 0, len(rows))}
	for _, row := range rows {
		ls := LatestScore{
			SegmentID:  row.Segment.ID,
			PipelineID: row.Segment.PipelineID,
			StartKM:    row.Segment.StartKM,
			EndKM:      row.Segment.EndKM,
		}
		if row.Score != nil {
			hri, class := row.Score.HRI, row.Score.ReadinessClass
			ls.HRI, ls.ReadinessClass, ls.Pillars = &hri, &class, row.Score.Pillars
		}
		out.Segments = append(out.Segments, ls)
	}
	return reply(out)
}

func (s *Server) UpsertInputs(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r UpsertInputsRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if r.SegmentID == "" {
		return nil, status.Error(codes.InvalidArgument, "segment_id is required")
	}
	in, err := s.inputs(r.Inputs)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Store().UpsertInputs(r.SegmentID, in); err != nil {
		return nil, toStatus(err)
	}
	return reply(AckResponse{OK: true, SegmentID: r.SegmentID})
}

func (s *Server) CreatePipeline(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r CreatePipelineRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if r.ID == "" || r.Name == "" {
		return nil, status.Error(codes.InvalidArgument, "id and name are required")
	}
	p, err := s.svc.Store().CreatePipeline(store.Pipeline{ID: r.ID, Name: r.Name, Operator: r.Operator, Region: r.Region})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(AckResponse{OK: true, PipelineID: p.ID})
}

func (s *Server) CreateSegment(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r CreateSegmentRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if r.ID == "" || r.PipelineID == "" {
		return nil, status.Error(codes.InvalidArgument, "id and pipeline_id are required")
	}
	seg, err := s.svc.Store().CreateSegment(store.Segment{ID: r.ID, PipelineID: r.PipelineID, StartKM: r.StartKM, EndKM: r.EndKM})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(AckResponse{OK: true, SegmentID: seg.ID})
}

func (s *Server) ListPipelines(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := fromStruct(req, &struct{}{}); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	pipes, err := s.svc.Store().ListPipelines()
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(PipelinesResponse{Pipelines: nonNil(pipes)})
}

func (s *Server) ListSegments(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r ListSegmentsRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	segs, err := s.svc.Store().ListSegments(r.PipelineID)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(SegmentsResponse{Segments: nonNil(segs)})
}

func (s *Server) GetInputs(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r SegmentRequest
	if err := fromStruct(req, &r); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if r.SegmentID == "" {
		return nil, status.Error(codes.InvalidArgument, "segment_id is required")
	}
	in, err := s.svc.Store().GetInputs(r.SegmentID)
	if err != nil {
		return nil, toStatus(err)
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return reply(InputsResponse{SegmentID: r.SegmentID, Inputs: raw})
}

// #endregion handlers

// #region helpers
func (s *Server) inputs(raw []byte) (segment.Inputs, error) {
	in, err := decodeInputs(raw)
	if err != nil {
		return segment.Inputs{}, status.Error(codes.InvalidArgument, err.Error())
	}
	if s.strict {
		if err := segment.Validate(in); err != nil {
			return segment.Inputs{}, status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return in, nil
}

func scoreResponse(r engine.Result, segmentID, scoreID string) ScoreResponse {
	c := r.ForCaller()
	return ScoreResponse{
		SegmentID:      segmentID,
		ScoreID:        scoreID,
		ModelVersion:   c.ModelVersion,
		HRI:            c.HRI,
		PreGateHRI:     c.PreGateHRI,
		ReadinessClass: string(c.ReadinessClass),
		Pillars:        c.Pillars,
		Weights:        c.Weights,
		Drivers:        c.Drivers,
		Gates:          c.Gates,
	}
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func reply(v any) (*structpb.Struct, error) {
	st, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

// toStatus maps store sentinels onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, store.ErrExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion helpers

// #region interceptor
// LoggingInterceptor logs every unary call with its duration and status code.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		}
		if err != nil && code == codes.Internal {
			logger.Error("rpc failed", append(attrs, "error", err)...)
		} else {
			logger.Info("rpc", attrs...)
		}
		return resp, err
	}
}

// #endregion interceptor
