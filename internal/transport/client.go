package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region client-struct
// Client wraps a gRPC connection to the scoring service.
type Client struct {
	conn *grpc.ClientConn
}

// #endregion client-struct

// #region constructor
// Dial connects to a scoring server at addr.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion constructor

// #region calls
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

// Evaluate scores inputs without persisting them.
func (c *Client) Evaluate(ctx context.Context, in segment.Inputs) (ScoreResponse, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return ScoreResponse{}, fmt.Errorf("marshal inputs: %w", err)
	}
	var out ScoreResponse
	err = c.invoke(ctx, "Evaluate", EvaluateRequest{Inputs: raw}, &out)
	return out, err
}

// ComputeSegmentScore scores and persists a stored segment.
func (c *Client) ComputeSegmentScore(ctx context.Context, segmentID string) (ScoreResponse, error) {
	var out ScoreResponse
	err := c.invoke(ctx, "ComputeSegmentScore", SegmentRequest{SegmentID: segmentID}, &out)
	return out, err
}

// LatestScores lists segments with their newest score.
func (c *Client) LatestScores(ctx context.Context, pipelineID string) ([]LatestScore, error) {
	var out LatestScoresResponse
	err := c.invoke(ctx, "LatestScores", LatestScoresRequest{PipelineID: pipelineID}, &out)
	return out.Segments, err
}

// UpsertInputs replaces a segment's recorded inputs.
func (c *Client) UpsertInputs(ctx context.Context, segmentID string, in segment.Inputs) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	var out AckResponse
	return c.invoke(ctx, "UpsertInputs", UpsertInputsRequest{SegmentID: segmentID, Inputs: raw}, &out)
}

// CreatePipeline registers a pipeline.
func (c *Client) CreatePipeline(ctx context.Context, req CreatePipelineRequest) error {
	var out AckResponse
	return c.invoke(ctx, "CreatePipeline", req, &out)
}

// CreateSegment registers a segment on an existing pipeline.
func (c *Client) CreateSegment(ctx context.Context, req CreateSegmentRequest) error {
	var out AckResponse
	return c.invoke(ctx, "CreateSegment", req, &out)
}

// ListPipelines returns every pipeline ordered by id.
func (c *Client) ListPipelines(ctx context.Context) ([]store.Pipeline, error) {
	var out PipelinesResponse
	err := c.invoke(ctx, "ListPipelines", struct{}{}, &out)
	return out.Pipelines, err
}

// ListSegments returns the segments of a pipeline, or all segments when
// pipelineID is empty.
func (c *Client) ListSegments(ctx context.Context, pipelineID string) ([]store.Segment, error) {
	var out SegmentsResponse
	err := c.invoke(ctx, "ListSegments", ListSegmentsRequest{PipelineID: pipelineID}, &out)
	return out.Segments, err
}

// GetInputs returns a segment's recorded inputs.
func (c *Client) GetInputs(ctx context.Context, segmentID string) (segment.Inputs, error) {
	var out InputsResponse
	if err := c.invoke(ctx, "GetInputs", SegmentRequest{SegmentID: segmentID}, &out); err != nil {
		return segment.Inputs{}, err
	}
	return decodeInputs(out.Inputs)
}

// #endregion calls
