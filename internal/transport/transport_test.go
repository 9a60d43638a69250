package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/scoring"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

func startServer(t *testing.T, opts ServerOptions) *Client {
	t.Helper()
	cfg, err := rules.Default()
	require.NoError(t, err)
	st, err := store.NewStore(filepath.Join(t.TempDir(), "rpc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := scoring.NewService(engine.New(cfg), st, nil, logger)

	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(NewServer(svc, opts), logger)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	c, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEvaluateOverGRPC(t *testing.T) {
	c := startServer(t, ServerOptions{})
	out, err := c.Evaluate(context.Background(), segment.Inputs{
		KIMPaSqrtM:  segment.Float(50),
		KTHMPaSqrtM: segment.Float(40),
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, out.HRI)
	assert.Equal(t, 94.5, out.PreGateHRI)
	assert.Equal(t, "Not Ready", out.ReadinessClass)
	assert.Equal(t, rules.DefaultVersion, out.ModelVersion)
	assert.InDelta(t, 0.30, out.Pillars["M"], 1e-9)
	require.Len(t, out.Gates, 1)
	assert.Len(t, out.Drivers, 6)
}

func TestPipelineLifecycleOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t, ServerOptions{})

	require.NoError(t, c.CreatePipeline(ctx, CreatePipelineRequest{ID: "P1", Name: "Trunk"}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S1", PipelineID: "P1", StartKM: 0, EndKM: 12.5}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S2", PipelineID: "P1", StartKM: 12.5, EndKM: 30}))

	err := c.CreatePipeline(ctx, CreatePipelineRequest{ID: "P1", Name: "Trunk"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	err = c.CreateSegment(ctx, CreateSegmentRequest{ID: "S9", PipelineID: "P9"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	yes := segment.Bool(true)
	require.NoError(t, c.UpsertInputs(ctx, "S1", segment.Inputs{
		HasH2Plan: yes, H2Sensors: yes, OperatingProcedureUpdated: yes, LeakDetectionEnhanced: yes, TrainingComplete: yes,
	}))

	score, err := c.ComputeSegmentScore(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.HRI)
	assert.NotEmpty(t, score.ScoreID)
	assert.Equal(t, "S1", score.SegmentID)

	_, err = c.ComputeSegmentScore(ctx, "nope")
	assert.Equal(t, codes.NotFound, status.Code(err))

	latest, err := c.LatestScores(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.NotNil(t, latest[0].HRI)
	assert.Equal(t, 100.0, *latest[0].HRI)
	assert.Nil(t, latest[1].HRI)
	assert.Nil(t, latest[1].Pillars)
}

func TestStrictInputsRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	bad := segment.Inputs{SoilPH: segment.Float(15)}

	_, err := startServer(t, ServerOptions{StrictInputs: true}).Evaluate(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = startServer(t, ServerOptions{}).Evaluate(ctx, bad)
	assert.NoError(t, err)
}

func TestUnknownFieldsAreInvalid(t *testing.T) {
	c := startServer(t, ServerOptions{})
	req, err := structpb.NewStruct(map[string]any{
		"inputs": map[string]any{"bogus_field": 300.0},
	})
	require.NoError(t, err)
	err = c.conn.Invoke(context.Background(), "/"+ServiceName+"/Evaluate", req, new(structpb.Struct))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.ComputeSegmentScore(context.Background(), "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReturnedDriversAreTruncated(t *testing.T) {
	r := engine.Result{}
	for range 30 {
		r.Drivers = append(r.Drivers, "-0.01: O: x")
	}
	assert.Len(t, scoreResponse(r, "", "").Drivers, 20)
}

func TestListingsOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t, ServerOptions{})

	pipes, err := c.ListPipelines(ctx)
	require.NoError(t, err)
	assert.Empty(t, pipes)

	require.NoError(t, c.CreatePipeline(ctx, CreatePipelineRequest{ID: "P2", Name: "Spur", Region: "South"}))
	require.NoError(t, c.CreatePipeline(ctx, CreatePipelineRequest{ID: "P1", Name: "Trunk", Operator: "GasCo"}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S2", PipelineID: "P1", StartKM: 10, EndKM: 20}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S1", PipelineID: "P1", StartKM: 0, EndKM: 10}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S9", PipelineID: "P2", StartKM: 0, EndKM: 3}))

	pipes, err = c.ListPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, pipes, 2)
	assert.Equal(t, "P1", pipes[0].ID)
	assert.Equal(t, "GasCo", pipes[0].Operator)
	assert.Equal(t, "South", pipes[1].Region)

	segs, err := c.ListSegments(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "S1", segs[0].ID)
	assert.Equal(t, 10.0, segs[1].StartKM)

	all, err := c.ListSegments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := c.ListSegments(ctx, "P404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetInputsOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t, ServerOptions{})
	require.NoError(t, c.CreatePipeline(ctx, CreatePipelineRequest{ID: "P1", Name: "Trunk"}))
	require.NoError(t, c.CreateSegment(ctx, CreateSegmentRequest{ID: "S1", PipelineID: "P1", EndKM: 5}))

	in, err := c.GetInputs(ctx, "S1")
	require.NoError(t, err)
	assert.Zero(t, segment.CountPresent(in))

	require.NoError(t, c.UpsertInputs(ctx, "S1", segment.Inputs{
		HardnessHAZHV: segment.Float(260),
		MICRisk:       segment.String("high"),
		HasH2Plan:     segment.Bool(true),
	}))
	in, err = c.GetInputs(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, 3, segment.CountPresent(in))
	require.NotNil(t, in.HardnessHAZHV)
	assert.Equal(t, 260.0, *in.HardnessHAZHV)
	require.NotNil(t, in.MICRisk)
	assert.Equal(t, "high", *in.MICRisk)

	_, err = c.GetInputs(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = c.GetInputs(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
