package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/driver"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	if _, err := s.CreatePipeline(Pipeline{ID: "P1", Name: "Trunk A", Operator: "OpCo"}); err != nil {
		t.Fatalf("CreatePipeline: %v", err)
	}
	for i, id := range []string{"S2", "S1"} {
		seg := Segment{ID: id, PipelineID: "P1", StartKM: float64(10 - i*10), EndKM: float64(20 - i*10)}
		if _, err := s.CreateSegment(seg); err != nil {
			t.Fatalf("CreateSegment %s: %v", id, err)
		}
	}
}

func TestCreateAndListPipelines(t *testing.T) {
	s := tempDB(t)
	seed(t, s)

	if _, err := s.CreatePipeline(Pipeline{ID: "P1", Name: "dup"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	p, err := s.GetPipeline("P1")
	if err != nil {
		t.Fatalf("GetPipeline: %v", err)
	}
	if p.Name != "Trunk A" || p.Operator != "OpCo" || p.Region != "" {
		t.Fatalf("unexpected pipeline %+v", p)
	}
	if _, err := s.GetPipeline("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListPipelines()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListPipelines: %v %v", list, err)
	}
}

func TestCreateSegmentRules(t *testing.T) {
	s := tempDB(t)
	seed(t, s)

	if _, err := s.CreateSegment(Segment{ID: "X", PipelineID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateSegment(Segment{ID: "S1", PipelineID: "P1"}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	segs, err := s.ListSegments("P1")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 2 || segs[0].ID != "S1" {
		t.Fatalf("expected S1 first by chainage, got %+v", segs)
	}
	all, _ := s.ListSegments("")
	none, _ := s.ListSegments("P9")
	if len(all) != 2 || len(none) != 0 {
		t.Fatalf("unexpected filter results %d %d", len(all), len(none))
	}

	in, err := s.GetInputs("S1")
	if err != nil {
		t.Fatalf("GetInputs: %v", err)
	}
	if segment.CountPresent(in) != 0 {
		t.Fatalf("expected empty inputs, got %+v", in)
	}
}

func TestUpsertInputsReplaces(t *testing.T) {
	s := tempDB(t)
	seed(t, s)

	first := segment.Inputs{HardnessHAZHV: segment.Float(320), MICRisk: segment.String("high")}
	if err := s.UpsertInputs("S1", first); err != nil {
		t.Fatalf("UpsertInputs: %v", err)
	}
	second := segment.Inputs{HasH2Plan: segment.Bool(false)}
	if err := s.UpsertInputs("S1", second); err != nil {
		t.Fatalf("UpsertInputs: %v", err)
	}

	got, err := s.GetInputs("S1")
	if err != nil {
		t.Fatalf("GetInputs: %v", err)
	}
	if got.HardnessHAZHV != nil || got.HasH2Plan == nil || *got.HasH2Plan {
		t.Fatalf("expected replacement, got %+v", got)
	}

	if err := s.UpsertInputs("nope", first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetInputs("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndLatestScore(t *testing.T) {
	s := tempDB(t)
	seed(t, s)

	var drivers []string
	for i := range 100 {
		drivers = append(drivers, fmt.Sprintf("-0.01: O: item %d", i))
	}
	pillars := category.Scores{"M": 1, "D": 1, "I": 0.2, "C": 1, "E": 1, "Q": 1, "O": 0.45}

	first, err := s.SaveScore(ScoreRecord{SegmentID: "S1", ModelVersion: "v", HRI: 40, ReadinessClass: "Not Ready", Pillars: pillars, Drivers: drivers})
	if err != nil {
		t.Fatalf("SaveScore: %v", err)
	}
	if first.ID == "" || len(first.Drivers) != driver.StoredLimit {
		t.Fatalf("expected id and %d drivers, got %q %d", driver.StoredLimit, first.ID, len(first.Drivers))
	}
	second, err := s.SaveScore(ScoreRecord{SegmentID: "S1", ModelVersion: "v", HRI: 94.5, ReadinessClass: "Fully Ready", Pillars: pillars})
	if err != nil {
		t.Fatalf("SaveScore: %v", err)
	}

	latest, err := s.LatestScore("S1")
	if err != nil {
		t.Fatalf("LatestScore: %v", err)
	}
	if latest.ID != second.ID || latest.HRI != 94.5 {
		t.Fatalf("expected second record, got %+v", latest)
	}
	if latest.Pillars[category.Integrity] != 0.2 {
		t.Fatalf("pillars not restored: %v", latest.Pillars)
	}

	list, err := s.ListScores("S1", 10)
	if err != nil || len(list) != 2 || list[1].ID != first.ID {
		t.Fatalf("ListScores: %v %v", list, err)
	}
	if len(list[1].Drivers) != driver.StoredLimit {
		t.Fatalf("expected stored drivers, got %d", len(list[1].Drivers))
	}

	if _, err := s.LatestScore("S2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.SaveScore(ScoreRecord{SegmentID: "nope", Pillars: pillars}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveScoreWithRollsBackOnHookError(t *testing.T) {
	s := tempDB(t)
	seed(t, s)
	pillars := category.Scores{"M": 1, "D": 1, "I": 1, "C": 1, "E": 1, "Q": 1, "O": 1}

	boom := errors.New("boom")
	_, err := s.SaveScoreWith(ScoreRecord{SegmentID: "S1", Pillars: pillars}, func(tx *sql.Tx, rec ScoreRecord) error {
		if rec.ID == "" {
			t.Fatal("hook saw no score id")
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if _, err := s.LatestScore("S1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected score rolled back, got %v", err)
	}

	var seen string
	rec, err := s.SaveScoreWith(ScoreRecord{SegmentID: "S1", Pillars: pillars}, func(tx *sql.Tx, rec ScoreRecord) error {
		return tx.QueryRow(`SELECT score_id FROM hri_scores WHERE score_id = ?`, rec.ID).Scan(&seen)
	})
	if err != nil {
		t.Fatalf("SaveScoreWith: %v", err)
	}
	if seen != rec.ID {
		t.Fatalf("hook did not see the score row: %q vs %q", seen, rec.ID)
	}
}

func TestLatestScoresIncludesUnscored(t *testing.T) {
	s := tempDB(t)
	seed(t, s)
	if _, err := s.SaveScore(ScoreRecord{SegmentID: "S2", ModelVersion: "v", HRI: 70, ReadinessClass: "Ready with Controls", Pillars: category.Scores{}}); err != nil {
		t.Fatalf("SaveScore: %v", err)
	}

	out, err := s.LatestScores("P1")
	if err != nil {
		t.Fatalf("LatestScores: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Segment.ID != "S1" || out[0].Score != nil {
		t.Fatalf("expected unscored S1 first, got %+v", out[0])
	}
	if out[1].Score == nil || out[1].Score.HRI != 70 {
		t.Fatalf("expected S2 score, got %+v", out[1])
	}
}

func TestInMemoryStore(t *testing.T) {
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()
	seed(t, s)
	if _, err := s.GetSegment("S1"); err != nil {
		t.Fatalf("GetSegment: %v", err)
	}
}
