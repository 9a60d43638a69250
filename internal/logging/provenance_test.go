package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DavinciInspired/H2Ready-Kit/internal/engine"
	"github.com/DavinciInspired/H2Ready-Kit/internal/rules"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region helpers
func setupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "prov.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func evaluate(t *testing.T, in segment.Inputs) engine.Result {
	t.Helper()
	cfg, err := rules.Default()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	return engine.New(cfg).Evaluate(in)
}

// #endregion helpers

// #region log-evaluation-tests
func TestLogEvaluationRoundTrip(t *testing.T) {
	s := setupStore(t)
	in := segment.Inputs{KIMPaSqrtM: segment.Float(50), KTHMPaSqrtM: segment.Float(40)}
	r := evaluate(t, in)

	entry, err := NewEntry("score-1", "S1", in, r)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if err := LogEvaluation(s.DB(), entry); err != nil {
		t.Fatalf("LogEvaluation: %v", err)
	}

	got, err := ListEntries(s.DB(), 10)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.ScoreID != "score-1" || e.SegmentID != "S1" || e.HRI != 40 {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.RulesDigest != r.RulesDigest || e.RulesDigest == "" {
		t.Fatalf("digest not recorded: %q", e.RulesDigest)
	}
	if !strings.Contains(e.GatesJSON, "fracture_mechanics") {
		t.Fatalf("expected fracture gate in %s", e.GatesJSON)
	}
	back, err := e.Inputs()
	if err != nil {
		t.Fatalf("Inputs: %v", err)
	}
	if back.KIMPaSqrtM == nil || *back.KIMPaSqrtM != 50 {
		t.Fatalf("inputs not restored: %+v", back)
	}
}

func TestLogEvaluationStatelessEntry(t *testing.T) {
	s := setupStore(t)
	entry, err := NewEntry("score-2", "", segment.Inputs{}, evaluate(t, segment.Inputs{}))
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if entry.GatesJSON != "" {
		t.Fatalf("expected no gates, got %s", entry.GatesJSON)
	}
	if err := LogEvaluation(s.DB(), entry); err != nil {
		t.Fatalf("LogEvaluation: %v", err)
	}
	got, _ := ListEntries(s.DB(), 0)
	if len(got) != 1 || got[0].SegmentID != "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("unexpected entries %+v", got)
	}
}

func TestListEntriesOldestFirst(t *testing.T) {
	s := setupStore(t)
	for _, id := range []string{"a", "b", "c"} {
		entry, _ := NewEntry(id, "", segment.Inputs{}, evaluate(t, segment.Inputs{}))
		if err := LogEvaluation(s.DB(), entry); err != nil {
			t.Fatalf("LogEvaluation: %v", err)
		}
	}
	got, err := ListEntries(s.DB(), 2)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(got) != 2 || got[0].ScoreID != "b" || got[1].ScoreID != "c" {
		t.Fatalf("expected [b c], got %+v", got)
	}
}

// #endregion log-evaluation-tests

// #region logger-tests
func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("debug", "json", &buf).Debug("scored", "hri", 94.5)
	if !strings.Contains(buf.String(), `"hri":94.5`) {
		t.Fatalf("expected json output, got %s", buf.String())
	}

	buf.Reset()
	NewLogger("warn", "text", &buf).Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

// #endregion logger-tests
