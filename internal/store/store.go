package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
	"github.com/DavinciInspired/H2Ready-Kit/internal/driver"
	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS pipelines (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	operator    TEXT,
	region      TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS segments (
	id          TEXT PRIMARY KEY,
	pipeline_id TEXT NOT NULL,
	start_km    REAL NOT NULL,
	end_km      REAL NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (pipeline_id) REFERENCES pipelines(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS segment_inputs (
	segment_id  TEXT PRIMARY KEY,
	inputs_json TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	FOREIGN KEY (segment_id) REFERENCES segments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS hri_scores (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	score_id        TEXT NOT NULL UNIQUE,
	segment_id      TEXT NOT NULL,
	model_version   TEXT NOT NULL,
	hri             REAL NOT NULL,
	readiness_class TEXT NOT NULL,
	m REAL NOT NULL, d REAL NOT NULL, i REAL NOT NULL, c REAL NOT NULL,
	e REAL NOT NULL, q REAL NOT NULL, o REAL NOT NULL,
	drivers_json    TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (segment_id) REFERENCES segments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_hri_scores_segment ON hri_scores(segment_id, seq);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	score_id      TEXT NOT NULL,
	segment_id    TEXT,
	inputs_json   TEXT NOT NULL,
	rules_digest  TEXT,
	model_version TEXT NOT NULL,
	gates_json    TEXT,
	hri           REAL NOT NULL,
	readiness_class TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store persists pipelines, segments, inputs and scores in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: pragmas are per connection and SQLite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the provenance log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region pipelines
// CreatePipeline inserts p. An existing id yields ErrExists.
func (s *Store) CreatePipeline(p Pipeline) (Pipeline, error) {
	if p.ID == "" || p.Name == "" {
		return Pipeline{}, fmt.Errorf("create pipeline: id and name are required")
	}
	p.CreatedAt = s.now()

	tx, err := s.db.Begin()
	if err != nil {
		return Pipeline{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if found, err := exists(tx, `SELECT 1 FROM pipelines WHERE id = ?`, p.ID); err != nil {
		return Pipeline{}, err
	} else if found {
		return Pipeline{}, fmt.Errorf("pipeline %s: %w", p.ID, ErrExists)
	}

	_, err = tx.Exec(
		`INSERT INTO pipelines (id, name, operator, region, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullIfEmpty(p.Operator), nullIfEmpty(p.Region), p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Pipeline{}, fmt.Errorf("insert pipeline: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Pipeline{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// GetPipeline reads one pipeline.
func (s *Store) GetPipeline(id string) (Pipeline, error) {
	row := s.db.QueryRow(`SELECT id, name, operator, region, created_at FROM pipelines WHERE id = ?`, id)
	p, err := scanPipeline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Pipeline{}, fmt.Errorf("pipeline %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Pipeline{}, fmt.Errorf("get pipeline %s: %w", id, err)
	}
	return p, nil
}

// ListPipelines returns every pipeline ordered by id.
func (s *Store) ListPipelines() ([]Pipeline, error) {
	rows, err := s.db.Query(`SELECT id, name, operator, region, created_at FROM pipelines ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var out []Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion pipelines

// #region segments
// CreateSegment inserts seg with an empty inputs record. The pipeline must
// exist (ErrNotFound); the id must be new (ErrExists).
func (s *Store) CreateSegment(seg Segment) (Segment, error) {
	if seg.ID == "" || seg.PipelineID == "" {
		return Segment{}, fmt.Errorf("create segment: id and pipeline_id are required")
	}
	seg.CreatedAt = s.now()
	ts := seg.CreatedAt.Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return Segment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if found, err := exists(tx, `SELECT 1 FROM pipelines WHERE id = ?`, seg.PipelineID); err != nil {
		return Segment{}, err
	} else if !found {
		return Segment{}, fmt.Errorf("pipeline %s: %w", seg.PipelineID, ErrNotFound)
	}
	if found, err := exists(tx, `SELECT 1 FROM segments WHERE id = ?`, seg.ID); err != nil {
		return Segment{}, err
	} else if found {
		return Segment{}, fmt.Errorf("segment %s: %w", seg.ID, ErrExists)
	}

	_, err = tx.Exec(
		`INSERT INTO segments (id, pipeline_id, start_km, end_km, created_at) VALUES (?, ?, ?, ?, ?)`,
		seg.ID, seg.PipelineID, seg.StartKM, seg.EndKM, ts,
	)
	if err != nil {
		return Segment{}, fmt.Errorf("insert segment: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO segment_inputs (segment_id, inputs_json, updated_at) VALUES (?, '{}', ?)`,
		seg.ID, ts,
	)
	if err != nil {
		return Segment{}, fmt.Errorf("insert inputs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Segment{}, fmt.Errorf("commit: %w", err)
	}
	return seg, nil
}

// GetSegment reads one segment.
func (s *Store) GetSegment(id string) (Segment, error) {
	row := s.db.QueryRow(`SELECT id, pipeline_id, start_km, end_km, created_at FROM segments WHERE id = ?`, id)
	seg, err := scanSegment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Segment{}, fmt.Errorf("segment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Segment{}, fmt.Errorf("get segment %s: %w", id, err)
	}
	return seg, nil
}

// ListSegments returns segments ordered by pipeline and start chainage. An
// empty pipelineID lists all.
func (s *Store) ListSegments(pipelineID string) ([]Segment, error) {
	q := `SELECT id, pipeline_id, start_km, end_km, created_at FROM segments`
	var args []any
	if pipelineID != "" {
		q += ` WHERE pipeline_id = ?`
		args = append(args, pipelineID)
	}
	q += ` ORDER BY pipeline_id, start_km, id`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// #endregion segments

// #region inputs
// GetInputs reads the evidence recorded for a segment.
func (s *Store) GetInputs(segmentID string) (segment.Inputs, error) {
	var raw sql.NullString
	err := s.db.QueryRow(
		`SELECT si.inputs_json FROM segments sg
		 LEFT JOIN segment_inputs si ON si.segment_id = sg.id
		 WHERE sg.id = ?`, segmentID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return segment.Inputs{}, fmt.Errorf("segment %s: %w", segmentID, ErrNotFound)
	}
	if err != nil {
		return segment.Inputs{}, fmt.Errorf("get inputs %s: %w", segmentID, err)
	}

	var in segment.Inputs
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &in); err != nil {
			return segment.Inputs{}, fmt.Errorf("unmarshal inputs: %w", err)
		}
	}
	return in, nil
}

// UpsertInputs replaces the evidence recorded for a segment.
func (s *Store) UpsertInputs(segmentID string, in segment.Inputs) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if found, err := exists(tx, `SELECT 1 FROM segments WHERE id = ?`, segmentID); err != nil {
		return err
	} else if !found {
		return fmt.Errorf("segment %s: %w", segmentID, ErrNotFound)
	}

	_, err = tx.Exec(
		`INSERT INTO segment_inputs (segment_id, inputs_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(segment_id) DO UPDATE SET inputs_json = excluded.inputs_json, updated_at = excluded.updated_at`,
		segmentID, string(data), s.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert inputs: %w", err)
	}
	return tx.Commit()
}

// #endregion inputs

// #region scores
// SaveScore appends a score record. The id and timestamp are assigned here
// and drivers beyond the stored limit are dropped.
func (s *Store) SaveScore(rec ScoreRecord) (ScoreRecord, error) {
	return s.SaveScoreWith(rec, nil)
}

// SaveScoreWith is SaveScore with a hook that runs inside the same
// transaction after the score row is written. A hook error rolls back the
// score.
func (s *Store) SaveScoreWith(rec ScoreRecord, also func(tx *sql.Tx, rec ScoreRecord) error) (ScoreRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = s.now()
	rec.Drivers = driver.Stored(rec.Drivers)

	drivers, err := json.Marshal(rec.Drivers)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("marshal drivers: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if found, err := exists(tx, `SELECT 1 FROM segments WHERE id = ?`, rec.SegmentID); err != nil {
		return ScoreRecord{}, err
	} else if !found {
		return ScoreRecord{}, fmt.Errorf("segment %s: %w", rec.SegmentID, ErrNotFound)
	}

	p := rec.Pillars
	_, err = tx.Exec(
		`INSERT INTO hri_scores (score_id, segment_id, model_version, hri, readiness_class, m, d, i, c, e, q, o, drivers_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SegmentID, rec.ModelVersion, rec.HRI, rec.ReadinessClass,
		p[category.Metallurgy], p[category.DesignOperations], p[category.Integrity], p[category.CoatingCP],
		p[category.Environment], p[category.DataQuality], p[category.OperationalControls],
		string(drivers), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	if also != nil {
		if err := also(tx, rec); err != nil {
			return ScoreRecord{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return ScoreRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

const scoreColumns = `score_id, segment_id, model_version, hri, readiness_class, m, d, i, c, e, q, o, drivers_json, created_at`

// LatestScore returns the most recent score for a segment.
func (s *Store) LatestScore(segmentID string) (ScoreRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+scoreColumns+` FROM hri_scores WHERE segment_id = ? ORDER BY seq DESC LIMIT 1`, segmentID,
	)
	rec, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScoreRecord{}, fmt.Errorf("score for segment %s: %w", segmentID, ErrNotFound)
	}
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("latest score %s: %w", segmentID, err)
	}
	return rec, nil
}

// ListScores returns up to limit scores for a segment, newest first.
func (s *Store) ListScores(segmentID string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+scoreColumns+` FROM hri_scores WHERE segment_id = ? ORDER BY seq DESC LIMIT ?`, segmentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		rec, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestScores returns every segment (optionally of one pipeline) with its
// newest score.
func (s *Store) LatestScores(pipelineID string) ([]SegmentScore, error) {
	segs, err := s.ListSegments(pipelineID)
	if err != nil {
		return nil, err
	}
	out := make([]SegmentScore, 0, len(segs))
	for _, seg := range segs {
		entry := SegmentScore{Segment: seg}
		rec, err := s.LatestScore(seg.ID)
		switch {
		case err == nil:
			entry.Score = &rec
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// #endregion scores

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

func exists(q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup: %w", err)
	}
	return true, nil
}

func scanPipeline(r scanner) (Pipeline, error) {
	var p Pipeline
	var operator, region sql.NullString
	var created string
	if err := r.Scan(&p.ID, &p.Name, &operator, &region, &created); err != nil {
		return Pipeline{}, err
	}
	p.Operator = operator.String
	p.Region = region.String
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return p, nil
}

func scanSegment(r scanner) (Segment, error) {
	var seg Segment
	var created string
	if err := r.Scan(&seg.ID, &seg.PipelineID, &seg.StartKM, &seg.EndKM, &created); err != nil {
		return Segment{}, err
	}
	seg.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return seg, nil
}

func scanScore(r scanner) (ScoreRecord, error) {
	var rec ScoreRecord
	var m, d, i, c, e, q, o float64
	var drivers sql.NullString
	var created string
	if err := r.Scan(&rec.ID, &rec.SegmentID, &rec.ModelVersion, &rec.HRI, &rec.ReadinessClass,
		&m, &d, &i, &c, &e, &q, &o, &drivers, &created); err != nil {
		return ScoreRecord{}, err
	}
	rec.Pillars = category.Scores{
		category.Metallurgy:          m,
		category.DesignOperations:    d,
		category.Integrity:           i,
		category.CoatingCP:           c,
		category.Environment:         e,
		category.DataQuality:         q,
		category.OperationalControls: o,
	}
	if drivers.Valid && drivers.String != "" {
		if err := json.Unmarshal([]byte(drivers.String), &rec.Drivers); err != nil {
			return ScoreRecord{}, fmt.Errorf("unmarshal drivers: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
