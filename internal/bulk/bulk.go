// Package bulk imports pipelines, segments and their inputs from CSV.
package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/DavinciInspired/H2Ready-Kit/internal/segment"
	"github.com/DavinciInspired/H2Ready-Kit/internal/store"
)

// #region columns
const (
	colPipelineID   = "pipeline_id"
	colPipelineName = "pipeline_name"
	colOperator     = "operator"
	colRegion       = "region"
	colSegmentID    = "segment_id"
	colStartKM      = "start_km"
	colEndKM        = "end_km"
)

var locationColumns = map[string]bool{
	colPipelineID: true, colPipelineName: true, colOperator: true, colRegion: true,
	colSegmentID: true, colStartKM: true, colEndKM: true,
}

// #endregion columns

// #region types
// ImportConfig tunes an import.
type ImportConfig struct {
	// Strict rejects rows whose merged inputs fall outside declared ranges.
	Strict bool
}

// DefaultImportConfig accepts any parseable value.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{}
}

// RowError describes one rejected data row. Row is 1-based and counts the
// header as row 1.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Report summarizes an import.
type Report struct {
	PipelinesCreated int        `json:"pipelines_created"`
	SegmentsCreated  int        `json:"segments_created"`
	InputsUpserted   int        `json:"inputs_upserted"`
	RowsProcessed    int        `json:"rows_processed"`
	Errors           []RowError `json:"errors"`
}

// Importer writes CSV rows into a store.
type Importer struct {
	store  *store.Store
	config ImportConfig
	logger *slog.Logger
}

// #endregion types

// NewImporter creates an importer over st. A nil logger discards output.
func NewImporter(st *store.Store, config ImportConfig, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{store: st, config: config, logger: logger}
}

// #region import
// Import reads a header row followed by data rows. Header problems abort the
// import; row problems are collected in the report and the row is skipped.
func (im *Importer) Import(r io.Reader) (Report, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := parseHeader(header)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Errors: []RowError{}}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			rep.RowsProcessed++
			rep.Errors = append(rep.Errors, RowError{Row: line, Message: perr.Err.Error()})
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("read row %d: %w", line, err)
		}

		rep.RowsProcessed++
		if err := im.importRow(cols, record, &rep); err != nil {
			rep.Errors = append(rep.Errors, RowError{Row: line, Message: err.Error()})
			im.logger.Warn("bulk row rejected", "row", line, "error", err)
		}
	}

	im.logger.Info("bulk import finished",
		"rows", rep.RowsProcessed,
		"pipelines_created", rep.PipelinesCreated,
		"segments_created", rep.SegmentsCreated,
		"inputs_upserted", rep.InputsUpserted,
		"errors", len(rep.Errors),
	)
	return rep, nil
}

func (im *Importer) importRow(cols []string, record []string, rep *Report) error {
	cell := func(name string) string {
		i := slices.Index(cols, name)
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	pipelineID, segmentID := cell(colPipelineID), cell(colSegmentID)
	if pipelineID == "" || segmentID == "" {
		return fmt.Errorf("pipeline_id and segment_id are required")
	}

	var patch segment.Inputs
	for i, name := range cols {
		if locationColumns[name] || i >= len(record) {
			continue
		}
		f, _ := segment.Lookup(name)
		if err := f.Set(&patch, record[i]); err != nil {
			return err
		}
	}
	startKM, err := parseKM(cell(colStartKM))
	if err != nil {
		return fmt.Errorf("start_km: %w", err)
	}
	endKM, err := parseKM(cell(colEndKM))
	if err != nil {
		return fmt.Errorf("end_km: %w", err)
	}

	if _, err := im.store.GetPipeline(pipelineID); errors.Is(err, store.ErrNotFound) {
		name := cell(colPipelineName)
		if name == "" {
			name = pipelineID
		}
		p := store.Pipeline{ID: pipelineID, Name: name, Operator: cell(colOperator), Region: cell(colRegion)}
		if _, err := im.store.CreatePipeline(p); err != nil {
			return err
		}
		rep.PipelinesCreated++
	} else if err != nil {
		return err
	}

	seg, err := im.store.GetSegment(segmentID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		seg = store.Segment{ID: segmentID, PipelineID: pipelineID, StartKM: startKM, EndKM: endKM}
		if _, err := im.store.CreateSegment(seg); err != nil {
			return err
		}
		rep.SegmentsCreated++
	case err != nil:
		return err
	case seg.PipelineID != pipelineID:
		return fmt.Errorf("segment %s belongs to pipeline %s", segmentID, seg.PipelineID)
	}

	if segment.CountPresent(patch) == 0 {
		return nil
	}
	in, err := im.store.GetInputs(segmentID)
	if err != nil {
		return err
	}
	segment.Merge(&in, patch)
	if im.config.Strict {
		if err := segment.Validate(in); err != nil {
			return err
		}
	}
	if err := im.store.UpsertInputs(segmentID, in); err != nil {
		return err
	}
	rep.InputsUpserted++
	return nil
}

// #endregion import

// #region helpers
// parseHeader returns the normalised column names in header order.
func parseHeader(header []string) ([]string, error) {
	cols := make([]string, 0, len(header))
	for _, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if slices.Contains(cols, name) {
			return nil, fmt.Errorf("header: duplicate column %q", name)
		}
		if !locationColumns[name] {
			if _, ok := segment.Lookup(name); !ok {
				return nil, fmt.Errorf("header: unknown column %q", name)
			}
		}
		cols = append(cols, name)
	}
	for _, req := range []string{colPipelineID, colSegmentID} {
		if !slices.Contains(cols, req) {
			return nil, fmt.Errorf("header: missing column %q", req)
		}
	}
	return cols, nil
}

func parseKM(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// #endregion helpers
