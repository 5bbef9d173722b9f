// Package ingest reads external source files (CSV, TSV, plain TXT) and
// feeds their rows through a column-group encoding plan into a
// dataset.Writer, producing HappyML's binary dataset format. Encoding
// failures are per-row recoverable (§7 error kind 4: the row is skipped
// and logged, the ingest continues) rather than aborting the whole file.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/encoding"
	"github.com/example/happyml/internal/engine/tensor"
)

// Side names which half of a training pair a ColumnGroup feeds.
type Side int

const (
	SideGiven Side = iota
	SideExpected
)

// ColumnGroup maps a contiguous run of raw source columns, starting at
// ColumnIndex and SourceColumnCount wide, to one encoded tensor column via
// Encoder. Name carries through to the resulting column.Metadata for
// diagnostics.
type ColumnGroup struct {
	Side              Side
	Encoder           encoding.Encoder
	ColumnIndex       int
	SourceColumnCount int
	Purpose           column.Purpose
	Name              string
	// Labels carries a Label column's ordered distinct-value dictionary
	// through to the resulting column.Metadata, so a decoder built later
	// (§4.D BestLabelDecoder) can map a prediction back to its string.
	Labels []string
}

func (g ColumnGroup) metadata() column.Metadata {
	shape := g.Encoder.OutputShape()
	return column.Metadata{
		Purpose:           g.Purpose,
		SourceColumnCount: uint64(g.SourceColumnCount),
		Rows:              uint64(shape.Rows),
		Columns:           uint64(shape.Columns),
		Channels:          uint64(shape.Channels),
		Name:              g.Name,
		OrderedLabels:     g.Labels,
	}
}

// BuildHeader derives a dataset.Header from a column-group encoding plan,
// in the order the groups are declared.
func BuildHeader(groups []ColumnGroup) dataset.Header {
	var h dataset.Header
	for _, g := range groups {
		meta := g.metadata()
		switch g.Side {
		case SideGiven:
			h.Given = append(h.Given, meta)
		case SideExpected:
			h.Expected = append(h.Expected, meta)
		}
	}
	return h
}

// cells extracts this group's slice of raw fields from one source record.
func (g ColumnGroup) cells(record []string) ([]string, error) {
	end := g.ColumnIndex + g.SourceColumnCount
	if g.ColumnIndex < 0 || end > len(record) {
		return nil, fmt.Errorf("ingest: column group %q reads columns [%d,%d), record has %d fields", g.Name, g.ColumnIndex, end, len(record))
	}
	return record[g.ColumnIndex:end], nil
}

// encodeRow runs every column group's encoder over one raw record and
// splits the results into the given-side and expected-side tensor slices
// dataset.Writer.WriteRow expects.
func encodeRow(groups []ColumnGroup, record []string) (given, expected []tensor.Tensor, err error) {
	for _, g := range groups {
		cells, cErr := g.cells(record)
		if cErr != nil {
			return nil, nil, cErr
		}
		t, encErr := g.Encoder.Encode(cells)
		if encErr != nil {
			return nil, nil, fmt.Errorf("ingest: column %q: %w", g.Name, encErr)
		}
		switch g.Side {
		case SideGiven:
			given = append(given, t)
		case SideExpected:
			expected = append(expected, t)
		}
	}
	return given, expected, nil
}

// Result summarizes one ingest run.
type Result struct {
	RowsRead    int64
	RowsWritten int64
	RowsSkipped int64
}

// CSV ingests r as RFC-4180 CSV (quoted fields may embed the record
// separator) into w, using groups to encode each record. If hasHeader is
// true the first record is discarded.
func CSV(r io.Reader, hasHeader bool, groups []ColumnGroup, w *dataset.Writer) (Result, error) {
	return delimited(r, ',', hasHeader, groups, w)
}

// TSV ingests r as tab-delimited records into w.
func TSV(r io.Reader, hasHeader bool, groups []ColumnGroup, w *dataset.Writer) (Result, error) {
	return delimited(r, '\t', hasHeader, groups, w)
}

func delimited(r io.Reader, comma rune, hasHeader bool, groups []ColumnGroup, w *dataset.Writer) (Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var res Result
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("ingest: read record %d: %w", res.RowsRead+1, err)
		}
		res.RowsRead++
		if first && hasHeader {
			first = false
			continue
		}
		first = false

		if err := ingestRecord(groups, record, w, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func ingestRecord(groups []ColumnGroup, record []string, w *dataset.Writer, res *Result) error {
	given, expected, err := encodeRow(groups, record)
	if err != nil {
		slog.Warn("ingest: skipping row", "row", res.RowsRead, "err", err)
		res.RowsSkipped++
		return nil
	}
	wrote, err := w.WriteRow(given, expected)
	if err != nil {
		return fmt.Errorf("ingest: write row %d: %w", res.RowsRead, err)
	}
	if wrote {
		res.RowsWritten++
	} else {
		res.RowsSkipped++
	}
	return nil
}
