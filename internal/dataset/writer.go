package dataset

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/engine/tensor"
)

// Writer appends row records to a dataset file, skipping rows whose
// content hash has already been seen in this writer's lifetime. The seen
// set covers every row written so far, so duplicate rows are dropped
// whether or not they arrive adjacent to each other.
type Writer struct {
	w      io.Writer
	header Header
	seen   map[uint64]struct{}
	rows   int64
}

// NewWriter writes header immediately and returns a Writer ready to accept
// rows matching it.
func NewWriter(w io.Writer, header Header) (*Writer, error) {
	if err := WriteHeader(w, header); err != nil {
		return nil, err
	}
	return &Writer{w: w, header: header, seen: make(map[uint64]struct{})}, nil
}

// WriteRow validates that given and expected match the header's declared
// shapes, then writes the row unless its content hash has been seen
// before. It reports whether the row was actually written.
func (wr *Writer) WriteRow(given, expected []tensor.Tensor) (bool, error) {
	if err := validateColumns(wr.header.Given, given, "given"); err != nil {
		return false, err
	}
	if err := validateColumns(wr.header.Expected, expected, "expected"); err != nil {
		return false, err
	}

	var buf bytes.Buffer
	for i, t := range given {
		if err := tensor.Save(&buf, t, false); err != nil {
			return false, fmt.Errorf("dataset: encode given column %d: %w", i, err)
		}
	}
	for i, t := range expected {
		if err := tensor.Save(&buf, t, false); err != nil {
			return false, fmt.Errorf("dataset: encode expected column %d: %w", i, err)
		}
	}

	h := fnv.New64a()
	_, _ = h.Write(buf.Bytes())
	sum := h.Sum64()

	if _, dup := wr.seen[sum]; dup {
		return false, nil
	}
	wr.seen[sum] = struct{}{}

	if _, err := wr.w.Write(buf.Bytes()); err != nil {
		return false, fmt.Errorf("dataset: write row: %w", err)
	}
	wr.rows++
	return true, nil
}

// RowsWritten returns the number of rows actually written so far
// (post-dedup).
func (wr *Writer) RowsWritten() int64 { return wr.rows }

func validateColumns(meta []column.Metadata, tensors []tensor.Tensor, side string) error {
	if len(meta) != len(tensors) {
		return fmt.Errorf("dataset: %s column count mismatch: header has %d, row has %d", side, len(meta), len(tensors))
	}
	for i, col := range meta {
		t := tensors[i]
		if t.Rows() != int(col.Rows) || t.Columns() != int(col.Columns) || t.Channels() != int(col.Channels) {
			return fmt.Errorf("dataset: %s column %d shape mismatch: header declares (%d,%d,%d), row has (%d,%d,%d)",
				side, i, col.Rows, col.Columns, col.Channels, t.Rows(), t.Columns(), t.Channels())
		}
	}
	return nil
}
