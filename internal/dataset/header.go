// Package dataset implements HappyML's on-disk binary dataset format: a
// header of typed column metadata followed by fixed-size row records, a
// writer with content-hash dedup, a random-access reader, a Fisher-Yates
// shuffler, and the two-pass normalize/standardize build step.
package dataset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/example/happyml/internal/column"
)

// Header describes the given-side and expected-side columns of every row
// in a dataset file, in declaration order.
type Header struct {
	Given    []column.Metadata
	Expected []column.Metadata
}

// RowSize returns the number of bytes occupied by one row record: every
// given tensor's cells, then every expected tensor's cells, as f32 words.
func (h Header) RowSize() int64 {
	var total int64
	for _, col := range h.Given {
		total += int64(col.ElementCount()) * 4
	}
	for _, col := range h.Expected {
		total += int64(col.ElementCount()) * 4
	}
	return total
}

// WriteHeader serializes h: counts and metadata records for the given
// columns, then the same for the expected columns.
func WriteHeader(w io.Writer, h Header) error {
	if err := binary.Write(w, binary.BigEndian, uint64(len(h.Given))); err != nil {
		return fmt.Errorf("dataset: write given column count: %w", err)
	}
	for i, col := range h.Given {
		if err := col.Write(w); err != nil {
			return fmt.Errorf("dataset: write given column %d: %w", i, err)
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint64(len(h.Expected))); err != nil {
		return fmt.Errorf("dataset: write expected column count: %w", err)
	}
	for i, col := range h.Expected {
		if err := col.Write(w); err != nil {
			return fmt.Errorf("dataset: write expected column %d: %w", i, err)
		}
	}

	return nil
}

// ReadHeader deserializes a Header from the start of a dataset file.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header

	var givenCount uint64
	if err := binary.Read(r, binary.BigEndian, &givenCount); err != nil {
		return h, fmt.Errorf("dataset: read given column count: %w", err)
	}
	h.Given = make([]column.Metadata, givenCount)
	for i := range h.Given {
		col, err := column.ReadMetadata(r)
		if err != nil {
			return h, fmt.Errorf("dataset: read given column %d: %w", i, err)
		}
		h.Given[i] = col
	}

	var expectedCount uint64
	if err := binary.Read(r, binary.BigEndian, &expectedCount); err != nil {
		return h, fmt.Errorf("dataset: read expected column count: %w", err)
	}
	h.Expected = make([]column.Metadata, expectedCount)
	for i := range h.Expected {
		col, err := column.ReadMetadata(r)
		if err != nil {
			return h, fmt.Errorf("dataset: read expected column %d: %w", i, err)
		}
		h.Expected[i] = col
	}

	return h, nil
}
