// Package column defines the per-column metadata record stored in a
// HappyML binary dataset header, and its length-prefixed binary framing.
package column

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Purpose classifies what a column holds.
type Purpose byte

const (
	PurposeImage  Purpose = 'I'
	PurposeText   Purpose = 'T'
	PurposeNumber Purpose = 'N'
	PurposeLabel  Purpose = 'L'
)

func (p Purpose) String() string {
	switch p {
	case PurposeImage:
		return "image"
	case PurposeText:
		return "text"
	case PurposeNumber:
		return "number"
	case PurposeLabel:
		return "label"
	default:
		return fmt.Sprintf("unknown(%c)", byte(p))
	}
}

// Metadata describes one tensor column of a dataset row: its declared
// shape, its purpose, and the normalize/standardize statistics computed
// during the dataset build pass.
type Metadata struct {
	Purpose           Purpose
	IsStandardized    bool
	Mean              float32
	StdDev            float32
	IsNormalized      bool
	MinValue          float32
	MaxValue          float32
	SourceColumnCount uint64
	Rows              uint64
	Columns           uint64
	Channels          uint64
	OrderedLabels     []string
	Name              string
}

// ElementCount returns the number of f32 words this column occupies in a
// row record.
func (m Metadata) ElementCount() int {
	return int(m.Rows * m.Columns * m.Channels)
}

func writeBool(w io.Writer, b bool) error {
	var v uint8
	if b {
		v = 1
	}
	return binary.Write(w, binary.BigEndian, v)
}

func readBool(r io.Reader) (bool, error) {
	var v uint8
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return false, err
	}
	return v != 0, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Write serializes m as a column_metadata_record.
func (m Metadata) Write(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, byte(m.Purpose)); err != nil {
		return fmt.Errorf("column: write purpose: %w", err)
	}
	if err := writeBool(w, m.IsStandardized); err != nil {
		return fmt.Errorf("column: write is_standardized: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, m.Mean); err != nil {
		return fmt.Errorf("column: write mean: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, m.StdDev); err != nil {
		return fmt.Errorf("column: write std_dev: %w", err)
	}
	if err := writeBool(w, m.IsNormalized); err != nil {
		return fmt.Errorf("column: write is_normalized: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, m.MinValue); err != nil {
		return fmt.Errorf("column: write min_value: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, m.MaxValue); err != nil {
		return fmt.Errorf("column: write max_value: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, m.SourceColumnCount); err != nil {
		return fmt.Errorf("column: write source_column_count: %w", err)
	}
	for _, dim := range []uint64{m.Rows, m.Columns, m.Channels} {
		if err := binary.Write(w, binary.BigEndian, dim); err != nil {
			return fmt.Errorf("column: write shape dim: %w", err)
		}
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(m.OrderedLabels))); err != nil {
		return fmt.Errorf("column: write label_count: %w", err)
	}
	for _, label := range m.OrderedLabels {
		if err := writeString(w, label); err != nil {
			return fmt.Errorf("column: write label: %w", err)
		}
	}
	if err := writeString(w, m.Name); err != nil {
		return fmt.Errorf("column: write name: %w", err)
	}
	return nil
}

// ReadMetadata deserializes one column_metadata_record.
func ReadMetadata(r io.Reader) (Metadata, error) {
	var m Metadata

	var purpose byte
	if err := binary.Read(r, binary.BigEndian, &purpose); err != nil {
		return m, fmt.Errorf("column: read purpose: %w", err)
	}
	m.Purpose = Purpose(purpose)

	var err error
	if m.IsStandardized, err = readBool(r); err != nil {
		return m, fmt.Errorf("column: read is_standardized: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.Mean); err != nil {
		return m, fmt.Errorf("column: read mean: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.StdDev); err != nil {
		return m, fmt.Errorf("column: read std_dev: %w", err)
	}
	if m.IsNormalized, err = readBool(r); err != nil {
		return m, fmt.Errorf("column: read is_normalized: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.MinValue); err != nil {
		return m, fmt.Errorf("column: read min_value: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.MaxValue); err != nil {
		return m, fmt.Errorf("column: read max_value: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &m.SourceColumnCount); err != nil {
		return m, fmt.Errorf("column: read source_column_count: %w", err)
	}
	for _, dst := range []*uint64{&m.Rows, &m.Columns, &m.Channels} {
		if err := binary.Read(r, binary.BigEndian, dst); err != nil {
			return m, fmt.Errorf("column: read shape dim: %w", err)
		}
	}

	var labelCount uint32
	if err := binary.Read(r, binary.BigEndian, &labelCount); err != nil {
		return m, fmt.Errorf("column: read label_count: %w", err)
	}
	m.OrderedLabels = make([]string, labelCount)
	for i := range m.OrderedLabels {
		if m.OrderedLabels[i], err = readString(r); err != nil {
			return m, fmt.Errorf("column: read label %d: %w", i, err)
		}
	}

	if m.Name, err = readString(r); err != nil {
		return m, fmt.Errorf("column: read name: %w", err)
	}

	return m, nil
}
