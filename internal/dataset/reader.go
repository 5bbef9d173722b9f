package dataset

import (
	"fmt"
	"io"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/engine/tensor"
)

// Reader provides random access to the rows of a dataset file. It holds no
// open cursor of its own; Dataset layers sequential/shuffled access on top
// of ReadRow.
type Reader struct {
	ra         io.ReaderAt
	header     Header
	headerSize int64
	rowSize    int64
	rowCount   int64
}

// OpenReader reads the header from the start of ra and derives the row
// count from fileSize, the header size, and the per-row byte size.
func OpenReader(ra io.ReaderAt, fileSize int64) (*Reader, error) {
	countingReader := &countingReaderAt{ra: ra}
	header, err := ReadHeader(countingReader)
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}

	rowSize := header.RowSize()
	if rowSize == 0 {
		return &Reader{ra: ra, header: header, headerSize: countingReader.pos, rowSize: 0, rowCount: 0}, nil
	}

	remaining := fileSize - countingReader.pos
	if remaining < 0 || remaining%rowSize != 0 {
		return nil, fmt.Errorf("dataset: open: file size %d inconsistent with header size %d and row size %d", fileSize, countingReader.pos, rowSize)
	}

	return &Reader{
		ra:         ra,
		header:     header,
		headerSize: countingReader.pos,
		rowSize:    rowSize,
		rowCount:   remaining / rowSize,
	}, nil
}

// Header returns the dataset's column metadata.
func (r *Reader) Header() Header { return r.header }

// RowCount returns the number of row records in the file.
func (r *Reader) RowCount() int64 { return r.rowCount }

// ReadRow decodes row i into its given and expected tensors, reconstructed
// as Pixel8 for image columns, Quarter8(bias=4) for label columns, and
// Full32 otherwise.
func (r *Reader) ReadRow(i int64) ([]tensor.Tensor, []tensor.Tensor, error) {
	if i < 0 || i >= r.rowCount {
		return nil, nil, fmt.Errorf("dataset: row index %d out of range [0,%d)", i, r.rowCount)
	}

	offset := r.headerSize + i*r.rowSize
	section := io.NewSectionReader(r.ra, offset, r.rowSize)

	given := make([]tensor.Tensor, len(r.header.Given))
	for idx, col := range r.header.Given {
		t, err := decodeColumn(section, col)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: row %d given column %d: %w", i, idx, err)
		}
		given[idx] = t
	}

	expected := make([]tensor.Tensor, len(r.header.Expected))
	for idx, col := range r.header.Expected {
		t, err := decodeColumn(section, col)
		if err != nil {
			return nil, nil, fmt.Errorf("dataset: row %d expected column %d: %w", i, idx, err)
		}
		expected[idx] = t
	}

	return given, expected, nil
}

func decodeColumn(r io.Reader, meta column.Metadata) (tensor.Tensor, error) {
	full, err := tensor.LoadHeadless(r, int(meta.Rows), int(meta.Columns), int(meta.Channels))
	if err != nil {
		return nil, err
	}

	switch meta.Purpose {
	case column.PurposeImage:
		return tensor.NewPixel8(int(meta.Rows), int(meta.Columns), int(meta.Channels), full.Data()), nil
	case column.PurposeLabel:
		return tensor.NewQuarter8(int(meta.Rows), int(meta.Columns), int(meta.Channels), full.Data(), 4), nil
	default:
		return full, nil
	}
}

// countingReaderAt wraps an io.ReaderAt as a sequential io.Reader while
// tracking how many bytes have been consumed, so ReadHeader's caller can
// learn the exact header size without a second pass.
type countingReaderAt struct {
	ra  io.ReaderAt
	pos int64
}

func (c *countingReaderAt) Read(p []byte) (int, error) {
	n, err := c.ra.ReadAt(p, c.pos)
	c.pos += int64(n)
	return n, err
}
