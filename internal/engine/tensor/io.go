package tensor

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Save writes t in the engine's tensor wire format: a (channels, rows,
// cols) big-endian u64 header followed by rows*cols*channels big-endian f32
// words in channel-outer, row-major order. Pixel8 and Quarter8 tensors are
// decoded to float32 on the way out; the on-disk format is always f32.
func Save(w io.Writer, t Tensor, header bool) error {
	if header {
		dims := [3]uint64{uint64(t.Channels()), uint64(t.Rows()), uint64(t.Columns())}
		for _, d := range dims {
			if err := binary.Write(w, binary.BigEndian, d); err != nil {
				return fmt.Errorf("tensor: write header: %w", err)
			}
		}
	}

	full := Materialize(t)
	for ch := 0; ch < full.Channels(); ch++ {
		for r := 0; r < full.Rows(); r++ {
			for c := 0; c < full.Columns(); c++ {
				if err := binary.Write(w, binary.BigEndian, full.GetValue(r, c, ch)); err != nil {
					return fmt.Errorf("tensor: write cell: %w", err)
				}
			}
		}
	}
	return nil
}

// Load reads a tensor previously written by Save with header=true.
func Load(r io.Reader) (*Full32, error) {
	var channels, rows, cols uint64
	for _, dst := range []*uint64{&channels, &rows, &cols} {
		if err := binary.Read(r, binary.BigEndian, dst); err != nil {
			return nil, fmt.Errorf("tensor: read header: %w", err)
		}
	}
	return LoadHeadless(r, int(rows), int(cols), int(channels))
}

// LoadHeadless reads rows*cols*channels big-endian f32 words with no
// preceding header, for use against the fixed-size row records of the
// binary dataset format.
func LoadHeadless(r io.Reader, rows, cols, channels int) (*Full32, error) {
	data := make([]float32, rows*cols*channels)
	for i := range data {
		if err := binary.Read(r, binary.BigEndian, &data[i]); err != nil {
			return nil, fmt.Errorf("tensor: read cell %d: %w", i, err)
		}
	}
	return NewFull32(rows, cols, channels, data), nil
}

// ByteSize returns the number of bytes a headless tensor of this shape
// occupies on disk.
func ByteSize(rows, cols, channels int) int64 {
	return int64(rows*cols*channels) * 4
}
