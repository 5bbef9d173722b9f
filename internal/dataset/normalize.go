package dataset

import (
	"fmt"
	"io"
	"math"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/engine/tensor"
)

// columnStats accumulates Welford running mean/variance and a running
// min/max over every cell of one Number column across every row.
type columnStats struct {
	count int64
	mean  float64
	m2    float64
	min   float32
	max   float32
}

func newColumnStats() *columnStats {
	return &columnStats{min: float32(math.Inf(1)), max: float32(math.Inf(-1))}
}

func (s *columnStats) update(v float32) {
	s.count++
	delta := float64(v) - s.mean
	s.mean += delta / float64(s.count)
	delta2 := float64(v) - s.mean
	s.m2 += delta * delta2
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

func (s *columnStats) stdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count))
}

// NormalizeStandardize runs HappyML's two-pass dataset build step: a first
// pass over every row computing running mean/variance/min/max for each
// Number column, then a second pass rewriting every Number column as
// normalize(standardize(x, mean, std_dev), min, max) while every other
// column type passes through unchanged. Non-Number columns are copied
// as-is; the rewritten header records the new normalize/standardize
// metadata for every Number column.
func NormalizeStandardize(reader *Reader, w io.Writer) (int64, error) {
	given := reader.Header().Given
	expected := reader.Header().Expected

	givenStats := statsFor(given)
	expectedStats := statsFor(expected)

	n := reader.RowCount()
	for i := int64(0); i < n; i++ {
		g, e, err := reader.ReadRow(i)
		if err != nil {
			return 0, fmt.Errorf("dataset: normalize pass 1 row %d: %w", i, err)
		}
		accumulate(givenStats, g)
		accumulate(expectedStats, e)
	}

	newGiven := applyStats(given, givenStats)
	newExpected := applyStats(expected, expectedStats)
	header := Header{Given: newGiven, Expected: newExpected}

	if err := WriteHeader(w, header); err != nil {
		return 0, fmt.Errorf("dataset: normalize write header: %w", err)
	}

	for i := int64(0); i < n; i++ {
		g, e, err := reader.ReadRow(i)
		if err != nil {
			return 0, fmt.Errorf("dataset: normalize pass 2 row %d: %w", i, err)
		}
		for idx, col := range newGiven {
			if err := writeTransformed(w, g[idx], col); err != nil {
				return 0, fmt.Errorf("dataset: normalize row %d given column %d: %w", i, idx, err)
			}
		}
		for idx, col := range newExpected {
			if err := writeTransformed(w, e[idx], col); err != nil {
				return 0, fmt.Errorf("dataset: normalize row %d expected column %d: %w", i, idx, err)
			}
		}
	}

	return n, nil
}

func statsFor(cols []column.Metadata) []*columnStats {
	out := make([]*columnStats, len(cols))
	for i, col := range cols {
		if col.Purpose == column.PurposeNumber {
			out[i] = newColumnStats()
		}
	}
	return out
}

func accumulate(stats []*columnStats, tensors []tensor.Tensor) {
	for i, st := range stats {
		if st == nil {
			continue
		}
		t := tensors[i]
		for ch := 0; ch < t.Channels(); ch++ {
			for r := 0; r < t.Rows(); r++ {
				for c := 0; c < t.Columns(); c++ {
					st.update(t.GetValue(r, c, ch))
				}
			}
		}
	}
}

// applyStats derives each Number column's final mean/std_dev/min/max from
// its accumulated stats. min/max are stored in the space the value will
// actually occupy right before normalize: the standardized space when
// is_standardized is set (min and max are affine in x, so they can be
// derived from the raw min/max without a second traversal), otherwise the
// raw space.
func applyStats(cols []column.Metadata, stats []*columnStats) []column.Metadata {
	out := make([]column.Metadata, len(cols))
	copy(out, cols)

	for i, st := range stats {
		if st == nil {
			continue
		}
		mean := float32(st.mean)
		std := float32(st.stdDev())
		isStandardized := std > 1

		min, max := st.min, st.max
		if isStandardized {
			min = (st.min - mean) / std
			max = (st.max - mean) / std
		}

		out[i].Mean = mean
		out[i].StdDev = std
		out[i].IsStandardized = isStandardized
		out[i].IsNormalized = true
		out[i].MinValue = min
		out[i].MaxValue = max
	}

	return out
}

func writeTransformed(w io.Writer, t tensor.Tensor, col column.Metadata) error {
	if col.Purpose != column.PurposeNumber {
		return tensor.Save(w, t, false)
	}

	transformed := t
	if col.IsStandardized {
		transformed = tensor.Standardize(transformed, col.Mean, col.StdDev)
	}
	transformed = tensor.Normalize(transformed, col.MinValue, col.MaxValue)

	return tensor.Save(w, transformed, false)
}
