package tensor

import (
	"bytes"
	"math"
	"testing"
)

func seqFull32(rows, cols, channels int) *Full32 {
	data := make([]float32, rows*cols*channels)
	for i := range data {
		data[i] = float32(i)
	}
	return NewFull32(rows, cols, channels, data)
}

func TestMaterializeMatchesLazyReads(t *testing.T) {
	base := seqFull32(4, 4, 2)
	view := Scale(base, 2)

	materialized := Materialize(view)

	for ch := 0; ch < 2; ch++ {
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				want := view.GetValue(r, c, ch)
				got := materialized.GetValue(r, c, ch)
				if got != want {
					t.Fatalf("materialize mismatch at (%d,%d,%d): got %v want %v", r, c, ch, got, want)
				}
			}
		}
	}
}

func TestConvolutionShape(t *testing.T) {
	input := ZerosFull32(10, 10, 1)
	filter := NewUniform(3, 3, 1, 1)

	first := ValidCrossCorrelation2d(input, filter)
	if first.Rows() != 8 || first.Columns() != 8 || first.Channels() != 1 {
		t.Fatalf("first conv shape = (%d,%d,%d), want (8,8,1)", first.Rows(), first.Columns(), first.Channels())
	}

	secondFilter := NewUniform(3, 3, 1, 1)
	second := ValidCrossCorrelation2d(Materialize(first), secondFilter)
	if second.Rows() != 6 || second.Columns() != 6 || second.Channels() != 1 {
		t.Fatalf("second conv shape = (%d,%d,%d), want (6,6,1)", second.Rows(), second.Columns(), second.Channels())
	}
}

func TestSaveLoadRoundTripFull32(t *testing.T) {
	original := seqFull32(3, 5, 2)

	var buf bytes.Buffer
	if err := Save(&buf, original, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for ch := 0; ch < 2; ch++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 5; c++ {
				want := original.GetValue(r, c, ch)
				got := loaded.GetValue(r, c, ch)
				if got != want {
					t.Fatalf("round trip mismatch at (%d,%d,%d): got %v want %v", r, c, ch, got, want)
				}
			}
		}
	}
}

func TestAssignDetectsAliasing(t *testing.T) {
	base := NewFull32(2, 2, 1, []float32{1, 2, 3, 4})
	shifted := AddScalar(base, 1)

	base.Assign(shifted)

	want := []float32{2, 3, 4, 5}
	for i, w := range want {
		if base.data[i] != w {
			t.Fatalf("cell %d = %v, want %v", i, base.data[i], w)
		}
	}
}

func TestReshapeFlatten(t *testing.T) {
	base := seqFull32(2, 3, 1)
	flat := FlattenRow(base)
	if flat.Rows() != 1 || flat.Columns() != 6 {
		t.Fatalf("flatten shape = (%d,%d), want (1,6)", flat.Rows(), flat.Columns())
	}
	for i := 0; i < 6; i++ {
		if flat.GetValue(0, i, 0) != float32(i) {
			t.Fatalf("flat[%d] = %v, want %v", i, flat.GetValue(0, i, 0), i)
		}
	}
}

func TestMatMul(t *testing.T) {
	a := NewFull32(2, 2, 1, []float32{1, 2, 3, 4})
	b := NewFull32(2, 2, 1, []float32{5, 6, 7, 8})
	product := MatMul(a, b)
	want := []float32{19, 22, 43, 50}
	got := []float32{
		product.GetValue(0, 0, 0), product.GetValue(0, 1, 0),
		product.GetValue(1, 0, 0), product.GetValue(1, 1, 0),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matmul[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReductions(t *testing.T) {
	base := NewFull32(1, 4, 1, []float32{1, 2, 3, 4})
	if Sum(base) != 10 {
		t.Fatalf("Sum = %v, want 10", Sum(base))
	}
	if Mean(base) != 2.5 {
		t.Fatalf("Mean = %v, want 2.5", Mean(base))
	}
	if Max(base) != 4 || Min(base) != 1 {
		t.Fatalf("Max/Min = %v/%v, want 4/1", Max(base), Min(base))
	}
	if Range(base) != 3 {
		t.Fatalf("Range = %v, want 3", Range(base))
	}
}

func TestMaxIndexByRowAndTopIndices(t *testing.T) {
	base := NewFull32(1, 3, 1, []float32{0.1, 0.8, 0.1})
	if idx := MaxIndexByRow(base, 0, 0); idx != 1 {
		t.Fatalf("MaxIndexByRow = %d, want 1", idx)
	}
	top := TopIndices(base, 2, 0, 0)
	if len(top) != 2 || top[0] != 1 {
		t.Fatalf("TopIndices = %v, want [1, ...]", top)
	}
}

func TestQuarter8RoundTripWithinULP(t *testing.T) {
	values := []float32{0, 0.5, -0.5, 1, -1, 1.7, -1.7}
	q := NewQuarter8(1, len(values), 1, values, 4)
	for i, want := range values {
		got := q.GetValue(0, i, 0)
		if math.Abs(float64(got-want)) > 0.5 {
			t.Fatalf("quarter8[%d] = %v, want close to %v", i, got, want)
		}
	}
}
