package encoding

import (
	"testing"

	"github.com/example/happyml/internal/engine/tensor"
)

func TestLabelRoundTrip(t *testing.T) {
	labels := []string{"a", "b", "c"}
	enc := LabelEncoder{Labels: labels, Bias: 4}

	encoded, err := enc.Encode([]string{"b"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []float32{0, 1, 0}
	for i, w := range want {
		got := encoded.GetValue(0, i, 0)
		if got != w {
			t.Fatalf("encoded[%d] = %v, want %v", i, got, w)
		}
	}

	probs := tensor.NewFull32(1, 3, 1, []float32{0.1, 0.8, 0.1})
	dec := BestLabelDecoder{Labels: labels}
	decoded := dec.Decode(probs)
	if decoded.Text != "b" {
		t.Fatalf("Decode = %q, want %q", decoded.Text, "b")
	}

	top := dec.TopK(probs, 2)
	if len(top.Image) != 2 || top.Image[0] != "b" || top.Image[1] != "a" {
		t.Fatalf("TopK = %v, want [b a]", top.Image)
	}
}

func TestScalarEncoder(t *testing.T) {
	enc := ScalarEncoder{Rows: 1, Columns: 2, Channels: 1}
	encoded, err := enc.Encode([]string{"1.5", "2.5"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded.GetValue(0, 0, 0) != 1.5 || encoded.GetValue(0, 1, 0) != 2.5 {
		t.Fatalf("encoded values = %v,%v", encoded.GetValue(0, 0, 0), encoded.GetValue(0, 1, 0))
	}
}

func TestRawDecoder(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		dec := RawDecoder{IsStandardized: true, IsNormalized: true, Min: 0, Max: 1, Mean: 5, StdDev: 2}
		// forward: standardize then normalize maps x to [0,1]; decode should
		// invert it back to the original raw value.
		standardized := (10 - 5) / 2.0
		input := tensor.NewUniform(1, 1, 1, float32(standardized))
		decoded := dec.Decode(input)
		got := decoded.Tensor.GetValue(0, 0, 0)
		if got < 9.9 || got > 10.1 {
			t.Fatalf("decoded = %v, want close to 10", got)
		}
	})
}

func TestImageDecoderASCII(t *testing.T) {
	img := tensor.NewFull32(2, 2, 1, []float32{0, 1, 1, 0})
	decoded := ImageDecoder{}.Decode(img)
	if len(decoded.Image) != 1 {
		t.Fatalf("expected 1 line for 2 rows, got %d", len(decoded.Image))
	}
}
