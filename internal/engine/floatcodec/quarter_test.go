package floatcodec

import (
	"math"
	"testing"
)

func TestQuarterRoundTripValues(t *testing.T) {
	cases := []struct {
		name string
		v    float32
		bias int
	}{
		{"zero", 0, 4},
		{"one", 1, 4},
		{"negative-one", -1, 4},
		{"small", 0.125, 8},
		{"large", 1664, 4},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			q := ToQuarter(c.v, c.bias)
			got := FromQuarter(q, c.bias)
			if math.Abs(float64(got-c.v)) > 0.5 {
				t.Fatalf("round trip %v at bias %d = %v, want close to %v", c.v, c.bias, got, c.v)
			}
		})
	}
}

func TestQuarterNaNAndInf(t *testing.T) {
	nan := ToQuarter(float32(math.NaN()), 4)
	if nan != quarterNaN {
		t.Fatalf("NaN encoded to %08b, want canonical NaN", nan)
	}
	if !math.IsNaN(float64(FromQuarter(nan, 4))) {
		t.Fatal("NaN did not round-trip")
	}

	pos := ToQuarter(float32(math.Inf(1)), 4)
	if FromQuarter(pos, 4) != float32(math.Inf(1)) {
		t.Fatal("+Inf did not round-trip")
	}

	neg := ToQuarter(float32(math.Inf(-1)), 4)
	if FromQuarter(neg, 4) != float32(math.Inf(-1)) {
		t.Fatal("-Inf did not round-trip")
	}
}

func TestQuarterBiasZeroUpgradesToOne(t *testing.T) {
	a := ToQuarter(0.3, 0)
	b := ToQuarter(0.3, 1)
	if a != b {
		t.Fatalf("bias 0 should behave as bias 1: got %08b vs %08b", a, b)
	}
}

func TestQuarterMaxMinClamp(t *testing.T) {
	big := ToQuarter(1e9, 4)
	if big != quarterMax {
		t.Fatalf("large positive value should clamp to MAX, got %08b", big)
	}

	small := ToQuarter(-1e9, 4)
	if small != quarterMin {
		t.Fatalf("large negative value should clamp to MIN, got %08b", small)
	}
}

func TestQuarterTinyNonZero(t *testing.T) {
	// A nonzero value below the smallest representable magnitude at this
	// bias (about 0.0703 at bias 4), but within reach of the half-smallest
	// code, should not collapse all the way to exact zero.
	got := ToQuarter(0.01, 4)
	v := FromQuarter(got, 4)
	if v == 0 {
		t.Fatalf("tiny nonzero value collapsed to exact zero")
	}
}

func TestSelectQuarterBias(t *testing.T) {
	if got := SelectQuarterBias(-1.7, 1.7); got != 4 {
		t.Fatalf("SelectQuarterBias(-1.7, 1.7) = %d, want 4", got)
	}
	if got := SelectQuarterBias(-0.4, 0.4); got != 8 {
		t.Fatalf("SelectQuarterBias(-0.4, 0.4) = %d, want 8", got)
	}
}

func TestHalfRoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 3.14159, 1e10, -1e-10} {
		h := ToHalf(v)
		got := FromHalf(h)
		if math.Abs(float64(got-v)) > math.Abs(float64(v))*0.01+1e-6 {
			t.Fatalf("half round trip %v -> %v", v, got)
		}
	}
}
