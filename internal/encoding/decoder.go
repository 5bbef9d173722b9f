package encoding

import (
	"strings"

	"github.com/example/happyml/internal/engine/tensor"
)

// DecodedKind tags which field of a Decoded value is populated.
type DecodedKind int

const (
	DecodedText DecodedKind = iota
	DecodedImage
	DecodedTensor
)

// Decoded is a single sum type covering every decoder's result, replacing
// the source's unsatisfying decoder class hierarchy (per the design note
// preferring one decoder over multiple virtual methods). Exactly one field
// is meaningful, selected by Kind.
type Decoded struct {
	Kind   DecodedKind
	Text   string
	Image  []string
	Tensor tensor.Tensor
}

// RawDecoder reverses a Number column's normalize+standardize pass,
// applying denormalize then unstandardize (the inverse chain, in reverse
// order of the forward application described in §4.C).
type RawDecoder struct {
	IsNormalized   bool
	IsStandardized bool
	Min, Max       float32
	Mean, StdDev   float32
}

func (d RawDecoder) Decode(t tensor.Tensor) Decoded {
	out := t
	if d.IsNormalized {
		out = tensor.Denormalize(out, d.Min, d.Max)
	}
	if d.IsStandardized {
		out = tensor.UnstandardizeStandardize(out, d.Mean, d.StdDev)
	}
	return Decoded{Kind: DecodedTensor, Tensor: tensor.Materialize(out)}
}

// BestLabelDecoder maps a one-hot or probability tensor back to its most
// likely label, or its top-k most likely labels.
type BestLabelDecoder struct {
	Labels []string
}

func (d BestLabelDecoder) Decode(t tensor.Tensor) Decoded {
	idx := tensor.MaxIndexByRow(t, 0, 0)
	return Decoded{Kind: DecodedText, Text: d.Labels[idx]}
}

func (d BestLabelDecoder) TopK(t tensor.Tensor, k int) Decoded {
	indices := tensor.TopIndices(t, k, 0, 0)
	labels := make([]string, len(indices))
	for i, idx := range indices {
		labels[i] = d.Labels[idx]
	}
	return Decoded{Kind: DecodedImage, Image: labels}
}

// imageRamp maps [0,1] onto a 5-character ASCII luminance ramp.
var imageRamp = []rune{' ', '░', '▒', '▓', '█'}

// ImageDecoder renders a tensor as ASCII art: every two rows become one
// line, channels combine as luminance (0.299 R + 0.587 G + 0.114 B).
type ImageDecoder struct{}

func (ImageDecoder) Decode(t tensor.Tensor) Decoded {
	lines := make([]string, 0, (t.Rows()+1)/2)

	luminance := func(row, col int) float32 {
		switch t.Channels() {
		case 1:
			return t.GetValue(row, col, 0)
		case 3:
			r := t.GetValue(row, col, 0)
			g := t.GetValue(row, col, 1)
			b := t.GetValue(row, col, 2)
			return 0.299*r + 0.587*g + 0.114*b
		default:
			var sum float32
			for ch := 0; ch < t.Channels(); ch++ {
				sum += t.GetValue(row, col, ch)
			}
			return sum / float32(t.Channels())
		}
	}

	rampChar := func(v float32) rune {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		idx := int(v * float32(len(imageRamp)-1))
		return imageRamp[idx]
	}

	for row := 0; row < t.Rows(); row += 2 {
		var b strings.Builder
		for col := 0; col < t.Columns(); col++ {
			top := luminance(row, col)
			v := top
			if row+1 < t.Rows() {
				bottom := luminance(row+1, col)
				v = (top + bottom) / 2
			}
			b.WriteRune(rampChar(v))
		}
		lines = append(lines, b.String())
	}

	return Decoded{Kind: DecodedImage, Image: lines}
}
