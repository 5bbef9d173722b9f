// Package layer implements HappyML's layer library: fully-connected,
// bias, activation, flatten, 2D-valid convolution, normalization,
// concatenate-wide, and the combined softmax/cross-entropy layer.
//
// Every layer exposes forward/backward plus a stable label used to key its
// parameters in an optimizer's state table, and after every weight update
// quantizes its stored parameters to the layer's declared bit width.
package layer

import (
	"fmt"

	"github.com/example/happyml/internal/engine/floatcodec"
	"github.com/example/happyml/internal/engine/tensor"
)

// ParameterHolder is implemented by layers that own learned parameters
// worth persisting across save/load, keyed the same way their optimizer
// update calls key them (label+"_w", label+"_b", label+"_f").
type ParameterHolder interface {
	Parameters() map[string]tensor.Tensor
	SetParameter(key string, value tensor.Tensor) error
}

// Layer is the capability set every layer kind implements.
type Layer interface {
	// Forward computes this layer's output from its inputs. forTraining
	// indicates whether the layer should retain anything it needs for a
	// subsequent Backward call.
	Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error)

	// Backward computes the gradient with respect to each input given the
	// gradient with respect to the output, updating any owned parameters
	// through this layer's optimizer as a side effect.
	Backward(outputError tensor.Tensor) ([]tensor.Tensor, error)

	InputShapes() []tensor.Shape
	OutputShape() tensor.Shape
	Label() string
}

// quantize stores a parameter tensor at its declared bit width: 32 keeps
// Full32, 16 truncates to Half16, 8 picks a quarter-float bias for the
// parameter's current range with SelectQuarterBias (§4.A bias selection)
// and rounds to Quarter8.
func quantize(t *tensor.Full32, bits int) tensor.Tensor {
	switch bits {
	case 16:
		return tensor.NewHalf16(t.Rows(), t.Columns(), t.Channels(), t.Data())
	case 8:
		lo, hi := float64(tensor.Min(t)), float64(tensor.Max(t))
		bias := floatcodec.SelectQuarterBias(lo, hi)
		return tensor.NewQuarter8(t.Rows(), t.Columns(), t.Channels(), t.Data(), bias)
	default:
		return t
	}
}

func sumRows(t tensor.Tensor) *tensor.Full32 {
	out := tensor.ZerosFull32(1, t.Columns(), t.Channels())
	for ch := 0; ch < t.Channels(); ch++ {
		for c := 0; c < t.Columns(); c++ {
			var sum float32
			for r := 0; r < t.Rows(); r++ {
				sum += t.GetValue(r, c, ch)
			}
			out.SetValue(0, c, ch, sum)
		}
	}
	return out
}

// errNoCachedInput is returned by Backward when it is called before a
// training-mode Forward populated the layer's cache.
func errNoCachedInput(label string) error {
	return fmt.Errorf("layer %q: backward called with no cached forward input", label)
}
