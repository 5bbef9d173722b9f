package layer

import (
	"fmt"

	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

// Convolution2dValid cross-correlates its input against a filter bank
// F: (k, k, filterCount) with no padding, adding one learned bias value per
// filter. Every filter's single k*k kernel is applied identically to and
// summed across all input channels (the tensor model has no fourth axis
// for per-input-channel kernels), so forward collapses the input's channel
// axis into the filter axis rather than preserving it.
type Convolution2dValid struct {
	label        string
	filters      tensor.Tensor // (k, k, filterCount)
	bias         []float32     // one scalar per filter
	kernelSize   int
	filterCount  int
	bits         int
	optimizer    optimizer.Optimizer

	lastInput tensor.Tensor
}

func NewConvolution2dValid(label string, kernelSize, filterCount, bits int, opt optimizer.Optimizer) *Convolution2dValid {
	filters := tensor.Materialize(tensor.NewRandom(kernelSize, kernelSize, filterCount, -0.5, 0.5, seedForLabel(label+"_f")))
	return &Convolution2dValid{
		label:       label,
		filters:     filters,
		bias:        make([]float32, filterCount),
		kernelSize:  kernelSize,
		filterCount: filterCount,
		bits:        bits,
		optimizer:   opt,
	}
}

func (l *Convolution2dValid) Label() string { return l.label }

// InputShapes reports the per-filter kernel window, not the full input
// tensor's rows/columns (those are only known at Forward time).
func (l *Convolution2dValid) InputShapes() []tensor.Shape {
	return []tensor.Shape{{Rows: l.kernelSize, Columns: l.kernelSize, Channels: l.filterCount}}
}

// OutputShape reports the filter count; the valid-cross-correlation's
// output rows/columns depend on the input's rows/columns at Forward time.
func (l *Convolution2dValid) OutputShape() tensor.Shape {
	return tensor.Shape{Channels: l.filterCount}
}

func (l *Convolution2dValid) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	input := inputs[0]
	if forTraining {
		l.lastInput = tensor.Materialize(input)
	}

	raw := tensor.Materialize(tensor.ValidCrossCorrelation2d(input, l.filters))
	out := tensor.ZerosFull32(raw.Rows(), raw.Columns(), raw.Channels())
	for f := 0; f < l.filterCount; f++ {
		for r := 0; r < raw.Rows(); r++ {
			for c := 0; c < raw.Columns(); c++ {
				out.SetValue(r, c, f, raw.GetValue(r, c, f)+l.bias[f])
			}
		}
	}
	return out, nil
}

func (l *Convolution2dValid) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, errNoCachedInput(l.label)
	}

	dE := tensor.Materialize(outputError)
	input := l.lastInput
	k := l.kernelSize

	dF := tensor.ZerosFull32(k, k, l.filterCount)
	dInputSingle := tensor.ZerosFull32(input.Rows(), input.Columns(), 1)
	dBias := make([]float32, l.filterCount)

	for f := 0; f < l.filterCount; f++ {
		dEf := tensor.Materialize(tensor.ChannelExtract(dE, f))
		dBias[f] = tensor.Sum(dEf)

		for fr := 0; fr < k; fr++ {
			for fc := 0; fc < k; fc++ {
				var sum float32
				for ic := 0; ic < input.Channels(); ic++ {
					for r := 0; r < dEf.Rows(); r++ {
						for c := 0; c < dEf.Columns(); c++ {
							sum += input.GetValue(r+fr, c+fc, ic) * dEf.GetValue(r, c, 0)
						}
					}
				}
				dF.SetValue(fr, fc, f, sum)
			}
		}

		kernel := tensor.ChannelExtract(l.filters, f)
		rotated := tensor.Rotate180(kernel)
		padded := tensor.ZeroPad(dEf, k-1, k-1)
		contribution := tensor.Materialize(tensor.ValidCrossCorrelation2d(padded, rotated))
		dInputSingle = tensor.Materialize(tensor.Add(dInputSingle, contribution))
	}

	dInput := tensor.ZerosFull32(input.Rows(), input.Columns(), input.Channels())
	for ic := 0; ic < input.Channels(); ic++ {
		for r := 0; r < input.Rows(); r++ {
			for c := 0; c < input.Columns(); c++ {
				dInput.SetValue(r, c, ic, dInputSingle.GetValue(r, c, 0))
			}
		}
	}

	updatedFilters := l.optimizer.Update(l.label+"_f", l.filters, dF)
	l.filters = quantize(tensor.Materialize(updatedFilters), l.bits)

	biasGrad := tensor.NewFull32(1, l.filterCount, 1, dBias)
	biasParam := tensor.NewFull32(1, l.filterCount, 1, l.bias)
	updatedBias := tensor.Materialize(l.optimizer.Update(l.label+"_b", biasParam, biasGrad))
	for f := 0; f < l.filterCount; f++ {
		l.bias[f] = updatedBias.GetValue(0, f, 0)
	}

	return []tensor.Tensor{dInput}, nil
}

func (l *Convolution2dValid) Parameters() map[string]tensor.Tensor {
	return map[string]tensor.Tensor{
		l.label + "_f": l.filters,
		l.label + "_b": tensor.NewFull32(1, l.filterCount, 1, l.bias),
	}
}

func (l *Convolution2dValid) SetParameter(key string, value tensor.Tensor) error {
	switch key {
	case l.label + "_f":
		l.filters = value
	case l.label + "_b":
		m := tensor.Materialize(value)
		for f := 0; f < l.filterCount; f++ {
			l.bias[f] = m.GetValue(0, f, 0)
		}
	default:
		return fmt.Errorf("convolution2d_valid %q: unknown parameter %q", l.label, key)
	}
	return nil
}
