package layer

import (
	"fmt"

	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

// Bias adds a per-output vector b: (1, out, 1) to its input.
type Bias struct {
	label     string
	bias      tensor.Tensor
	bits      int
	optimizer optimizer.Optimizer
}

func NewBias(label string, out, bits int, opt optimizer.Optimizer) *Bias {
	return &Bias{label: label, bias: tensor.ZerosFull32(1, out, 1), bits: bits, optimizer: opt}
}

func (l *Bias) Label() string { return l.label }

func (l *Bias) InputShapes() []tensor.Shape {
	return []tensor.Shape{{Rows: 1, Columns: l.bias.Columns(), Channels: 1}}
}

func (l *Bias) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: 1, Columns: l.bias.Columns(), Channels: 1}
}

func (l *Bias) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	return tensor.Materialize(tensor.Add(inputs[0], l.bias)), nil
}

// Backward passes the error upstream unchanged and updates the bias with
// the column-summed error (a no-op sum when rows==1, but keeps the layer
// correct if a future caller batches rows together).
func (l *Bias) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	dB := sumRows(outputError)
	updated := l.optimizer.Update(l.label+"_b", l.bias, dB)
	l.bias = quantize(tensor.Materialize(updated), l.bits)

	return []tensor.Tensor{outputError}, nil
}

func (l *Bias) Parameters() map[string]tensor.Tensor {
	return map[string]tensor.Tensor{l.label + "_b": l.bias}
}

func (l *Bias) SetParameter(key string, value tensor.Tensor) error {
	if key != l.label+"_b" {
		return fmt.Errorf("bias %q: unknown parameter %q", l.label, key)
	}
	l.bias = value
	return nil
}
