package layer

import (
	"fmt"
	"hash/fnv"

	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

func seedForLabel(label string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(label))
	return h.Sum64()
}

// FullyConnected computes y = x . W, with W shape (in, out, 1).
type FullyConnected struct {
	label     string
	weights   tensor.Tensor
	bits      int
	optimizer optimizer.Optimizer

	lastInput tensor.Tensor
}

// NewFullyConnected builds a fully-connected layer with weights
// initialized from a deterministic pseudo-random tensor seeded from label.
func NewFullyConnected(label string, in, out, bits int, opt optimizer.Optimizer) *FullyConnected {
	weights := tensor.Materialize(tensor.NewRandom(in, out, 1, -0.5, 0.5, seedForLabel(label+"_w")))
	return &FullyConnected{label: label, weights: weights, bits: bits, optimizer: opt}
}

func (l *FullyConnected) Label() string { return l.label }

func (l *FullyConnected) InputShapes() []tensor.Shape {
	return []tensor.Shape{{Rows: 1, Columns: l.weights.Rows(), Channels: 1}}
}

func (l *FullyConnected) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: 1, Columns: l.weights.Columns(), Channels: 1}
}

func (l *FullyConnected) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	x := inputs[0]
	if forTraining {
		l.lastInput = tensor.Materialize(x)
	}
	return tensor.Materialize(tensor.MatMul(x, l.weights)), nil
}

func (l *FullyConnected) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, errNoCachedInput(l.label)
	}

	dE := tensor.Materialize(outputError)
	weightsT := tensor.Materialize(tensor.Transpose(l.weights))
	dx := tensor.Materialize(tensor.MatMul(dE, weightsT))

	inputT := tensor.Materialize(tensor.Transpose(l.lastInput))
	dW := tensor.Materialize(tensor.MatMul(inputT, dE))

	updated := l.optimizer.Update(l.label+"_w", l.weights, dW)
	l.weights = quantize(tensor.Materialize(updated), l.bits)

	return []tensor.Tensor{dx}, nil
}

func (l *FullyConnected) Parameters() map[string]tensor.Tensor {
	return map[string]tensor.Tensor{l.label + "_w": l.weights}
}

func (l *FullyConnected) SetParameter(key string, value tensor.Tensor) error {
	if key != l.label+"_w" {
		return fmt.Errorf("fully_connected %q: unknown parameter %q", l.label, key)
	}
	l.weights = value
	return nil
}
