package layer

import "github.com/example/happyml/internal/engine/tensor"

// Flatten is a view-only reshape to (1, rows*cols*channels, 1).
type Flatten struct {
	label      string
	inputShape tensor.Shape
}

func NewFlatten(label string, inputShape tensor.Shape) *Flatten {
	return &Flatten{label: label, inputShape: inputShape}
}

func (l *Flatten) Label() string                  { return l.label }
func (l *Flatten) InputShapes() []tensor.Shape     { return []tensor.Shape{l.inputShape} }
func (l *Flatten) OutputShape() tensor.Shape {
	return tensor.Shape{Rows: 1, Columns: l.inputShape.Count(), Channels: 1}
}

func (l *Flatten) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	return tensor.Materialize(tensor.FlattenRow(inputs[0])), nil
}

func (l *Flatten) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	dx := tensor.Reshape(outputError, l.inputShape.Rows, l.inputShape.Columns, l.inputShape.Channels)
	return []tensor.Tensor{tensor.Materialize(dx)}, nil
}
