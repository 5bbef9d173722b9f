package layer

import "github.com/example/happyml/internal/engine/tensor"

// ConcatenateWide joins two inputs of equal row count and channel count
// into (rows, colsA+colsB, channels).
type ConcatenateWide struct {
	label string
	colsA int
}

func NewConcatenateWide(label string, colsA int) *ConcatenateWide {
	return &ConcatenateWide{label: label, colsA: colsA}
}

func (l *ConcatenateWide) Label() string                 { return l.label }
func (l *ConcatenateWide) InputShapes() []tensor.Shape    { return nil }
func (l *ConcatenateWide) OutputShape() tensor.Shape      { return tensor.Shape{} }

func (l *ConcatenateWide) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	return tensor.Materialize(tensor.ConcatWide(inputs[0], inputs[1])), nil
}

func (l *ConcatenateWide) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	dE := tensor.Materialize(outputError)
	dA := tensor.Window(dE, 0, 0, dE.Rows(), l.colsA)
	dB := tensor.Window(dE, 0, l.colsA, dE.Rows(), dE.Columns()-l.colsA)
	return []tensor.Tensor{tensor.Materialize(dA), tensor.Materialize(dB)}, nil
}
