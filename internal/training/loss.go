package training

import (
	"math"

	"github.com/example/happyml/internal/engine/tensor"
)

// Loss computes a scalar training signal and its derivative with respect
// to a layer's prediction. Calc is the value reported to the user; Derivative
// is fed to the output node's Backward.
type Loss interface {
	Name() string
	Calc(expected, predicted tensor.Tensor) float32
	Derivative(expected, predicted tensor.Tensor) tensor.Tensor
}

// MeanSquaredError reports avg((predicted-expected)^2) and derivative
// 2*(predicted-expected).
type MeanSquaredError struct{}

func (MeanSquaredError) Name() string { return "mse" }

func (MeanSquaredError) Calc(expected, predicted tensor.Tensor) float32 {
	diff := tensor.Materialize(tensor.Subtract(predicted, expected))
	squared := tensor.Materialize(tensor.Power(diff, 2))
	return tensor.Mean(squared)
}

func (MeanSquaredError) Derivative(expected, predicted tensor.Tensor) tensor.Tensor {
	diff := tensor.Materialize(tensor.Subtract(predicted, expected))
	return tensor.Materialize(tensor.Scale(diff, 2))
}

// CategoricalCrossEntropy pairs with a SoftmaxCrossEntropy output layer.
// Its Derivative is predicted-expected, the fused softmax+CCE shortcut;
// callers must feed the output node the *expected* tensor directly (the
// layer itself computes predicted-expected), not this Derivative.
type CategoricalCrossEntropy struct{}

func (CategoricalCrossEntropy) Name() string { return "categorical_cross_entropy" }

func (CategoricalCrossEntropy) Calc(expected, predicted tensor.Tensor) float32 {
	const epsilon = 1e-12
	var sum float32
	for ch := 0; ch < predicted.Channels(); ch++ {
		for r := 0; r < predicted.Rows(); r++ {
			for c := 0; c < predicted.Columns(); c++ {
				p := predicted.GetValue(r, c, ch)
				e := expected.GetValue(r, c, ch)
				sum -= e * float32(math.Log(float64(p)+epsilon))
			}
		}
	}
	return sum
}

func (CategoricalCrossEntropy) Derivative(expected, predicted tensor.Tensor) tensor.Tensor {
	return tensor.Materialize(tensor.Subtract(predicted, expected))
}

// LossByName resolves the loss types a configuration.happyml file names.
func LossByName(name string) (Loss, bool) {
	switch name {
	case "mse":
		return MeanSquaredError{}, true
	case "categorical_cross_entropy":
		return CategoricalCrossEntropy{}, true
	default:
		return nil, false
	}
}
