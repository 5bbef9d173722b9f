// Package optimizer implements HappyML's gradient descent variants: plain
// SGD, SGD with momentum, and Adam. Each maintains any needed per-parameter
// state in a table keyed by parameter label, so the same optimizer
// instance can update many distinct weight/bias tensors across a network.
package optimizer

import (
	"math"

	"github.com/example/happyml/internal/engine/tensor"
)

// Optimizer updates a parameter tensor given its gradient, keyed by a
// stable per-parameter label so per-parameter state (momentum, Adam
// moments) persists across steps.
type Optimizer interface {
	// Update returns the new parameter value for label given its current
	// value and gradient.
	Update(label string, param, grad tensor.Tensor) tensor.Tensor
}

// Regularization holds the optional per-layer L2 weight decay and gradient
// norm clipping applied before an optimizer's own update rule.
type Regularization struct {
	L2            float32 // 0 disables
	ClipNormAbove float32 // 0 disables
}

func (r Regularization) apply(param, grad *tensor.Full32) *tensor.Full32 {
	out := grad
	if r.L2 > 0 {
		out = tensor.Materialize(tensor.Add(out, tensor.Scale(param, r.L2)))
	}
	if r.ClipNormAbove > 0 {
		norm := float32(math.Sqrt(float64(sumSquares(out))))
		if norm > r.ClipNormAbove {
			out = tensor.Materialize(tensor.Scale(out, r.ClipNormAbove/norm))
		}
	}
	return out
}

func sumSquares(t tensor.Tensor) float32 {
	var sum float32
	for ch := 0; ch < t.Channels(); ch++ {
		for r := 0; r < t.Rows(); r++ {
			for c := 0; c < t.Columns(); c++ {
				v := t.GetValue(r, c, ch)
				sum += v * v
			}
		}
	}
	return sum
}

func elementwise(a, b *tensor.Full32, fn func(x, y float32) float32) *tensor.Full32 {
	out := tensor.ZerosFull32(a.Rows(), a.Columns(), a.Channels())
	for ch := 0; ch < a.Channels(); ch++ {
		for r := 0; r < a.Rows(); r++ {
			for c := 0; c < a.Columns(); c++ {
				out.SetValue(r, c, ch, fn(a.GetValue(r, c, ch), b.GetValue(r, c, ch)))
			}
		}
	}
	return out
}

func mapTensor(a *tensor.Full32, fn func(x float32) float32) *tensor.Full32 {
	out := tensor.ZerosFull32(a.Rows(), a.Columns(), a.Channels())
	for ch := 0; ch < a.Channels(); ch++ {
		for r := 0; r < a.Rows(); r++ {
			for c := 0; c < a.Columns(); c++ {
				out.SetValue(r, c, ch, fn(a.GetValue(r, c, ch)))
			}
		}
	}
	return out
}
