package layer

import (
	"math"

	"github.com/example/happyml/internal/engine/tensor"
)

// CategoricalCrossEntropy computes -sum(expected * log(predicted)) over
// every cell, the loss SoftmaxCrossEntropy's backward shortcut assumes.
func CategoricalCrossEntropy(predicted, expected tensor.Tensor) float32 {
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
