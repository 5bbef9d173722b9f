package optimizer

import "github.com/example/happyml/internal/engine/tensor"

// SGD implements plain stochastic gradient descent: P <- P - eta*G.
// BiasLearningRate, when nonzero, is used instead of LearningRate for
// labels ending in "_b" (the convention layers use for bias parameters).
type SGD struct {
	LearningRate     float32
	BiasLearningRate float32
	Regularization   Regularization
}

func (o *SGD) Update(label string, param, grad tensor.Tensor) tensor.Tensor {
	g := o.Regularization.apply(tensor.Materialize(param), tensor.Materialize(grad))
	eta := o.LearningRate
	if o.BiasLearningRate > 0 && isBiasLabel(label) {
		eta = o.BiasLearningRate
	}
	p := tensor.Materialize(param)
	return elementwise(p, g, func(pv, gv float32) float32 { return pv - eta*gv })
}

func isBiasLabel(label string) bool {
	return len(label) >= 2 && label[len(label)-2:] == "_b"
}
