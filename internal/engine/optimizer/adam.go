package optimizer

import (
	"math"

	"github.com/example/happyml/internal/engine/tensor"
)

// Adam implements the Adam optimizer: first and second moment estimates
// with bias correction, per parameter label. Beta1, Beta2 and Epsilon
// default to 0.9, 0.999 and 1e-8 when left zero.
type Adam struct {
	LearningRate   float32
	Beta1, Beta2   float32
	Epsilon        float32
	Regularization Regularization

	m, v map[string]*tensor.Full32
	t    map[string]int
}

func (o *Adam) defaults() (beta1, beta2, epsilon float32) {
	beta1, beta2, epsilon = o.Beta1, o.Beta2, o.Epsilon
	if beta1 == 0 {
		beta1 = 0.9
	}
	if beta2 == 0 {
		beta2 = 0.999
	}
	if epsilon == 0 {
		epsilon = 1e-8
	}
	return
}

func (o *Adam) Update(label string, param, grad tensor.Tensor) tensor.Tensor {
	if o.m == nil {
		o.m = make(map[string]*tensor.Full32)
		o.v = make(map[string]*tensor.Full32)
		o.t = make(map[string]int)
	}

	beta1, beta2, epsilon := o.defaults()
	g := o.Regularization.apply(tensor.Materialize(param), tensor.Materialize(grad))

	m, ok := o.m[label]
	if !ok {
		m = tensor.ZerosFull32(g.Rows(), g.Columns(), g.Channels())
	}
	v, ok := o.v[label]
	if !ok {
		v = tensor.ZerosFull32(g.Rows(), g.Columns(), g.Channels())
	}

	m = elementwise(m, g, func(mv, gv float32) float32 { return beta1*mv + (1-beta1)*gv })
	v = elementwise(v, g, func(vv, gv float32) float32 { return beta2*vv + (1-beta2)*gv*gv })
	o.m[label] = m
	o.v[label] = v

	o.t[label]++
	step := o.t[label]
	bc1 := float32(1 - math.Pow(float64(beta1), float64(step)))
	bc2 := float32(1 - math.Pow(float64(beta2), float64(step)))

	mHat := mapTensor(m, func(mv float32) float32 { return mv / bc1 })
	vHat := mapTensor(v, func(vv float32) float32 { return vv / bc2 })

	p := tensor.Materialize(param)
	update := elementwise(mHat, vHat, func(mv, vv float32) float32 {
		return mv / (float32(math.Sqrt(float64(vv))) + epsilon)
	})
	return elementwise(p, update, func(pv, uv float32) float32 { return pv - o.LearningRate*uv })
}
