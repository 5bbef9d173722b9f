package optimizer

import "github.com/example/happyml/internal/engine/tensor"

// SGDMomentum implements SGD with a momentum term: v <- mu*v + G;
// P <- P - eta*v. Momentum state is held per parameter label so one
// optimizer instance can drive every layer in a network.
type SGDMomentum struct {
	LearningRate   float32
	Momentum       float32 // defaults to 0.9 when zero
	Regularization Regularization

	velocity map[string]*tensor.Full32
}

func (o *SGDMomentum) Update(label string, param, grad tensor.Tensor) tensor.Tensor {
	if o.velocity == nil {
		o.velocity = make(map[string]*tensor.Full32)
	}
	mu := o.Momentum
	if mu == 0 {
		mu = 0.9
	}

	g := o.Regularization.apply(tensor.Materialize(param), tensor.Materialize(grad))

	v, ok := o.velocity[label]
	if !ok {
		v = tensor.ZerosFull32(g.Rows(), g.Columns(), g.Channels())
	}
	v = elementwise(v, g, func(vv, gv float32) float32 { return mu*vv + gv })
	o.velocity[label] = v

	p := tensor.Materialize(param)
	return elementwise(p, v, func(pv, vv float32) float32 { return pv - o.LearningRate*vv })
}
