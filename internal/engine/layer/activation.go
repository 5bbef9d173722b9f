package layer

import (
	"math"

	"github.com/example/happyml/internal/engine/tensor"
)

// ActivationKind names a supported elementwise (or, for softmax,
// whole-tensor) nonlinearity.
type ActivationKind string

const (
	Tanh         ActivationKind = "tanh"
	TanhApprox   ActivationKind = "tanh_approx"
	ReLU         ActivationKind = "relu"
	LeakyReLU    ActivationKind = "leaky_relu"
	Sigmoid      ActivationKind = "sigmoid"
	SigmoidApprox ActivationKind = "sigmoid_approx"
	Softmax      ActivationKind = "softmax"
)

func tanhApprox(x float32) float32 {
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func sigmoidApprox(x float32) float32 {
	return 0.5*(x/(1+float32(math.Abs(float64(x))))) + 0.5
}

func activate(kind ActivationKind, x float32) float32 {
	switch kind {
	case Tanh:
		return float32(math.Tanh(float64(x)))
	case TanhApprox:
		return tanhApprox(x)
	case ReLU:
		if x < 0 {
			return 0
		}
		return x
	case LeakyReLU:
		if x < 0 {
			return 0.01 * x
		}
		return x
	case Sigmoid:
		return float32(1 / (1 + math.Exp(-float64(x))))
	case SigmoidApprox:
		return sigmoidApprox(x)
	default:
		return x
	}
}

func activateDerivative(kind ActivationKind, output float32) float32 {
	switch kind {
	case Tanh, TanhApprox:
		return 1 - output*output
	case ReLU:
		if output <= 0 {
			return 0
		}
		return 1
	case LeakyReLU:
		if output <= 0 {
			return 0.01
		}
		return 1
	case Sigmoid, SigmoidApprox:
		return output * (1 - output)
	default:
		return 1
	}
}

// Activation applies an elementwise nonlinearity, or a softmax taken over
// every cell of its input (rows are not normalized separately).
// Softmax's backward shortcut (multiply by 1) is correct only when this
// layer feeds directly into categorical cross-entropy loss; SoftmaxCrossEntropy
// enforces that pairing structurally instead of relying on convention.
type Activation struct {
	label string
	kind  ActivationKind

	lastOutput tensor.Tensor
}

func NewActivation(label string, kind ActivationKind) *Activation {
	return &Activation{label: label, kind: kind}
}

func (l *Activation) Label() string { return l.label }

func (l *Activation) InputShapes() []tensor.Shape { return nil }
func (l *Activation) OutputShape() tensor.Shape    { return tensor.Shape{} }

func (l *Activation) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	x := inputs[0]
	var out tensor.Tensor
	if l.kind == Softmax {
		out = softmax(tensor.Materialize(x))
	} else {
		kind := l.kind
		out = tensor.Materialize(tensor.ValueTransform(x, func(v float32) float32 { return activate(kind, v) }))
	}
	if forTraining {
		l.lastOutput = out
	}
	return out, nil
}

func (l *Activation) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	if l.kind == Softmax {
		// Valid only when followed by categorical cross-entropy, whose
		// derivative already folds in the softmax Jacobian.
		return []tensor.Tensor{outputError}, nil
	}
	if l.lastOutput == nil {
		return nil, errNoCachedInput(l.label)
	}
	kind := l.kind
	output := l.lastOutput
	dx := tensor.Multiply(outputError, tensor.ValueTransform(output, func(v float32) float32 {
		return activateDerivative(kind, v)
	}))
	return []tensor.Tensor{tensor.Materialize(dx)}, nil
}

func softmax(x *tensor.Full32) tensor.Tensor {
	max := tensor.Max(x)
	shifted := tensor.Materialize(tensor.SubtractScalar(x, max))
	exp := tensor.Materialize(tensor.Exp(shifted))
	sum := tensor.Sum(exp)
	return tensor.Materialize(tensor.ScalarDivide(exp, sum))
}
