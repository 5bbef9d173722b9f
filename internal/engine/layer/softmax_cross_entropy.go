package layer

import "github.com/example/happyml/internal/engine/tensor"

// SoftmaxCrossEntropy combines softmax (taken over every cell of its
// input, as in Activation) with categorical cross-entropy loss into one
// layer, per the design note that the
// softmax-backward-is-identity shortcut is only valid when paired with
// categorical cross-entropy: fusing them removes the need to enforce that
// pairing at graph-build time. Backward takes the expected one-hot tensor
// directly (not a loss-computed error signal) and returns predicted -
// expected, the closed-form derivative of the fused pair.
type SoftmaxCrossEntropy struct {
	label string

	lastOutput tensor.Tensor
}

func NewSoftmaxCrossEntropy(label string) *SoftmaxCrossEntropy {
	return &SoftmaxCrossEntropy{label: label}
}

func (l *SoftmaxCrossEntropy) Label() string                 { return l.label }
func (l *SoftmaxCrossEntropy) InputShapes() []tensor.Shape    { return nil }
func (l *SoftmaxCrossEntropy) OutputShape() tensor.Shape      { return tensor.Shape{} }

func (l *SoftmaxCrossEntropy) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	out := softmax(tensor.Materialize(inputs[0]))
	if forTraining {
		l.lastOutput = out
	}
	return out, nil
}

// Backward expects expected to be the training pair's expected tensor, not
// an upstream error signal.
func (l *SoftmaxCrossEntropy) Backward(expected tensor.Tensor) ([]tensor.Tensor, error) {
	if l.lastOutput == nil {
		return nil, errNoCachedInput(l.label)
	}
	dx := tensor.Materialize(tensor.Subtract(l.lastOutput, expected))
	return []tensor.Tensor{dx}, nil
}

// Loss returns the categorical cross-entropy loss for this layer's last
// forward output against expected.
func (l *SoftmaxCrossEntropy) Loss(expected tensor.Tensor) float32 {
	return CategoricalCrossEntropy(l.lastOutput, expected)
}
