package layer

import "github.com/example/happyml/internal/engine/tensor"

// Normalization standardizes its input by the mean/std_dev computed fresh
// from that same input on every forward call (not a persisted running
// statistic), the per-sample batchnorm variant described for this engine.
type Normalization struct {
	label string

	lastInput  tensor.Tensor
	lastMean   float32
	lastStdDev float32
}

func NewNormalization(label string) *Normalization {
	return &Normalization{label: label}
}

func (l *Normalization) Label() string                 { return l.label }
func (l *Normalization) InputShapes() []tensor.Shape    { return nil }
func (l *Normalization) OutputShape() tensor.Shape      { return tensor.Shape{} }

func (l *Normalization) Forward(inputs []tensor.Tensor, forTraining bool) (tensor.Tensor, error) {
	x := inputs[0]
	mean := tensor.Mean(x)
	std := tensor.StdDev(x)
	if std == 0 {
		std = 1
	}
	if forTraining {
		l.lastInput = tensor.Materialize(x)
		l.lastMean = mean
		l.lastStdDev = std
	}
	return tensor.Materialize(tensor.Standardize(x, mean, std)), nil
}

// Backward applies (dE/sigma) - mean(dE/sigma) - (x-mu)*mean(dE*(x-mu))/sigma^2,
// the standard per-sample batchnorm derivative.
func (l *Normalization) Backward(outputError tensor.Tensor) ([]tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, errNoCachedInput(l.label)
	}

	sigma := l.lastStdDev
	mean := l.lastMean
	x := l.lastInput
	dE := tensor.Materialize(outputError)

	dEOverSigma := tensor.Materialize(tensor.ScalarDivide(dE, sigma))
	meanDEOverSigma := tensor.Mean(dEOverSigma)

	xMinusMean := tensor.Materialize(tensor.SubtractScalar(x, mean))
	product := tensor.Materialize(tensor.Multiply(dE, xMinusMean))
	meanProductOverVar := tensor.Mean(product) / (sigma * sigma)

	out := tensor.ZerosFull32(dE.Rows(), dE.Columns(), dE.Channels())
	for ch := 0; ch < dE.Channels(); ch++ {
		for r := 0; r < dE.Rows(); r++ {
			for c := 0; c < dE.Columns(); c++ {
				v := dEOverSigma.GetValue(r, c, ch) - meanDEOverSigma - xMinusMean.GetValue(r, c, ch)*meanProductOverVar
				out.SetValue(r, c, ch, v)
			}
		}
	}

	return []tensor.Tensor{out}, nil
}
