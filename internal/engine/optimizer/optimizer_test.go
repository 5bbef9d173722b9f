package optimizer

import (
	"testing"

	"github.com/example/happyml/internal/engine/tensor"
)

func TestSGDStep(t *testing.T) {
	o := &SGD{LearningRate: 0.1}
	param := tensor.NewFull32(1, 1, 1, []float32{1})
	grad := tensor.NewFull32(1, 1, 1, []float32{2})

	updated := o.Update("w", param, grad)
	got := updated.GetValue(0, 0, 0)
	want := float32(1 - 0.1*2)
	if got != want {
		t.Fatalf("SGD update = %v, want %v", got, want)
	}
}

func TestSGDMomentumAccumulates(t *testing.T) {
	o := &SGDMomentum{LearningRate: 0.1, Momentum: 0.9}
	param := tensor.NewFull32(1, 1, 1, []float32{0})
	grad := tensor.NewFull32(1, 1, 1, []float32{1})

	first := o.Update("w", param, grad)
	second := o.Update("w", first, grad)

	firstDelta := 0 - first.GetValue(0, 0, 0)
	secondDelta := first.GetValue(0, 0, 0) - second.GetValue(0, 0, 0)
	if secondDelta <= firstDelta {
		t.Fatalf("momentum should accelerate updates: first delta %v, second delta %v", firstDelta, secondDelta)
	}
}

func TestAdamConverges(t *testing.T) {
	o := &Adam{LearningRate: 0.1}
	param := tensor.Tensor(tensor.NewFull32(1, 1, 1, []float32{10}))
	grad := tensor.NewFull32(1, 1, 1, []float32{1})

	for i := 0; i < 50; i++ {
		param = o.Update("w", param, grad)
	}

	got := param.GetValue(0, 0, 0)
	if got >= 10 {
		t.Fatalf("Adam did not decrease parameter: got %v", got)
	}
}
