package training

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

func xorDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	header := dataset.Header{
		Given:    []column.Metadata{{Purpose: column.PurposeNumber, Rows: 1, Columns: 2, Channels: 1}},
		Expected: []column.Metadata{{Purpose: column.PurposeNumber, Rows: 1, Columns: 1, Channels: 1}},
	}

	var buf bytes.Buffer
	w, err := dataset.NewWriter(&buf, header)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	rows := [][3]float32{
		{0, 0, 0},
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	for _, r := range rows {
		given := []tensor.Tensor{tensor.NewFull32(1, 2, 1, []float32{r[0], r[1]})}
		expected := []tensor.Tensor{tensor.NewFull32(1, 1, 1, []float32{r[2]})}
		if _, err := w.WriteRow(given, expected); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}

	reader, err := dataset.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	return dataset.New(reader)
}

func TestXORTrainingReducesLoss(t *testing.T) {
	opt := &optimizer.SGD{LearningRate: 0.1}
	net, _, _ := buildXORNetwork(t, opt)

	trainer := NewTrainer(net, MeanSquaredError{}, FixedEpochs{Epochs: 1000}, 1, rand.New(rand.NewSource(42)))
	result, err := trainer.Train(xorDataset(t), nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if result.FinalLoss >= result.InitialLoss {
		t.Fatalf("final loss %v did not improve on initial loss %v", result.FinalLoss, result.InitialLoss)
	}
	if result.EpochsRun != 1000 {
		t.Fatalf("epochs run = %d, want 1000", result.EpochsRun)
	}
}

func TestTestPrecisionExitStrategy(t *testing.T) {
	exit := NewTestPrecision(3)
	if exit.ShouldStop(1, 1.0, 1.0, true) {
		t.Fatalf("should not stop on first improving epoch")
	}
	// No improvement for 3 consecutive epochs should stop.
	stopped := false
	for epoch := 2; epoch <= 6; epoch++ {
		if exit.ShouldStop(epoch, 1.0, 1.0, true) {
			stopped = true
			break
		}
	}
	if !stopped {
		t.Fatalf("expected test-precision exit strategy to stop on stagnant loss")
	}
}
