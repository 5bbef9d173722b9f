package training

import (
	"fmt"
	"math/rand"

	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/engine/tensor"
)

// Result reports the summary statistics of one Train call.
type Result struct {
	InitialLoss float32
	FinalLoss   float32
	EpochsRun   int
}

// Trainer drives batches through a Network, computing loss and invoking
// backward propagation, until its ExitStrategy says stop.
type Trainer struct {
	Network   *Network
	Loss      Loss
	Exit      ExitStrategy
	BatchSize int
	Rand      *rand.Rand
}

func NewTrainer(net *Network, loss Loss, exit ExitStrategy, batchSize int, rng *rand.Rand) *Trainer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Trainer{Network: net, Loss: loss, Exit: exit, BatchSize: batchSize, Rand: rng}
}

// Train runs shuffle → epoch → exit-strategy-check until the exit strategy
// reports done, against train and (optionally) test datasets. Because
// every layer caches only its single most recent forward call, a batch's
// samples are each forward/backward'd individually; each sample's loss
// derivative is divided by the number of samples in its batch before
// Backward (a SoftmaxCrossEntropy output node instead receives the
// expected tensor itself, unscaled), approximating the
// averaged-over-the-batch update the batch pseudocode describes without
// requiring layers to hold more than one cached input at a time.
func (t *Trainer) Train(train *dataset.Dataset, test *dataset.Dataset) (Result, error) {
	heads := t.Network.Heads()
	outputs := t.Network.Outputs()
	if len(heads) == 0 {
		return Result{}, fmt.Errorf("training: network has no head nodes")
	}
	if len(outputs) == 0 {
		return Result{}, fmt.Errorf("training: network has no output nodes")
	}

	train.Shuffle(t.Rand)

	initial, err := t.evaluate(train)
	if err != nil {
		return Result{}, err
	}

	result := Result{InitialLoss: initial, FinalLoss: initial}

	for epoch := 1; ; epoch++ {
		train.Restart()
		trainLoss, err := t.runEpoch(train)
		if err != nil {
			return Result{}, err
		}

		var testLoss float32
		hasTest := test != nil
		if hasTest {
			testLoss, err = t.evaluate(test)
			if err != nil {
				return Result{}, err
			}
		}

		result.FinalLoss = trainLoss
		result.EpochsRun = epoch

		if t.Exit.ShouldStop(epoch, trainLoss, testLoss, hasTest) {
			break
		}
		train.Shuffle(t.Rand)
	}

	return result, nil
}

func (t *Trainer) runEpoch(ds *dataset.Dataset) (float32, error) {
	heads := t.Network.Heads()
	outputs := t.Network.Outputs()

	var totalLoss float32
	var totalSamples int

	for {
		batch, err := ds.NextBatch(t.BatchSize)
		if err != nil {
			return 0, err
		}
		if len(batch) == 0 {
			break
		}

		for _, pair := range batch {
			if len(pair.Given) != len(heads) {
				return 0, fmt.Errorf("training: row has %d given tensors, network has %d head nodes", len(pair.Given), len(heads))
			}
			inputs := make(map[int]tensor.Tensor, len(heads))
			for i, h := range heads {
				inputs[h] = pair.Given[i]
			}
			predictions, err := t.Network.Graph.Forward(inputs, true)
			if err != nil {
				return 0, err
			}

			grads := make(map[int]tensor.Tensor, len(outputs))
			for i, o := range outputs {
				if i >= len(pair.Expected) {
					return 0, fmt.Errorf("training: row has %d expected tensors, network has %d output nodes", len(pair.Expected), len(outputs))
				}
				expected := pair.Expected[i]
				predicted := predictions[o]
				totalLoss += t.Loss.Calc(expected, predicted)
				totalSamples++

				if t.Network.Specs[o].Kind == KindSoftmaxCrossEntropy {
					grads[o] = expected
					continue
				}
				dE := t.Loss.Derivative(expected, predicted)
				grads[o] = tensor.Materialize(tensor.ScalarDivide(dE, float32(len(batch))))
			}

			if _, err := t.Network.Graph.Backward(grads); err != nil {
				return 0, err
			}
		}
	}

	if totalSamples == 0 {
		return 0, fmt.Errorf("training: dataset has no rows")
	}
	return totalLoss / float32(totalSamples), nil
}

func (t *Trainer) evaluate(ds *dataset.Dataset) (float32, error) {
	heads := t.Network.Heads()
	outputs := t.Network.Outputs()

	ds.Restart()
	var totalLoss float32
	var totalSamples int

	for {
		pair, ok, err := ds.NextRecord()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		inputs := make(map[int]tensor.Tensor, len(heads))
		for i, h := range heads {
			inputs[h] = pair.Given[i]
		}
		predictions, err := t.Network.Graph.Forward(inputs, false)
		if err != nil {
			return 0, err
		}
		for i, o := range outputs {
			totalLoss += t.Loss.Calc(pair.Expected[i], predictions[o])
			totalSamples++
		}
	}
	ds.Restart()

	if totalSamples == 0 {
		return 0, fmt.Errorf("training: dataset has no rows")
	}
	return totalLoss / float32(totalSamples), nil
}
