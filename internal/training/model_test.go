package training

import (
	"testing"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

func buildXORNetwork(t *testing.T, opt optimizer.Optimizer) (*Network, int, int) {
	t.Helper()
	net := NewNetwork()
	fc := net.AddFullyConnected(2, 3, 32, opt)
	bias := net.AddBias(3, 32, opt)
	act := net.AddActivation(layer.Tanh, tensor.Shape{Rows: 1, Columns: 3, Channels: 1})
	out := net.AddFullyConnected(3, 1, 32, opt)

	for _, edge := range [][2]int{{fc, bias}, {bias, act}, {act, out}} {
		if err := net.Connect(edge[0], edge[1]); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	return net, fc, out
}

func testHeader() dataset.Header {
	return dataset.Header{
		Given:    []column.Metadata{{Purpose: column.PurposeNumber, Rows: 1, Columns: 2, Channels: 1}},
		Expected: []column.Metadata{{Purpose: column.PurposeNumber, Rows: 1, Columns: 1, Channels: 1}},
	}
}

func TestSaveLoadModelRoundTrip(t *testing.T) {
	opt := &optimizer.SGD{LearningRate: 0.1}
	net, head, _ := buildXORNetwork(t, opt)

	input := tensor.NewFull32(1, 2, 1, []float32{0, 1})
	before, err := net.Graph.Forward(map[int]tensor.Tensor{head: input}, false)
	if err != nil {
		t.Fatalf("Forward before save: %v", err)
	}

	dir := t.TempDir()
	cfg := SaveConfig{Optimizer: "sgd", LearningRate: 0.1, Loss: "mse", BatchSize: 1}
	if err := Save(dir, net, cfg, testHeader()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, loadedCfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loadedCfg.LearningRate != cfg.LearningRate || loadedCfg.Loss != cfg.Loss {
		t.Fatalf("loaded config = %+v, want matching %+v", loadedCfg, cfg)
	}

	loadedHeads := loaded.Heads()
	if len(loadedHeads) != 1 {
		t.Fatalf("loaded network has %d head nodes, want 1", len(loadedHeads))
	}
	loadedOutputs := loaded.Outputs()
	if len(loadedOutputs) != 1 {
		t.Fatalf("loaded network has %d output nodes, want 1", len(loadedOutputs))
	}

	after, err := loaded.Graph.Forward(map[int]tensor.Tensor{loadedHeads[0]: input}, false)
	if err != nil {
		t.Fatalf("Forward after load: %v", err)
	}

	gotBefore := before[findOutputID(net)].GetValue(0, 0, 0)
	gotAfter := after[loadedOutputs[0]].GetValue(0, 0, 0)
	if gotBefore != gotAfter {
		t.Fatalf("prediction changed across save/load: before=%v after=%v", gotBefore, gotAfter)
	}
}

func findOutputID(net *Network) int {
	return net.Outputs()[0]
}
