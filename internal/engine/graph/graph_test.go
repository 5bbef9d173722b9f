package graph

import (
	"testing"

	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

func TestLinearChainForwardBackward(t *testing.T) {
	g := New()
	opt := &optimizer.SGD{LearningRate: 0.1}
	fc := g.AddNode(layer.NewFullyConnected("fc", 2, 2, 32, opt))
	act := g.AddNode(layer.NewActivation("act", layer.Tanh))

	if err := g.Connect(fc, act); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	heads := g.Heads()
	if len(heads) != 1 || heads[0] != fc {
		t.Fatalf("Heads() = %v, want [%d]", heads, fc)
	}
	outputs := g.Outputs()
	if len(outputs) != 1 || outputs[0] != act {
		t.Fatalf("Outputs() = %v, want [%d]", outputs, act)
	}

	input := tensor.NewFull32(1, 2, 1, []float32{1, -1})
	out, err := g.Forward(map[int]tensor.Tensor{fc: input}, true)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if _, ok := out[act]; !ok {
		t.Fatalf("Forward did not produce output for node %d", act)
	}

	dE := tensor.NewFull32(1, 2, 1, []float32{0.1, -0.1})
	inGrads, err := g.Backward(map[int]tensor.Tensor{act: dE})
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	grad, ok := inGrads[fc]
	if !ok {
		t.Fatalf("Backward did not produce gradient for head node %d", fc)
	}
	if grad.Rows() != 1 || grad.Columns() != 2 {
		t.Fatalf("head gradient shape = (%d,%d), want (1,2)", grad.Rows(), grad.Columns())
	}
}

func TestFanOutAveragesBackwardGradient(t *testing.T) {
	g := New()
	head := g.AddNode(layer.NewActivation("head", layer.Tanh))
	branchA := g.AddNode(layer.NewActivation("a", layer.Tanh))
	branchB := g.AddNode(layer.NewActivation("b", layer.Tanh))

	if err := g.Connect(head, branchA); err != nil {
		t.Fatalf("Connect a: %v", err)
	}
	if err := g.Connect(head, branchB); err != nil {
		t.Fatalf("Connect b: %v", err)
	}

	input := tensor.NewFull32(1, 1, 1, []float32{0})
	if _, err := g.Forward(map[int]tensor.Tensor{head: input}, true); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	gradA := tensor.NewFull32(1, 1, 1, []float32{1})
	gradB := tensor.NewFull32(1, 1, 1, []float32{3})
	inGrads, err := g.Backward(map[int]tensor.Tensor{branchA: gradA, branchB: gradB})
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	// tanh'(0) = 1 for every node, so the head's gradient is the fan-out
	// average of the two branch gradients: (1+3)/2 = 2.
	got := inGrads[head].GetValue(0, 0, 0)
	if got != 2 {
		t.Fatalf("head gradient = %v, want 2 (fan-out average)", got)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	g := New()
	a := g.AddNode(layer.NewActivation("a", layer.Tanh))
	b := g.AddNode(layer.NewActivation("b", layer.Tanh))

	if err := g.Connect(a, b); err != nil {
		t.Fatalf("Connect a->b: %v", err)
	}
	if err := g.Connect(b, a); err == nil {
		t.Fatalf("Connect b->a: expected cycle error, got nil")
	}

	if len(g.nodes[a].outgoing) != 1 || len(g.nodes[b].incoming) != 1 {
		t.Fatalf("rejected edge leaked into graph state")
	}
}

func TestConcatenateWideMultiInputOrder(t *testing.T) {
	g := New()
	opt := &optimizer.SGD{LearningRate: 0.1}
	a := g.AddNode(layer.NewFullyConnected("fa", 1, 2, 32, opt))
	b := g.AddNode(layer.NewFullyConnected("fb", 1, 3, 32, opt))
	cat := g.AddNode(layer.NewConcatenateWide("cat", 2))

	if err := g.Connect(a, cat); err != nil {
		t.Fatalf("Connect a->cat: %v", err)
	}
	if err := g.Connect(b, cat); err != nil {
		t.Fatalf("Connect b->cat: %v", err)
	}

	inA := tensor.NewFull32(1, 1, 1, []float32{1})
	inB := tensor.NewFull32(1, 1, 1, []float32{2})
	out, err := g.Forward(map[int]tensor.Tensor{a: inA, b: inB}, true)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if out[cat].Columns() != 5 {
		t.Fatalf("concat output columns = %d, want 5", out[cat].Columns())
	}
}
