// Package graph assembles layers into a DAG supporting forward fan-out
// and backward gradient accumulation with fan-out averaging.
package graph

import (
	"fmt"

	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/tensor"
)

// Node wraps one layer. Incoming edges are conceptually weak references to
// predecessors (a node does not own its predecessors); outgoing edges are
// the strong, owning direction. Go's garbage collector handles the
// resulting reference cycle without help, so both directions are plain
// slices here — the weak/strong distinction would only matter for
// teardown order, and the collector handles teardown.
type Node struct {
	id    int
	layer layer.Layer

	incoming []*Node
	outgoing []*Node

	pendingForward  map[int]tensor.Tensor
	pendingBackward map[int]tensor.Tensor
}

func (n *Node) ID() int            { return n.id }
func (n *Node) Layer() layer.Layer { return n.layer }

// OutgoingIDs returns the ids of this node's successors, in connect order.
func (n *Node) OutgoingIDs() []int {
	ids := make([]int, len(n.outgoing))
	for i, succ := range n.outgoing {
		ids[i] = succ.id
	}
	return ids
}

// IncomingIDs returns the ids of this node's predecessors, in connect order.
func (n *Node) IncomingIDs() []int {
	ids := make([]int, len(n.incoming))
	for i, pred := range n.incoming {
		ids[i] = pred.id
	}
	return ids
}

// Graph is a builder and executor for a DAG of layers. Node IDs are
// assigned by a monotonic, non-atomic counter: a Graph must be built from
// a single goroutine.
type Graph struct {
	nextID int
	nodes  map[int]*Node
	order  []int
}

func New() *Graph {
	return &Graph{nodes: map[int]*Node{}}
}

// NextID returns the id AddNode would assign if called right now. Valid
// only when nothing else adds a node in between — Graph construction is
// single-threaded, so a builder can reserve a label derived from a node's
// id before constructing the layer that will occupy it.
func (g *Graph) NextID() int { return g.nextID }

// AddNode registers l as a new node and returns its id.
func (g *Graph) AddNode(l layer.Layer) int {
	id := g.nextID
	g.nextID++
	g.nodes[id] = &Node{
		id:              id,
		layer:           l,
		pendingForward:  map[int]tensor.Tensor{},
		pendingBackward: map[int]tensor.Tensor{},
	}
	g.order = append(g.order, id)
	return id
}

// Connect adds an edge fromID -> toID. It refuses edges that would make
// the graph cyclic, leaving the graph unchanged.
func (g *Graph) Connect(fromID, toID int) error {
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("graph: no node %d", fromID)
	}
	to, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("graph: no node %d", toID)
	}

	from.outgoing = append(from.outgoing, to)
	to.incoming = append(to.incoming, from)

	if g.hasCycle() {
		from.outgoing = from.outgoing[:len(from.outgoing)-1]
		to.incoming = to.incoming[:len(to.incoming)-1]
		return fmt.Errorf("graph: edge %d->%d would create a cycle", fromID, toID)
	}
	return nil
}

// Node returns the node registered under id, or nil if id is unknown.
func (g *Graph) Node(id int) *Node {
	return g.nodes[id]
}

// Heads returns node ids with no incoming edges, in construction order.
func (g *Graph) Heads() []int {
	var heads []int
	for _, id := range g.order {
		if len(g.nodes[id].incoming) == 0 {
			heads = append(heads, id)
		}
	}
	return heads
}

// Outputs returns node ids with no outgoing edges, in construction order.
func (g *Graph) Outputs() []int {
	var outputs []int
	for _, id := range g.order {
		if len(g.nodes[id].outgoing) == 0 {
			outputs = append(outputs, id)
		}
	}
	return outputs
}

func (g *Graph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[int]int, len(g.nodes))

	var visit func(id int) bool
	visit = func(id int) bool {
		color[id] = gray
		for _, succ := range g.nodes[id].outgoing {
			switch color[succ.id] {
			case gray:
				return true
			case white:
				if visit(succ.id) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// Forward drives forward propagation starting from the given head-node
// inputs. A node runs as soon as every incoming edge's next_input slot is
// populated, in the order edges were connected, matching its layer's
// expected input order. Returns the output tensor of every output node.
func (g *Graph) Forward(inputs map[int]tensor.Tensor, forTraining bool) (map[int]tensor.Tensor, error) {
	for _, n := range g.nodes {
		n.pendingForward = map[int]tensor.Tensor{}
	}
	outputs := map[int]tensor.Tensor{}

	var visit func(n *Node, external tensor.Tensor) error
	visit = func(n *Node, external tensor.Tensor) error {
		var ins []tensor.Tensor
		if len(n.incoming) == 0 {
			ins = []tensor.Tensor{external}
		} else {
			ins = make([]tensor.Tensor, len(n.incoming))
			for i, pred := range n.incoming {
				ins[i] = n.pendingForward[pred.id]
			}
		}

		out, err := n.layer.Forward(ins, forTraining)
		if err != nil {
			return fmt.Errorf("graph: node %d (%s): %w", n.id, n.layer.Label(), err)
		}
		out = tensor.MaterializeIfDeep(out)

		if len(n.outgoing) == 0 {
			outputs[n.id] = out
			return nil
		}
		for _, succ := range n.outgoing {
			succ.pendingForward[n.id] = out
			if len(succ.pendingForward) == len(succ.incoming) {
				if err := visit(succ, nil); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for id, in := range inputs {
		n, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("graph: no head node %d", id)
		}
		if err := visit(n, in); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

// Backward drives backward propagation starting from the given
// output-node gradients. When a predecessor has multiple outgoing edges,
// it waits for a gradient on each before summing them, dividing by the
// fan-out, and recursing. Returns the gradient with respect to each head
// node's external input.
func (g *Graph) Backward(grads map[int]tensor.Tensor) (map[int]tensor.Tensor, error) {
	for _, n := range g.nodes {
		n.pendingBackward = map[int]tensor.Tensor{}
	}
	inputGrads := map[int]tensor.Tensor{}

	var visit func(n *Node, external tensor.Tensor) error
	visit = func(n *Node, external tensor.Tensor) error {
		var outErr tensor.Tensor
		if len(n.outgoing) == 0 {
			outErr = external
		} else {
			sum := tensor.Materialize(n.pendingBackward[n.outgoing[0].id])
			for _, succ := range n.outgoing[1:] {
				sum = tensor.Materialize(tensor.Add(sum, n.pendingBackward[succ.id]))
			}
			if fanOut := len(n.outgoing); fanOut > 1 {
				sum = tensor.Materialize(tensor.ScalarDivide(sum, float32(fanOut)))
			}
			outErr = sum
		}

		inGrads, err := n.layer.Backward(outErr)
		if err != nil {
			return fmt.Errorf("graph: node %d (%s): %w", n.id, n.layer.Label(), err)
		}

		if len(n.incoming) == 0 {
			if len(inGrads) > 0 {
				inputGrads[n.id] = inGrads[0]
			}
			return nil
		}
		for i, pred := range n.incoming {
			pred.pendingBackward[n.id] = inGrads[i]
			if len(pred.pendingBackward) == len(pred.outgoing) {
				if err := visit(pred, nil); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for id, grad := range grads {
		n, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("graph: no output node %d", id)
		}
		if err := visit(n, grad); err != nil {
			return nil, err
		}
	}
	return inputGrads, nil
}
