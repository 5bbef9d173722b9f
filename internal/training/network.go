package training

import (
	"fmt"

	"github.com/example/happyml/internal/engine/graph"
	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

// NodeKind names a layer kind for persistence. A layer.Layer alone does
// not carry enough metadata to reconstruct itself from a configuration
// file, so Network tracks a NodeSpec alongside every graph node.
type NodeKind string

const (
	KindFullyConnected      NodeKind = "fully_connected"
	KindBias                NodeKind = "bias"
	KindActivation          NodeKind = "activation"
	KindFlatten             NodeKind = "flatten"
	KindConvolution2dValid  NodeKind = "convolution2d_valid"
	KindNormalization       NodeKind = "normalization"
	KindConcatenateWide     NodeKind = "concatenate_wide"
	KindSoftmaxCrossEntropy NodeKind = "softmax_cross_entropy"
)

// NodeSpec is the persisted metadata for one network node: enough to
// reconstruct the layer.Layer that produced it, plus its place in the
// vertex/edge file format.
type NodeSpec struct {
	ID         int
	Kind       NodeKind
	Label      string
	Activation layer.ActivationKind
	Bits       int
	UseBias    bool
	InShape    tensor.Shape
	OutShape   tensor.Shape
	Filters    int
	Kernel     int
	ConcatA    int
}

// Network couples a graph.Graph with the NodeSpec metadata needed to save
// and reload a model. Parameterized nodes' labels are derived from their
// node id (e.g. "3_full", "3_bias", "7_c2dv"), not chosen by the caller:
// the vertex/edge file format has no label field, so a node's id is the
// only stable handle a reload has for matching weight files back to
// layers.
type Network struct {
	Graph *graph.Graph
	Specs map[int]NodeSpec
	Order []int
}

func NewNetwork() *Network {
	return &Network{Graph: graph.New(), Specs: map[int]NodeSpec{}}
}

func (n *Network) Connect(fromID, toID int) error {
	return n.Graph.Connect(fromID, toID)
}

func (n *Network) register(spec NodeSpec, l layer.Layer) int {
	id := n.Graph.AddNode(l)
	spec.ID = id
	spec.Label = l.Label()
	n.Specs[id] = spec
	n.Order = append(n.Order, id)
	return id
}

func (n *Network) AddFullyConnected(in, out, bits int, opt optimizer.Optimizer) int {
	id := n.Graph.NextID()
	l := layer.NewFullyConnected(fmt.Sprintf("%d_full", id), in, out, bits, opt)
	return n.register(NodeSpec{
		Kind:     KindFullyConnected,
		Bits:     bits,
		InShape:  tensor.Shape{Rows: 1, Columns: in, Channels: 1},
		OutShape: tensor.Shape{Rows: 1, Columns: out, Channels: 1},
	}, l)
}

func (n *Network) AddBias(size, bits int, opt optimizer.Optimizer) int {
	id := n.Graph.NextID()
	l := layer.NewBias(fmt.Sprintf("%d_bias", id), size, bits, opt)
	return n.register(NodeSpec{
		Kind:     KindBias,
		Bits:     bits,
		UseBias:  true,
		InShape:  tensor.Shape{Rows: 1, Columns: size, Channels: 1},
		OutShape: tensor.Shape{Rows: 1, Columns: size, Channels: 1},
	}, l)
}

func (n *Network) AddActivation(kind layer.ActivationKind, shape tensor.Shape) int {
	id := n.Graph.NextID()
	l := layer.NewActivation(fmt.Sprintf("%d_act", id), kind)
	return n.register(NodeSpec{
		Kind:       KindActivation,
		Activation: kind,
		InShape:    shape,
		OutShape:   shape,
	}, l)
}

func (n *Network) AddFlatten(inShape tensor.Shape) int {
	id := n.Graph.NextID()
	l := layer.NewFlatten(fmt.Sprintf("%d_flatten", id), inShape)
	return n.register(NodeSpec{
		Kind:     KindFlatten,
		InShape:  inShape,
		OutShape: l.OutputShape(),
	}, l)
}

func (n *Network) AddConvolution2dValid(kernelSize, filterCount, bits int, opt optimizer.Optimizer) int {
	id := n.Graph.NextID()
	l := layer.NewConvolution2dValid(fmt.Sprintf("%d_c2dv", id), kernelSize, filterCount, bits, opt)
	return n.register(NodeSpec{
		Kind:    KindConvolution2dValid,
		Bits:    bits,
		Filters: filterCount,
		Kernel:  kernelSize,
	}, l)
}

func (n *Network) AddNormalization() int {
	id := n.Graph.NextID()
	l := layer.NewNormalization(fmt.Sprintf("%d_norm", id))
	return n.register(NodeSpec{Kind: KindNormalization}, l)
}

func (n *Network) AddConcatenateWide(colsA int) int {
	id := n.Graph.NextID()
	l := layer.NewConcatenateWide(fmt.Sprintf("%d_concat", id), colsA)
	return n.register(NodeSpec{Kind: KindConcatenateWide, ConcatA: colsA}, l)
}

func (n *Network) AddSoftmaxCrossEntropy() int {
	id := n.Graph.NextID()
	l := layer.NewSoftmaxCrossEntropy(fmt.Sprintf("%d_sce", id))
	return n.register(NodeSpec{Kind: KindSoftmaxCrossEntropy}, l)
}

// Heads returns node ids with no incoming edges, in construction order.
func (n *Network) Heads() []int { return n.Graph.Heads() }

// Outputs returns node ids with no outgoing edges, in construction order.
func (n *Network) Outputs() []int { return n.Graph.Outputs() }

// Layer returns the layer.Layer backing node id, or nil if id is unknown.
func (n *Network) Layer(id int) layer.Layer {
	node := n.Graph.Node(id)
	if node == nil {
		return nil
	}
	return node.Layer()
}
