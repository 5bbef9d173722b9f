package training

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
)

// SaveConfig is persisted as configuration.happyml's key:value header.
type SaveConfig struct {
	Optimizer        string
	LearningRate     float32
	BiasLearningRate float32
	Loss             string
	BatchSize        int
}

const configFilename = "configuration.happyml"

// NewOptimizer builds the optimizer cfg.Optimizer names ("sgd",
// "sgd_momentum", "adam"), shared by every parameterized node in a model —
// matching the source's one-optimizer-config-per-model convention.
func (cfg SaveConfig) NewOptimizer() (optimizer.Optimizer, error) {
	switch cfg.Optimizer {
	case "", "sgd":
		return &optimizer.SGD{LearningRate: cfg.LearningRate, BiasLearningRate: cfg.BiasLearningRate}, nil
	case "sgd_momentum":
		return &optimizer.SGDMomentum{LearningRate: cfg.LearningRate}, nil
	case "adam":
		return &optimizer.Adam{LearningRate: cfg.LearningRate}, nil
	default:
		return nil, fmt.Errorf("training: unknown optimizer %q", cfg.Optimizer)
	}
}

// Save writes a model directory: configuration.happyml (config + vertex/edge
// lines), one weight-tensor file per parameter label, and dataset.bin with
// zero rows to persist the encoder shapes recorded in header.
func Save(dir string, net *Network, cfg SaveConfig, header dataset.Header) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("training: save: %w", err)
	}
	if err := saveConfiguration(dir, net, cfg); err != nil {
		return err
	}
	if err := saveParameters(dir, net); err != nil {
		return err
	}
	return saveDatasetShape(dir, header)
}

func saveConfiguration(dir string, net *Network, cfg SaveConfig) error {
	f, err := os.Create(filepath.Join(dir, configFilename))
	if err != nil {
		return fmt.Errorf("training: save configuration: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "optimizer: %s\n", cfg.Optimizer)
	fmt.Fprintf(w, "learning_rate: %s\n", formatFloat(cfg.LearningRate))
	fmt.Fprintf(w, "bias_learning_rate: %s\n", formatFloat(cfg.BiasLearningRate))
	fmt.Fprintf(w, "loss: %s\n", cfg.Loss)
	fmt.Fprintf(w, "batch_size: %d\n", cfg.BatchSize)

	heads, outputs := net.Heads(), net.Outputs()
	for _, id := range net.Order {
		spec := net.Specs[id]
		activation := spec.Activation
		if activation == "" {
			activation = "none"
		}
		fmt.Fprintf(w, "vertex %d %t %t %s %s %t %t %d %d %d %d %d %d %d %d %d\n",
			id, containsID(heads, id), containsID(outputs, id), spec.Kind, activation, true, spec.UseBias, spec.Bits,
			spec.InShape.Rows, spec.InShape.Columns, spec.InShape.Channels,
			spec.OutShape.Rows, spec.OutShape.Columns, spec.OutShape.Channels,
			orConcatA(spec), spec.Kernel)
	}
	for _, id := range net.Order {
		outgoing := net.Graph.Node(id).OutgoingIDs()
		if len(outgoing) == 0 {
			continue
		}
		fmt.Fprintf(w, "edge %d", id)
		for _, to := range outgoing {
			fmt.Fprintf(w, " %d", to)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// orConcatA folds ConcatenateWide's colsA into the same "filters" column a
// convolution node uses, since the two kinds never coexist in one vertex
// line and the format has no spare field.
func orConcatA(spec NodeSpec) int {
	if spec.Kind == KindConcatenateWide {
		return spec.ConcatA
	}
	return spec.Filters
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func saveParameters(dir string, net *Network) error {
	for _, id := range net.Order {
		holder, ok := net.Layer(id).(layer.ParameterHolder)
		if !ok {
			continue
		}
		for label, param := range holder.Parameters() {
			if err := saveTensorFile(dir, label, param); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveTensorFile(dir, label string, t tensor.Tensor) error {
	f, err := os.Create(filepath.Join(dir, label+".tensor"))
	if err != nil {
		return fmt.Errorf("training: save parameter %q: %w", label, err)
	}
	defer f.Close()
	return tensor.Save(f, t, true)
}

func saveDatasetShape(dir string, header dataset.Header) error {
	f, err := os.Create(filepath.Join(dir, "dataset.bin"))
	if err != nil {
		return fmt.Errorf("training: save dataset shape: %w", err)
	}
	defer f.Close()
	return dataset.WriteHeader(f, header)
}

type vertexRecord struct {
	id             int
	acceptsInput   bool
	producesOutput bool
	kind           NodeKind
	activation     layer.ActivationKind
	useBias        bool
	bits           int
	inShape        tensor.Shape
	outShape       tensor.Shape
	filtersOrConcatA int
	kernel         int
}

type edgeRecord struct {
	from int
	to   []int
}

// Load rebuilds a Network from a model directory written by Save. Every
// parameterized node shares one freshly constructed optimizer instance per
// cfg.Optimizer kind, and its weights are loaded from dir/<label>.tensor.
func Load(dir string) (*Network, SaveConfig, error) {
	cfg, vertices, edges, err := readConfiguration(dir)
	if err != nil {
		return nil, SaveConfig{}, err
	}
	opt, err := cfg.NewOptimizer()
	if err != nil {
		return nil, SaveConfig{}, err
	}

	net := NewNetwork()
	idMap := map[int]int{} // persisted id -> live Graph id
	for _, v := range vertices {
		liveID, err := addVertex(net, v, opt)
		if err != nil {
			return nil, SaveConfig{}, err
		}
		idMap[v.id] = liveID
	}
	for _, e := range edges {
		from, ok := idMap[e.from]
		if !ok {
			return nil, SaveConfig{}, fmt.Errorf("training: load: edge references unknown vertex %d", e.from)
		}
		for _, to := range e.to {
			toID, ok := idMap[to]
			if !ok {
				return nil, SaveConfig{}, fmt.Errorf("training: load: edge references unknown vertex %d", to)
			}
			if err := net.Connect(from, toID); err != nil {
				return nil, SaveConfig{}, err
			}
		}
	}

	if err := loadParameters(dir, net); err != nil {
		return nil, SaveConfig{}, err
	}
	return net, cfg, nil
}

func addVertex(net *Network, v vertexRecord, opt optimizer.Optimizer) (int, error) {
	switch v.kind {
	case KindFullyConnected:
		return net.AddFullyConnected(v.inShape.Columns, v.outShape.Columns, v.bits, opt), nil
	case KindBias:
		return net.AddBias(v.outShape.Columns, v.bits, opt), nil
	case KindActivation:
		return net.AddActivation(v.activation, v.inShape), nil
	case KindFlatten:
		return net.AddFlatten(v.inShape), nil
	case KindConvolution2dValid:
		return net.AddConvolution2dValid(v.kernel, v.filtersOrConcatA, v.bits, opt), nil
	case KindNormalization:
		return net.AddNormalization(), nil
	case KindConcatenateWide:
		return net.AddConcatenateWide(v.filtersOrConcatA), nil
	case KindSoftmaxCrossEntropy:
		return net.AddSoftmaxCrossEntropy(), nil
	default:
		return 0, fmt.Errorf("training: load: unknown node type %q", v.kind)
	}
}

func loadParameters(dir string, net *Network) error {
	for _, id := range net.Order {
		holder, ok := net.Layer(id).(layer.ParameterHolder)
		if !ok {
			continue
		}
		for label := range holder.Parameters() {
			t, err := loadTensorFile(dir, label)
			if err != nil {
				return err
			}
			if err := holder.SetParameter(label, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func loadTensorFile(dir, label string) (tensor.Tensor, error) {
	f, err := os.Open(filepath.Join(dir, label+".tensor"))
	if err != nil {
		return nil, fmt.Errorf("training: load parameter %q: %w", label, err)
	}
	defer f.Close()
	full, err := tensor.Load(f)
	if err != nil {
		return nil, fmt.Errorf("training: load parameter %q: %w", label, err)
	}
	return full, nil
}

func readConfiguration(dir string) (SaveConfig, []vertexRecord, []edgeRecord, error) {
	f, err := os.Open(filepath.Join(dir, configFilename))
	if err != nil {
		return SaveConfig{}, nil, nil, fmt.Errorf("training: load configuration: %w", err)
	}
	defer f.Close()

	var cfg SaveConfig
	var vertices []vertexRecord
	var edges []edgeRecord

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "optimizer:"):
			cfg.Optimizer = fields[1]
		case strings.HasPrefix(line, "learning_rate:"):
			cfg.LearningRate = parseFloat(fields[1])
		case strings.HasPrefix(line, "bias_learning_rate:"):
			cfg.BiasLearningRate = parseFloat(fields[1])
		case strings.HasPrefix(line, "loss:"):
			cfg.Loss = fields[1]
		case strings.HasPrefix(line, "batch_size:"):
			cfg.BatchSize = int(parseFloat(fields[1]))
		case fields[0] == "vertex":
			v, err := parseVertex(fields)
			if err != nil {
				return SaveConfig{}, nil, nil, err
			}
			vertices = append(vertices, v)
		case fields[0] == "edge":
			e, err := parseEdge(fields)
			if err != nil {
				return SaveConfig{}, nil, nil, err
			}
			edges = append(edges, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return SaveConfig{}, nil, nil, fmt.Errorf("training: load configuration: %w", err)
	}
	return cfg, vertices, edges, nil
}

func parseVertex(fields []string) (vertexRecord, error) {
	if len(fields) != 17 {
		return vertexRecord{}, fmt.Errorf("training: load: malformed vertex line (%d fields)", len(fields))
	}
	ints := make([]int, 0, 12)
	for _, f := range fields[8:17] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return vertexRecord{}, fmt.Errorf("training: load: malformed vertex field %q: %w", f, err)
		}
		ints = append(ints, n)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return vertexRecord{}, fmt.Errorf("training: load: malformed vertex id %q: %w", fields[1], err)
	}
	return vertexRecord{
		id:               id,
		acceptsInput:     fields[2] == "true",
		producesOutput:   fields[3] == "true",
		kind:             NodeKind(fields[4]),
		activation:       layer.ActivationKind(fields[5]),
		useBias:          fields[7] == "true",
		bits:             ints[0],
		inShape:          tensor.Shape{Rows: ints[1], Columns: ints[2], Channels: ints[3]},
		outShape:         tensor.Shape{Rows: ints[4], Columns: ints[5], Channels: ints[6]},
		filtersOrConcatA: ints[7],
		kernel:           ints[8],
	}, nil
}

func parseEdge(fields []string) (edgeRecord, error) {
	if len(fields) < 2 {
		return edgeRecord{}, fmt.Errorf("training: load: malformed edge line")
	}
	from, err := strconv.Atoi(fields[1])
	if err != nil {
		return edgeRecord{}, fmt.Errorf("training: load: malformed edge source %q: %w", fields[1], err)
	}
	to := make([]int, 0, len(fields)-2)
	for _, f := range fields[2:] {
		id, err := strconv.Atoi(f)
		if err != nil {
			return edgeRecord{}, fmt.Errorf("training: load: malformed edge target %q: %w", f, err)
		}
		to = append(to, id)
	}
	return edgeRecord{from: from, to: to}, nil
}

func parseFloat(s string) float32 {
	v, _ := strconv.ParseFloat(s, 32)
	return float32(v)
}
