package dslscript

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/happyml/internal/column"
	"github.com/example/happyml/internal/dataset"
	"github.com/example/happyml/internal/encoding"
	"github.com/example/happyml/internal/engine/layer"
	"github.com/example/happyml/internal/engine/optimizer"
	"github.com/example/happyml/internal/engine/tensor"
	"github.com/example/happyml/internal/training"
)

// taskConfig is the persisted record behind one `create task` statement,
// grounded on the original's create_happyml_task parameter list.
type taskConfig struct {
	TaskType        string `json:"task_type"`
	TaskName        string `json:"task_name"`
	Goal            string `json:"goal"`
	DatasetName     string `json:"dataset_name"`
	TestDatasetName string `json:"test_dataset_name,omitempty"`
}

func executeCreateTask(ctx *Context, stmt *CreateTaskStatement) (Result, error) {
	if !ctx.DatasetExists(stmt.DatasetName) {
		return Result{Success: false, Message: fmt.Sprintf("Dataset %s does not exist.", stmt.DatasetName)}, nil
	}
	if stmt.TaskType != "label" {
		return Result{Success: false, Message: fmt.Sprintf("Unsupported task type %s.", stmt.TaskType)}, nil
	}
	if stmt.TestDatasetName != "" && !ctx.DatasetExists(stmt.TestDatasetName) {
		return Result{Success: false, Message: fmt.Sprintf("Dataset %s does not exist.", stmt.TestDatasetName)}, nil
	}

	if err := os.MkdirAll(ctx.TaskDir(stmt.TaskName), 0o755); err != nil {
		return Result{}, fmt.Errorf("dslscript: create task directory: %w", err)
	}
	cfg := taskConfig{
		TaskType:        stmt.TaskType,
		TaskName:        stmt.TaskName,
		Goal:            stmt.Goal,
		DatasetName:     stmt.DatasetName,
		TestDatasetName: stmt.TestDatasetName,
	}
	if err := writeJSON(ctx.TaskConfigPath(stmt.TaskName), cfg); err != nil {
		return Result{}, err
	}

	msg := fmt.Sprintf("Created task %s of type %s with goal %s using dataset %s", stmt.TaskName, stmt.TaskType, stmt.Goal, stmt.DatasetName)
	return Result{Success: true, Message: msg}, nil
}

func loadTaskConfig(ctx *Context, name string) (taskConfig, error) {
	var cfg taskConfig
	f, err := os.Open(ctx.TaskConfigPath(name))
	if err != nil {
		return cfg, fmt.Errorf("dslscript: task %q does not exist: %w", name, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("dslscript: task %q config corrupt: %w", name, err)
	}
	return cfg, nil
}

func openDataset(ctx *Context, name string) (*dataset.Dataset, *dataset.Reader, error) {
	f, err := os.Open(ctx.DatasetPath(name))
	if err != nil {
		return nil, nil, fmt.Errorf("dslscript: open dataset %q: %w", name, err)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("dslscript: stat dataset %q: %w", name, err)
	}
	reader, err := dataset.OpenReader(f, fi.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("dslscript: read dataset %q header: %w", name, err)
	}
	return dataset.New(reader), reader, nil
}

// goalHyperparameters translates the DSL's coarse speed/accuracy/memory
// goal into concrete network width, epoch budget, and parameter bit
// width. There is no architecture search here (Non-goal: dynamic graph
// shapes / automatic differentiation over arbitrary graphs) — goal only
// picks among these three fixed, hand-designed shapes.
func goalHyperparameters(goal string) (hidden, epochs, bits int, opt optimizer.Optimizer) {
	switch goal {
	case "speed":
		return 4, 60, 32, &optimizer.SGD{LearningRate: 0.1}
	case "memory":
		return 8, 150, 8, &optimizer.SGD{LearningRate: 0.1}
	default: // accuracy
		return 16, 300, 32, &optimizer.Adam{LearningRate: 0.01}
	}
}

// buildLabelNetwork builds Input(n)->FC(hidden)->Bias->tanh->FC(classes)
// ->Bias->SoftmaxCrossEntropy for a single-given-column, single-expected
// one-hot-label dataset header.
func buildLabelNetwork(header dataset.Header, goal string) (*training.Network, int, int, optimizer.Optimizer, error) {
	if len(header.Given) != 1 {
		return nil, 0, 0, nil, fmt.Errorf("dslscript: execute task currently supports exactly one given column, dataset has %d", len(header.Given))
	}
	if len(header.Expected) != 1 || header.Expected[0].Purpose != column.PurposeLabel {
		return nil, 0, 0, nil, fmt.Errorf("dslscript: execute task requires a single label-purpose expected column")
	}

	inputSize := header.Given[0].ElementCount()
	numClasses := header.Expected[0].ElementCount()
	hidden, epochs, bits, opt := goalHyperparameters(goal)

	net := training.NewNetwork()
	fc1 := net.AddFullyConnected(inputSize, hidden, bits, opt)
	bias1 := net.AddBias(hidden, bits, opt)
	act := net.AddActivation(layer.Tanh, tensor.Shape{Rows: 1, Columns: hidden, Channels: 1})
	fc2 := net.AddFullyConnected(hidden, numClasses, bits, opt)
	bias2 := net.AddBias(numClasses, bits, opt)
	sce := net.AddSoftmaxCrossEntropy()

	for _, edge := range [][2]int{{fc1, bias1}, {bias1, act}, {act, fc2}, {fc2, bias2}, {bias2, sce}} {
		if err := net.Connect(edge[0], edge[1]); err != nil {
			return nil, 0, 0, nil, fmt.Errorf("dslscript: wire network: %w", err)
		}
	}

	return net, epochs, net.Heads()[0], opt, nil
}

func executeExecuteTask(ctx *Context, stmt *ExecuteTaskStatement) (Result, error) {
	cfg, err := loadTaskConfig(ctx, stmt.TaskName)
	if err != nil {
		return Result{}, err
	}

	modelDir := ctx.ModelDir(stmt.TaskName, stmt.Label)
	var net *training.Network
	var header dataset.Header

	if !ctx.ModelExists(stmt.TaskName, stmt.Label) {
		trainDS, trainReader, err := openDataset(ctx, cfg.DatasetName)
		if err != nil {
			return Result{}, err
		}
		header = trainReader.Header()

		var testDS *dataset.Dataset
		if cfg.TestDatasetName != "" {
			testDS, _, err = openDataset(ctx, cfg.TestDatasetName)
			if err != nil {
				return Result{}, err
			}
		}

		built, epochs, _, opt, err := buildLabelNetwork(header, cfg.Goal)
		if err != nil {
			return Result{}, err
		}
		net = built

		loss := training.CategoricalCrossEntropy{}
		var exit training.ExitStrategy = training.FixedEpochs{Epochs: epochs}
		if testDS != nil {
			exit = training.NewTestPrecision(5)
		}
		trainer := training.NewTrainer(net, loss, exit, 8, ctx.Rand)
		result, err := trainer.Train(trainDS, testDS)
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: train task %q: %w", stmt.TaskName, err)
		}
		fmt.Fprintf(ctx.Out, "Trained %s: epochs=%d initial_loss=%.6f final_loss=%.6f\n",
			stmt.TaskName, result.EpochsRun, result.InitialLoss, result.FinalLoss)

		optimizerName := "sgd"
		switch opt.(type) {
		case *optimizer.Adam:
			optimizerName = "adam"
		case *optimizer.SGDMomentum:
			optimizerName = "sgd_momentum"
		}
		saveCfg := training.SaveConfig{Optimizer: optimizerName, LearningRate: 0.01, BiasLearningRate: 0.01, Loss: loss.Name(), BatchSize: 8}
		if err := training.Save(modelDir, net, saveCfg, header); err != nil {
			return Result{}, fmt.Errorf("dslscript: save task %q: %w", stmt.TaskName, err)
		}
	} else {
		loaded, _, err := training.Load(modelDir)
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: load task %q: %w", stmt.TaskName, err)
		}
		net = loaded
		headerFile, err := os.Open(fmt.Sprintf("%s/dataset.bin", modelDir))
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: load task %q dataset shape: %w", stmt.TaskName, err)
		}
		defer headerFile.Close()
		header, err = dataset.ReadHeader(headerFile)
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: load task %q dataset shape: %w", stmt.TaskName, err)
		}
	}

	headID := net.Heads()[0]
	outID := net.Outputs()[0]
	labels := header.Expected[0].OrderedLabels
	decoder := encoding.BestLabelDecoder{Labels: labels}

	switch {
	case stmt.DatasetName != "":
		return executePredictDataset(ctx, net, headID, outID, decoder, stmt)
	case stmt.Inputs != nil:
		return executePredictInputs(ctx, net, headID, outID, decoder, header, stmt)
	default:
		return Result{Success: false, Message: fmt.Sprintf("Failed to execute task %s because no input or dataset was provided.", stmt.TaskName)}, nil
	}
}

func executePredictDataset(ctx *Context, net *training.Network, headID, outID int, decoder encoding.BestLabelDecoder, stmt *ExecuteTaskStatement) (Result, error) {
	ds, _, err := openDataset(ctx, stmt.DatasetName)
	if err != nil {
		return Result{}, err
	}
	var n int
	for {
		pair, ok, err := ds.NextRecord()
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: execute task read row: %w", err)
		}
		if !ok {
			break
		}
		out, err := net.Graph.Forward(map[int]tensor.Tensor{headID: pair.Given[0]}, false)
		if err != nil {
			return Result{}, fmt.Errorf("dslscript: execute task forward: %w", err)
		}
		decoded := decoder.Decode(out[outID])
		fmt.Fprintf(ctx.Out, "row %d: %s\n", n, decoded.Text)
		n++
	}
	return Result{Success: true, Message: "Complete."}, nil
}

func executePredictInputs(ctx *Context, net *training.Network, headID, outID int, decoder encoding.BestLabelDecoder, header dataset.Header, stmt *ExecuteTaskStatement) (Result, error) {
	given := header.Given[0]
	if given.Purpose != column.PurposeNumber {
		return Result{Success: false, Message: fmt.Sprintf("Failed to execute task %s: only number-purpose given columns can be supplied as DSL input values.", stmt.TaskName)}, nil
	}
	count := given.ElementCount()
	if len(stmt.Inputs) != 1 {
		return Result{Success: false, Message: fmt.Sprintf("Failed to execute task %s: input must supply exactly one key matching the dataset's given column.", stmt.TaskName)}, nil
	}
	var values []string
	for _, v := range stmt.Inputs {
		values = v
	}
	if len(values) != count {
		return Result{Success: false, Message: fmt.Sprintf("Failed to execute task %s: input has %d values, column expects %d.", stmt.TaskName, len(values), count)}, nil
	}
	enc := encoding.ScalarEncoder{Rows: int(given.Rows), Columns: int(given.Columns), Channels: int(given.Channels)}
	input, err := enc.Encode(values)
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: execute task encode input: %w", err)
	}

	out, err := net.Graph.Forward(map[int]tensor.Tensor{headID: input}, false)
	if err != nil {
		return Result{}, fmt.Errorf("dslscript: execute task forward: %w", err)
	}
	decoded := decoder.Decode(out[outID])
	fmt.Fprintf(ctx.Out, "prediction: %s\n", decoded.Text)
	return Result{Success: true, Message: "Complete."}, nil
}
