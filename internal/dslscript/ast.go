package dslscript

// ColumnGroupSpec is one parsed `with {given|expected} ... at <index>`
// clause of a create-dataset statement.
type ColumnGroupSpec struct {
	Given                   bool
	DataType                string // label | number | text | image
	Label                   string
	Rows, Columns, Channels int
	AtColumnIndex           int
}

// CreateDatasetStatement is `create dataset <name> [with header] (with ...
// at <i>)+ using file://<path>`.
type CreateDatasetStatement struct {
	Name         string
	HasHeader    bool
	ColumnGroups []ColumnGroupSpec
	Location     string
}

// CreateTaskStatement is `create task {label} <name> [with goal ...]
// [with test <dataset>] using <dataset>`.
type CreateTaskStatement struct {
	TaskType        string
	TaskName        string
	Goal            string
	DatasetName     string
	TestDatasetName string
}

// ExecuteTaskStatement is `execute task <name> [with label <variant>]
// using {dataset <name> | input (<key>: <value>, ...)}`.
type ExecuteTaskStatement struct {
	TaskName    string
	Label       string
	DatasetName string
	Inputs      map[string][]string
}

// PrintStatement is `print {raw|pretty} <dataset_name> [limit <n>]`.
type PrintStatement struct {
	DatasetName string
	Raw         bool
	Limit       int // -1 means unlimited
}

// HelpStatement is `help [dataset|task|print]`; other topics get a
// "no help available" reply.
type HelpStatement struct {
	Topic string
}

// ExitStatement is the bare `exit` statement.
type ExitStatement struct{}

// Statement is the sum of every DSL statement kind the parser produces.
// Exactly one of these is non-nil.
type Statement struct {
	CreateDataset *CreateDatasetStatement
	CreateTask    *CreateTaskStatement
	ExecuteTask   *ExecuteTaskStatement
	Print         *PrintStatement
	Help          *HelpStatement
	Exit          *ExitStatement
}
