package dslscript

import "strings"

var helpTopics = map[string]string{
	"": `Available commands:
  create dataset <name> [with header] (with given|expected <type>[(r,c,ch)] at <index>)+ using file://<path>
  create task <type> <name> [with goal speed|accuracy|memory] [with test <dataset>] using <dataset>
  execute task <name> [with label <variant>] using dataset <name>
  execute task <name> [with label <variant>] using input (<key>: <value>, ...)
  print raw|pretty <dataset> [limit <n>]
  help [dataset|task|print]
  exit
Type 'help <topic>' for more detail on a specific command.`,
	"dataset": `create dataset builds a binary dataset file from a CSV, TSV, or TXT
source. Each 'with' clause declares one column group: its side (given or
expected), data type (number, label, image, or text), optional shape
(rows,columns,channels), and the raw source column index it starts at.
Label columns are one-hot encoded against the distinct values seen in
the source file. Duplicate rows are dropped; number columns are
normalized and standardized against the whole dataset.`,
	"task": `create task declares a goal-oriented training job against an existing
dataset. execute task trains a model the first time it runs (picking
network size, epoch budget, and optimizer from the goal: speed,
accuracy, or memory) and reuses the saved model on every run after
that. Supply either 'using dataset <name>' to batch-predict every row
of a dataset, or 'using input (key: value, ...)' to predict from a
single value.`,
	"print": `print raw shows a dataset's stored tensor values exactly as encoded.
print pretty decodes each column back to a human-readable form: label
columns show their original string, image columns render as ASCII art,
number columns are denormalized back to their original scale. limit
<n> stops after n rows.`,
}

func executeHelp(ctx *Context, stmt *HelpStatement) (Result, error) {
	topic := strings.ToLower(strings.TrimSpace(stmt.Topic))
	text, ok := helpTopics[topic]
	if !ok {
		return Result{Success: false, Message: "No help available for that topic."}, nil
	}
	return Result{Success: true, Message: text}, nil
}
