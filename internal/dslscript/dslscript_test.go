package dslscript

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCreateDataset(t *testing.T) {
	line := `create dataset iris with header with given number(4) at 0 with expected label at 4 using file://iris.csv`
	stmt, err := Parse(line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.CreateDataset == nil {
		t.Fatalf("expected CreateDataset statement")
	}
	cd := stmt.CreateDataset
	if cd.Name != "iris" || !cd.HasHeader || cd.Location != "file://iris.csv" {
		t.Fatalf("unexpected statement: %+v", cd)
	}
	if len(cd.ColumnGroups) != 2 {
		t.Fatalf("expected 2 column groups, got %d", len(cd.ColumnGroups))
	}
	if cd.ColumnGroups[0].DataType != "number" || cd.ColumnGroups[0].Columns != 4 || cd.ColumnGroups[0].AtColumnIndex != 0 {
		t.Fatalf("unexpected given group: %+v", cd.ColumnGroups[0])
	}
	if cd.ColumnGroups[1].DataType != "label" || cd.ColumnGroups[1].Given || cd.ColumnGroups[1].AtColumnIndex != 4 {
		t.Fatalf("unexpected expected group: %+v", cd.ColumnGroups[1])
	}
}

func TestParseCreateTaskWithGoalAndTest(t *testing.T) {
	stmt, err := Parse(`create task label species with goal speed with test iris_test using iris`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ct := stmt.CreateTask
	if ct == nil {
		t.Fatalf("expected CreateTask statement")
	}
	if ct.TaskType != "label" || ct.TaskName != "species" || ct.Goal != "speed" || ct.TestDatasetName != "iris_test" || ct.DatasetName != "iris" {
		t.Fatalf("unexpected statement: %+v", ct)
	}
}

func TestParseExecuteTaskWithInputMap(t *testing.T) {
	stmt, err := Parse(`execute task species using input (measurements: [5.1, 3.5, 1.4, 0.2])`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	et := stmt.ExecuteTask
	if et == nil {
		t.Fatalf("expected ExecuteTask statement")
	}
	values := et.Inputs["measurements"]
	if len(values) != 4 || values[0] != "5.1" || values[3] != "0.2" {
		t.Fatalf("unexpected input values: %v", values)
	}
}

func TestParseExecuteTaskUsingDatasetWithLabel(t *testing.T) {
	stmt, err := Parse(`execute task species with label fast using dataset iris_test`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	et := stmt.ExecuteTask
	if et.Label != "fast" || et.DatasetName != "iris_test" {
		t.Fatalf("unexpected statement: %+v", et)
	}
}

func TestParsePrintWithLimit(t *testing.T) {
	stmt, err := Parse(`print pretty iris limit 5`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := stmt.Print
	if p.Raw || p.DatasetName != "iris" || p.Limit != 5 {
		t.Fatalf("unexpected statement: %+v", p)
	}
}

func TestParseBlankAndCommentLinesSkip(t *testing.T) {
	for _, line := range []string{"", "   ", "# a comment"} {
		stmt, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		if stmt != (Statement{}) {
			t.Fatalf("Parse(%q) = %+v, want zero value", line, stmt)
		}
	}
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	if _, err := Parse("delete dataset foo"); err == nil {
		t.Fatalf("expected error for unknown statement")
	}
}

func TestLoadScriptYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")
	content := "- \"help\"\n- \"exit\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	statements, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(statements) != 2 || statements[0].Help == nil || statements[1].Exit == nil {
		t.Fatalf("unexpected statements: %+v", statements)
	}
}

// TestCreateDatasetCreateTaskExecuteTaskEndToEnd runs the full pipeline: a
// tiny CSV of two linearly separable classes becomes a dataset, a task is
// created against it, and execute task both trains a model and predicts
// from a direct input value.
func TestCreateDatasetCreateTaskExecuteTaskEndToEnd(t *testing.T) {
	repoRoot := t.TempDir()
	sourceDir := t.TempDir()
	csvPath := filepath.Join(sourceDir, "points.csv")

	var rows [][2]string
	for i := 0; i < 20; i++ {
		rows = append(rows, [2]string{"1.0", "a"}, [2]string{"-1.0", "b"})
	}
	var buf bytes.Buffer
	buf.WriteString("x,label\n")
	for _, r := range rows {
		buf.WriteString(r[0] + "," + r[1] + "\n")
	}
	if err := os.WriteFile(csvPath, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	var out bytes.Buffer
	ctx := NewContext(repoRoot, &out, 42)

	createDataset := `create dataset points with header with given number at 0 with expected label at 1 using file://` + csvPath
	stmt, err := Parse(createDataset)
	if err != nil {
		t.Fatalf("Parse create dataset: %v", err)
	}
	if result, err := Execute(ctx, stmt); err != nil || !result.Success {
		t.Fatalf("execute create dataset: result=%+v err=%v", result, err)
	}
	if !ctx.DatasetExists("points") {
		t.Fatalf("expected points dataset to exist")
	}

	stmt, err = Parse(`create task label classifier with goal speed using points`)
	if err != nil {
		t.Fatalf("Parse create task: %v", err)
	}
	if result, err := Execute(ctx, stmt); err != nil || !result.Success {
		t.Fatalf("execute create task: result=%+v err=%v", result, err)
	}
	if !ctx.TaskExists("classifier") {
		t.Fatalf("expected classifier task to exist")
	}

	stmt, err = Parse(`execute task classifier using input (x: 1.0)`)
	if err != nil {
		t.Fatalf("Parse execute task: %v", err)
	}
	result, err := Execute(ctx, stmt)
	if err != nil {
		t.Fatalf("execute task: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected successful prediction, got %+v", result)
	}
	if !ctx.ModelExists("classifier", "default") {
		t.Fatalf("expected a saved model after first execute")
	}

	out.Reset()
	stmt, _ = Parse(`execute task classifier using input (x: -1.0)`)
	if result, err := Execute(ctx, stmt); err != nil || !result.Success {
		t.Fatalf("second execute task: result=%+v err=%v", result, err)
	}
}
