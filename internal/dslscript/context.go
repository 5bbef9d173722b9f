package dslscript

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

// Context carries the state one DSL session needs across statements: the
// repo root all relative dataset/task/model paths hang off of, the writer
// statement output is printed to, and a shared random source for dataset
// shuffling and weight initialization.
type Context struct {
	RepoRoot string
	Out      io.Writer
	Rand     *rand.Rand
}

// NewContext builds a Context rooted at repoRoot.
func NewContext(repoRoot string, out io.Writer, seed int64) *Context {
	return &Context{RepoRoot: repoRoot, Out: out, Rand: rand.New(rand.NewSource(seed))}
}

func (c *Context) datasetsDir() string { return filepath.Join(c.RepoRoot, "datasets") }
func (c *Context) tasksDir() string    { return filepath.Join(c.RepoRoot, "tasks") }
func (c *Context) modelsDir() string   { return filepath.Join(c.RepoRoot, "models") }

// DatasetDir returns <repo>/datasets/<name>.
func (c *Context) DatasetDir(name string) string { return filepath.Join(c.datasetsDir(), name) }

// DatasetPath returns <repo>/datasets/<name>/dataset.bin.
func (c *Context) DatasetPath(name string) string { return filepath.Join(c.DatasetDir(name), "dataset.bin") }

// DatasetConfigPath returns <repo>/datasets/<name>/dataset.config.
func (c *Context) DatasetConfigPath(name string) string {
	return filepath.Join(c.DatasetDir(name), "dataset.config")
}

// DatasetExists reports whether name has a dataset.bin on disk.
func (c *Context) DatasetExists(name string) bool {
	_, err := os.Stat(c.DatasetPath(name))
	return err == nil
}

// TaskDir returns <repo>/tasks/<name>.
func (c *Context) TaskDir(name string) string { return filepath.Join(c.tasksDir(), name) }

// TaskConfigPath returns <repo>/tasks/<name>/task.json.
func (c *Context) TaskConfigPath(name string) string { return filepath.Join(c.TaskDir(name), "task.json") }

// TaskExists reports whether name has a task.json on disk.
func (c *Context) TaskExists(name string) bool {
	_, err := os.Stat(c.TaskConfigPath(name))
	return err == nil
}

// ModelDir returns <repo>/models/<taskName>/<label>, the directory a
// trained model variant's configuration.happyml and weight files live in.
func (c *Context) ModelDir(taskName, label string) string {
	if label == "" {
		label = "default"
	}
	return filepath.Join(c.modelsDir(), taskName, label)
}

// ModelExists reports whether taskName/label has a saved configuration.
func (c *Context) ModelExists(taskName, label string) bool {
	_, err := os.Stat(filepath.Join(c.ModelDir(taskName, label), "configuration.happyml"))
	return err == nil
}

// Result is the outcome of executing one statement.
type Result struct {
	Exit    bool
	Success bool
	Message string
}
