// Package doctor provides environment preflight checks for happyml.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// RepoRoot is the directory expected to contain datasets/, tasks/,
	// and models/ subdirectories.
	RepoRoot string
	// CreateMissingDirs creates datasets/, tasks/, and models/ under
	// RepoRoot if they don't already exist, instead of failing the check.
	CreateMissingDirs bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	root := cfg.RepoRoot
	if root == "" {
		root = "."
	}

	for _, dir := range []string{"datasets", "tasks", "models"} {
		path := filepath.Join(root, dir)
		if _, err := os.Stat(path); err != nil {
			if cfg.CreateMissingDirs {
				if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
					res.fail(fmt.Sprintf("%s directory: %v", dir, mkErr))
					fmt.Fprintf(w, "%s %s directory: could not create (%v)\n", FailMark, dir, mkErr)
					continue
				}
				fmt.Fprintf(w, "%s %s directory: created at %s\n", PassMark, dir, path)
				continue
			}
			res.fail(fmt.Sprintf("%s directory: not found at %s", dir, path))
			fmt.Fprintf(w, "%s %s directory: not found at %s\n", FailMark, dir, path)
			continue
		}
		fmt.Fprintf(w, "%s %s directory: %s\n", PassMark, dir, path)
	}

	fmt.Fprintf(w, "%s runtime: %s/%s, %d CPUs, go%s\n", PassMark, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version())

	return res
}
