package doctor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/happyml/internal/doctor"
)

func TestRun_AllDirsPresentPasses(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"datasets", "tasks", "models"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}

	var out strings.Builder
	result := doctor.Run(doctor.Config{RepoRoot: root}, &out)

	if result.Failed() {
		t.Errorf("expected all checks to pass; failures: %v", result.Failures())
	}
	if !strings.Contains(out.String(), "datasets directory") {
		t.Error("output should mention datasets directory")
	}
}

func TestRun_MissingDirFails(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "datasets"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	var out strings.Builder
	result := doctor.Run(doctor.Config{RepoRoot: root}, &out)

	if !result.Failed() {
		t.Fatal("expected failure when tasks/models directories are missing")
	}
	if !hasFailureContaining(result.Failures(), "tasks") {
		t.Errorf("expected failure mentioning tasks, got: %v", result.Failures())
	}
}

func TestRun_CreateMissingDirs(t *testing.T) {
	root := t.TempDir()

	var out strings.Builder
	result := doctor.Run(doctor.Config{RepoRoot: root, CreateMissingDirs: true}, &out)

	if result.Failed() {
		t.Fatalf("expected no failures with CreateMissingDirs, got: %v", result.Failures())
	}
	for _, dir := range []string{"datasets", "tasks", "models"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Errorf("expected %s to be created: %v", dir, err)
		}
	}
}

func TestRun_OutputContainsPassAndFailMarkers(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "datasets"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	var out strings.Builder
	doctor.Run(doctor.Config{RepoRoot: root}, &out)

	body := out.String()
	if !strings.Contains(body, doctor.PassMark) {
		t.Errorf("output missing pass marker %q:\n%s", doctor.PassMark, body)
	}
	if !strings.Contains(body, doctor.FailMark) {
		t.Errorf("output missing fail marker %q:\n%s", doctor.FailMark, body)
	}
}

func TestRun_ReportsRuntimeInfo(t *testing.T) {
	root := t.TempDir()
	var out strings.Builder
	doctor.Run(doctor.Config{RepoRoot: root, CreateMissingDirs: true}, &out)

	if !strings.Contains(out.String(), "runtime:") {
		t.Errorf("expected runtime info line, got:\n%s", out.String())
	}
}

func hasFailureContaining(failures []string, substr string) bool {
	substr = strings.ToLower(substr)
	for _, f := range failures {
		if strings.Contains(strings.ToLower(f), substr) {
			return true
		}
	}
	return false
}
