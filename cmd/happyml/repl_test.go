package main

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/example/happyml/internal/dslscript"
)

func TestRunRepl_HelpThenExit(t *testing.T) {
	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx := dslscript.NewContext(t.TempDir(), outW, 1)
		done <- runRepl(ctx, inR, outW)
		outW.Close()
	}()

	if _, err := inW.WriteString("help\nexit\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	inW.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(outR)
	for scanner.Scan() {
		out.WriteString(scanner.Text())
		out.WriteString("\n")
	}

	if err := <-done; err != nil {
		t.Fatalf("runRepl: %v", err)
	}

	if !strings.Contains(out.String(), "Goodbye") {
		t.Errorf("expected exit message, got:\n%s", out.String())
	}
}
