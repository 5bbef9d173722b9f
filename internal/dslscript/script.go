package dslscript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadScript reads a DSL script from path. A .yaml/.yml file is decoded as
// a YAML list of DSL statement lines; anything else is read as
// line-oriented text, one statement per line (blank lines and lines
// starting with # are skipped).
func LoadScript(path string) ([]Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dslscript: open script %q: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return parseYAMLScript(f)
	}
	return parseTextScript(f)
}

func parseYAMLScript(r io.Reader) ([]Statement, error) {
	var lines []string
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&lines); err != nil {
		return nil, fmt.Errorf("dslscript: decode YAML script: %w", err)
	}
	return parseLines(lines)
}

func parseTextScript(r io.Reader) ([]Statement, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dslscript: read script: %w", err)
	}
	return parseLines(lines)
}

func parseLines(lines []string) ([]Statement, error) {
	var statements []Statement
	for i, line := range lines {
		stmt, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("dslscript: line %d: %w", i+1, err)
		}
		if stmt == (Statement{}) {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
