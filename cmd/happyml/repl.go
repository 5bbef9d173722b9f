package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/example/happyml/internal/dslscript"
	"github.com/spf13/cobra"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive DSL session",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ctx := dslscript.NewContext(cfg.RepoRoot, os.Stdout, cfg.Training.Seed)
			return runRepl(ctx, os.Stdin, os.Stdout)
		},
	}
	return cmd
}

func runRepl(ctx *dslscript.Context, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()

		stmt, err := dslscript.Parse(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n> ", err)
			continue
		}
		if stmt == (dslscript.Statement{}) {
			fmt.Fprint(out, "> ")
			continue
		}

		result, err := dslscript.Execute(ctx, stmt)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else if result.Message != "" {
			fmt.Fprintln(out, result.Message)
		}
		if result.Exit {
			break
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}
