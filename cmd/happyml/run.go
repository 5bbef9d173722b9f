package main

import (
	"os"

	"github.com/example/happyml/internal/dslscript"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a DSL script file (.happyml text or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			statements, err := dslscript.LoadScript(args[0])
			if err != nil {
				return err
			}

			ctx := dslscript.NewContext(cfg.RepoRoot, os.Stdout, cfg.Training.Seed)
			return dslscript.RunScript(ctx, statements)
		},
	}
	return cmd
}
