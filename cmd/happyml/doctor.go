package main

import (
	"errors"
	"os"

	"github.com/example/happyml/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var createMissingDirs bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the repo layout is ready for datasets/tasks/models",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result := doctor.Run(doctor.Config{
				RepoRoot:          cfg.RepoRoot,
				CreateMissingDirs: createMissingDirs,
			}, os.Stdout)

			if result.Failed() {
				return errors.New("doctor checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&createMissingDirs, "create-missing-dirs", false, "Create datasets/, tasks/, and models/ under the repo root if missing")

	return cmd
}
