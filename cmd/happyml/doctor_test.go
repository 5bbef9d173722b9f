package main

import (
	"testing"

	"github.com/example/happyml/internal/config"
)

func TestNewDoctorCmd_HasCreateMissingDirsFlag(t *testing.T) {
	cmd := newDoctorCmd()
	if cmd.Flags().Lookup("create-missing-dirs") == nil {
		t.Error("expected --create-missing-dirs flag to be registered")
	}
}

func TestNewDoctorCmd_FailsWithoutLoadedConfig(t *testing.T) {
	orig := activeCfg
	t.Cleanup(func() { activeCfg = orig })
	activeCfg = config.Config{}

	cmd := newDoctorCmd()
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected error when config has not been loaded via PersistentPreRunE")
	}
}
