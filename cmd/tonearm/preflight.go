package main

import (
	"fmt"
	"os/exec"

	"tonearm/internal/config"
)

// checkExternalTools verifies the external binaries required by enabled
// features exist before a run starts, so a missing tool fails fast instead
// of failing per file.
func checkExternalTools(cfg *config.Config) error {
	if cfg.Fingerprint.Enabled {
		if _, err := exec.LookPath(cfg.FpcalcBinary()); err != nil {
			return fmt.Errorf("fingerprinting is enabled but %q was not found in PATH: %w", cfg.FpcalcBinary(), err)
		}
	}
	if cfg.Analysis.VerifyLossless {
		if _, err := exec.LookPath(cfg.FlacBinary()); err != nil {
			return fmt.Errorf("lossless verification is enabled but %q was not found in PATH: %w", cfg.FlacBinary(), err)
		}
	}
	return nil
}
