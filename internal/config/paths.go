package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory containing the running binary.
// Falls back to the working directory when the executable path cannot be
// resolved, which happens under `go run` and in some test binaries.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err == nil {
		if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
			return filepath.Dir(resolved), nil
		}
		return filepath.Dir(exe), nil
	}

	wd, wdErr := os.Getwd()
	if wdErr != nil {
		return "", fmt.Errorf("failed to resolve executable dir: %w", err)
	}
	return wd, nil
}

// ResolvePaths anchors every relative directory in cfg under the executable
// directory. Absolute directories pass through untouched.
func ResolvePaths(cfg PathsConfig) (PathsConfig, error) {
	if cfg.ExecutableDir == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return cfg, err
		}
		cfg.ExecutableDir = dir
	}

	cfg.DataDir = anchor(cfg.ExecutableDir, cfg.DataDir)
	cfg.ReportsDir = anchor(cfg.ExecutableDir, cfg.ReportsDir)
	cfg.LogsDir = anchor(cfg.ExecutableDir, cfg.LogsDir)
	return cfg, nil
}

// EnsureDirectories creates the configured directories when missing.
func EnsureDirectories(cfg PathsConfig) error {
	for _, dir := range []string{cfg.DataDir, cfg.ReportsDir, cfg.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func anchor(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
