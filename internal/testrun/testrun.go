// Package testrun persists generated unit tests and executes them with an
// external test command.
package testrun

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"repochat/internal/logger"
)

// DefaultPath is the single-slot location for generated tests. Repeated
// generation runs overwrite it.
const DefaultPath = "generated_test.py"

// DefaultCommand runs the generated test.
const DefaultCommand = "pytest"

// Runner writes generated test code to disk and runs it.
type Runner struct {
	// Path is the test file location (default DefaultPath).
	Path string
	// Command is the test executable invoked with the file path as its
	// only argument (default DefaultCommand).
	Command string
	// UniqueNames derives a fresh per-call file name from Path and a uuid,
	// for callers issuing concurrent generation requests. Off by default,
	// preserving single-slot overwrite behavior.
	UniqueNames bool
}

// Persist writes content to the configured test file and returns its path.
func (r *Runner) Persist(content string) (string, error) {
	path := r.Path
	if path == "" {
		path = DefaultPath
	}
	if r.UniqueNames {
		ext := filepath.Ext(path)
		path = strings.TrimSuffix(path, ext) + "_" + uuid.NewString() + ext
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create test directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write test file: %w", err)
	}
	logger.Info("generated test written to %s", path)
	return path, nil
}

// Run executes the test command against path and returns its combined
// output and exit status. A non-zero exit status (failing tests) is not an
// error; err is set only when the command could not be run at all.
func (r *Runner) Run(path string) (string, int, error) {
	command := r.Command
	if command == "" {
		command = DefaultCommand
	}
	logger.Debug("running %s %s", command, path)

	cmd := exec.Command(command, path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), exitErr.ExitCode(), nil
		}
		return "", 0, fmt.Errorf("run %s: %w", command, err)
	}
	return out.String(), 0, nil
}
