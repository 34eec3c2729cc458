// Package integration provides CLI and engine integration tests for engn.
package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var (
	// engnBin is the path to the built engn binary.
	engnBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetEngnBin sets the path to the engn binary (called from TestMain).
func SetEngnBin(path string) {
	engnBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// TestEnv provides an isolated test environment with its own config
// directory and working directory.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	WorkDir   string
}

// NewTestEnv creates a new isolated test environment. The config directory
// is not pre-created: first-run behavior (default engn.yaml) is part of
// what the tests observe.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build engn: %v", buildErr)
	}
	if engnBin == "" {
		t.Fatal("engn binary not built (engnBin is empty)")
	}

	tempDir := t.TempDir()
	workDir := filepath.Join(tempDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}

	return &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: filepath.Join(tempDir, "config"),
		WorkDir:   workDir,
	}
}

// WriteCollection writes a JSONL file under the working directory, creating
// parent directories as needed, and returns its absolute path.
func (e *TestEnv) WriteCollection(relPath string, lines ...string) string {
	e.t.Helper()

	path := filepath.Join(e.WorkDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("failed to create collection dir: %v", err)
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write collection: %v", err)
	}
	return path
}

// WriteConfig writes an engn.yaml into the config directory, replacing the
// default the CLI would otherwise create.
func (e *TestEnv) WriteConfig(content string) {
	e.t.Helper()

	if err := os.MkdirAll(e.ConfigDir, 0o755); err != nil {
		e.t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(e.ConfigDir, "engn.yaml"), []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write config: %v", err)
	}
}

// CmdResult holds the result of an engn command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RunEngn executes the engn CLI with the given arguments from the
// environment's working directory.
func (e *TestEnv) RunEngn(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config", e.ConfigDir}, args...)
	cmd := exec.Command(engnBin, allArgs...)
	cmd.Dir = e.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			e.t.Fatalf("failed to run engn: %v", err)
		}
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRunEngn executes the engn CLI and fails the test if it returns non-zero.
func (e *TestEnv) MustRunEngn(args ...string) CmdResult {
	e.t.Helper()
	result := e.RunEngn(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("engn %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}
