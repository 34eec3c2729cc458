// CLI integration tests for engn. Each test runs the built binary against
// an isolated config and working directory.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the engn binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "engn-test-*")
	if err != nil {
		SetBuildErr(err)
		os.Exit(1)
	}
	binPath := filepath.Join(tmpDir, "engn")
	SetEngnBin(binPath)

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/engn")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		SetBuildErr(&BuildError{Err: err, Output: string(output)})
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)

	os.Exit(code)
}

const (
	statusEnumLine = `{"engn_type":"enum","name":"Status","values":["open","done"]}`
	taskDefLine    = `{"engn_type":"type_def","name":"Task","properties":[` +
		`{"name":"title","type":"str","presence":"required"},` +
		`{"name":"state","type":"Status","default":"open"}]}`
)

func TestCLIVersion(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunEngn("version")
	assert.Equal(t, "engn 0.1.0\n", result.Stdout)

	// version must not create the config directory as a side effect.
	_, err := os.Stat(env.ConfigDir)
	assert.True(t, os.IsNotExist(err), "config dir must not exist after version")
}

func TestCLICheckAllPassed(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteCollection("pm/tasks.jsonl",
		statusEnumLine,
		taskDefLine,
		`{"engn_type":"Task","title":"write docs","state":"open"}`,
	)

	result := env.MustRunEngn("check")
	assert.Equal(t, "All checks passed!\n", result.Stdout)

	// First run writes the default config file.
	data, err := os.ReadFile(filepath.Join(env.ConfigDir, "engn.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "data_paths:")
}

func TestCLICheckReportsErrors(t *testing.T) {
	env := NewTestEnv(t)
	file := env.WriteCollection("pm/tasks.jsonl",
		statusEnumLine,
		taskDefLine,
		`{"engn_type":"Task","state":"open"}`,
	)

	result := env.RunEngn("check")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stdout, "Found 1 errors.\n")
	assert.Contains(t, result.Stdout, file+" at line 3:  ERROR - ")
	assert.Contains(t, result.Stdout, "Task.title: Field required")
}

func TestCLICheckExplicitTarget(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteCollection("elsewhere/notes.jsonl",
		`{"engn_type":"type_def","name":"Note","properties":[{"name":"text","type":"str"}]}`,
		`{"engn_type":"Note","text":"hi"}`,
	)

	result := env.MustRunEngn("check", "elsewhere")
	assert.Equal(t, "All checks passed!\n", result.Stdout)
}

func TestCLICheckMissingTarget(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunEngn("check", "missing.jsonl")
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "Error: Target 'missing.jsonl' not found.\n", result.Stdout)
}

func TestCLICheckNoFiles(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunEngn("check")
	assert.Equal(t, "No JSONL files found to check.\n", result.Stdout)
}

func TestCLICheckConfiguredDataPaths(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteConfig("data_paths:\n  - data\nlog_level: info\n")
	env.WriteCollection("data/notes.jsonl",
		`{"engn_type":"type_def","name":"Note","properties":[{"name":"text","type":"str"}]}`,
		`{"engn_type":"Note","text":"hi"}`,
	)
	// Files under the default paths are ignored once data_paths says otherwise.
	env.WriteCollection("pm/broken.jsonl", `{"engn_type":"Ghost"}`)

	result := env.MustRunEngn("check")
	assert.Equal(t, "All checks passed!\n", result.Stdout)
}

func TestCLICheckStandardModules(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteCollection("pm/std_defs.jsonl",
		`{"engn_type":"enum","name":"Color","values":["red","blue"]}`,
	)
	env.WriteCollection("pm/paints.jsonl",
		`{"engn_type":"import","modules":["std"]}`,
		`{"engn_type":"type_def","name":"Paint","properties":[{"name":"color","type":"Color","presence":"required"}]}`,
		`{"engn_type":"Paint","color":"red"}`,
	)

	// Without the modules file the import cannot resolve.
	result := env.RunEngn("check")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stdout, "Module not found: std")

	modulesFile := filepath.Join(env.TempDir, "modules.jsonl")
	err := os.WriteFile(modulesFile,
		[]byte(`{"engn_type":"module","name":"std","files":["std_defs.jsonl"]}`+"\n"), 0o644)
	require.NoError(t, err)
	env.WriteConfig("data_paths:\n  - pm\nmodules_file: " + modulesFile + "\nlog_level: info\n")

	result = env.MustRunEngn("check")
	assert.Equal(t, "All checks passed!\n", result.Stdout)
}

func TestCLIPrint(t *testing.T) {
	env := NewTestEnv(t)
	file := env.WriteCollection("pm/tasks.jsonl",
		statusEnumLine,
		taskDefLine,
		`{"engn_type":"Task","title":"write docs","state":"open"}`,
	)

	result := env.MustRunEngn("print")
	assert.Contains(t, result.Stdout, "==================== "+file+" ====================")
	assert.Contains(t, result.Stdout, "[Enum] Status")
	assert.Contains(t, result.Stdout, "[Type] Task")
	assert.Contains(t, result.Stdout, "[Task]\n  title: write docs\n  state: open\n")
}

func TestCLIPrintNoFiles(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRunEngn("print")
	assert.Equal(t, "No JSONL files found to print.\n", result.Stdout)
}

func TestCLIPrintMissingTarget(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunEngn("print", "nowhere")
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "Error: Target 'nowhere' not found.\n", result.Stdout)
}

func TestCLIUsageErrors(t *testing.T) {
	env := NewTestEnv(t)

	result := env.RunEngn("bogus")
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Stderr, "unknown command")

	result = env.RunEngn("check", "a", "b")
	assert.Equal(t, 2, result.ExitCode)

	result = env.RunEngn("check", "--bogus-flag")
	assert.Equal(t, 2, result.ExitCode)
}
