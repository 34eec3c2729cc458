package types

import "errors"

// DefaultDataPaths are the directories scanned for collection files when no
// explicit target is given, relative to the working directory.
var DefaultDataPaths = []string{"pm", "arch", "ux"}

// Config holds the data-path configuration for checker and printer runs.
type Config struct {
	// DataPaths lists the directories scanned for *.jsonl files.
	DataPaths []string `json:"data_paths" yaml:"data_paths"`

	// ModulesFile optionally points at a standard-modules JSONL file whose
	// module definitions are preloaded into the run's registry.
	ModulesFile string `json:"modules_file" yaml:"modules_file"`

	// LogLevel selects the zerolog level for the run ("debug", "info", ...).
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Config validation errors.
var (
	ErrNoDataPaths   = errors.New("data_paths must not be empty")
	ErrDataPathEmpty = errors.New("data_paths entries must not be empty")
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	paths := make([]string, len(DefaultDataPaths))
	copy(paths, DefaultDataPaths)
	return Config{DataPaths: paths, LogLevel: "info"}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if len(c.DataPaths) == 0 {
		return ErrNoDataPaths
	}
	for _, p := range c.DataPaths {
		if p == "" {
			return ErrDataPathEmpty
		}
	}
	return nil
}
