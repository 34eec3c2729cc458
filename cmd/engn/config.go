// Config loading for the engn CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/engn/pkg/types"
)

const (
	configFileName = "engn"
	configFileType = "yaml"
	configFileExt  = "engn.yaml"

	// Config keys.
	cfgKeyDataPaths   = "data_paths"
	cfgKeyModulesFile = "modules_file"
	cfgKeyLogLevel    = "log_level"

	defaultLogLevel = "info"
)

// defaultConfigYAML is the content written to engn.yaml on first run.
const defaultConfigYAML = `# engn CLI configuration

# Directories scanned by check and print when no target is given,
# relative to the working directory.
data_paths:
  - pm
  - arch
  - ux

# Optional JSONL file whose module definitions load at startup.
# modules_file:

# Log level: trace, debug, info, warn, error.
log_level: info
`

// loadConfig reads engn.yaml from the resolved config directory using Viper.
// It creates the config directory and a default engn.yaml on first run.
// A missing engn.yaml is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDataPaths, types.DefaultDataPaths)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default engn.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
