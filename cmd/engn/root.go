// Root command for the engn CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/engn/internal/checker"
	"github.com/mesh-intelligence/engn/internal/paths"
	"github.com/mesh-intelligence/engn/internal/storage"
	"github.com/mesh-intelligence/engn/pkg/engine"
	"github.com/mesh-intelligence/engn/pkg/types"
)

// Global flag values.
var (
	flagConfigDir string
	flagVerbose   bool
)

// Run-wide state assembled by PersistentPreRunE so all subcommands can
// use it.
var (
	appConfig types.Config
	registry  *types.Registry
	logger    zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "engn",
	Short:         "engn is a schema-driven JSONL data engine",
	Version:       engine.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version needs no configuration and must not create the
		// config directory as a side effect.
		if cmd.Name() == "version" {
			return nil
		}

		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		appConfig = types.Config{
			DataPaths:   v.GetStringSlice(cfgKeyDataPaths),
			ModulesFile: v.GetString(cfgKeyModulesFile),
			LogLevel:    v.GetString(cfgKeyLogLevel),
		}
		if err := appConfig.Validate(); err != nil {
			return err
		}

		logger = newLogger(appConfig.LogLevel, flagVerbose)
		registry = types.NewRegistry()
		loadStandardModules()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(printCmd)
}

// newLogger builds the console logger for the run. --verbose forces debug
// regardless of the configured level.
func newLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

// loadStandardModules registers the modules named by the configured modules
// file. Failures are logged and tolerated: a broken modules file must not
// block checking files that never import from it.
func loadStandardModules() {
	if appConfig.ModulesFile == "" {
		return
	}
	items, err := storage.NewDefinitions(appConfig.ModulesFile, logger).Read()
	if err != nil {
		logger.Debug().Err(err).Str("file", appConfig.ModulesFile).
			Msg("standard modules not loaded")
		return
	}
	loaded := 0
	for _, item := range items {
		mod, ok := item.(types.Module)
		if !ok {
			continue
		}
		if err := registry.AddModule(mod); err != nil {
			logger.Debug().Err(err).Str("module", mod.Name).Msg("module skipped")
			continue
		}
		loaded++
	}
	if loaded > 0 {
		logger.Debug().Int("modules", loaded).Str("file", appConfig.ModulesFile).
			Msg("standard modules loaded")
	}
}

// newChecker builds a Checker rooted at the current working directory.
func newChecker() (*checker.Checker, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return checker.New(workDir, appConfig, registry,
		logger.With().Str("component", "checker").Logger()), nil
}

// usageArgs wraps a cobra argument validator so violations map to the
// usage exit code.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}
