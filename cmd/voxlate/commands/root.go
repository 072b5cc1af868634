package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/cmd/voxlate/internal/config"
)

var (
	// Global flags
	verbose   bool
	configDir string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "voxlate",
	Short: "Voice-preserving translation pipeline",
	Long: `voxlate - translate text and speak it in your own voice.

Text is translated between languages with a local M2M100 model and
rendered as speech conditioned on a speaker profile trained from your
voice samples. A GPU is used when the inference runtime reports a
compatible one; otherwise everything runs on the CPU.

Commands:
  profile    Manage the speaker profile (train, status, reset, restore)
  translate  Translate text
  speak      Translate text and synthesize speech in the trained voice
  languages  List supported languages
  status     Show device, model, profile and cache status
  cache      Manage the translation result cache
  config     Show and edit settings
  version    Show version information

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/voxlate/
  Linux:   ~/.config/voxlate/
  Windows: %AppData%/voxlate/

Examples:
  # Train a profile from two or more WAV clips, then speak
  voxlate profile train clip1.wav clip2.wav
  voxlate speak "Hello, how are you today?" --to Spanish

  # Plain translation, no audio
  voxlate translate "Good morning" --to German

  # Point the CLI at a non-default inference runtime
  voxlate config set runtime_url http://gpu-box:8991`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default: OS config dir)")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	var (
		cfg *config.Config
		err error
	)
	if configDir != "" {
		cfg, err = config.LoadFrom(configDir)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		// Deferred: commands that need config get a clear error from
		// GetConfig(), while 'voxlate version' still works.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// initLogging routes slog to stderr. Library packages log through
// slog.Default(); without -v only warnings and errors surface.
func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// GetConfig returns the global configuration.
// Returns an error if the config could not be loaded (e.g. HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
