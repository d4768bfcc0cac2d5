// Package cli implements the replayd command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/internal/config"
	"github.com/getreplayd/replayd/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	verbose   bool
	logFormat string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "replayd",
	Short: "replayd captures live backend traffic and replays it under chaos",
	Long: `replayd observes a running backend through an interception proxy, stores
every exchange in a SQLite capture file, and later replays the capture
against a target with injected faults, or analyzes it for behavioral
patterns.

Configuration can be provided via flags, REPLAYD_* environment variables,
or a config.yaml in the working directory.`,
	// No Run function here means 'replayd' with no args prints help text.
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")
}

// newLogger builds the logger for a command run from the loaded config and
// the persistent flags. Flags win over config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := logging.ParseLevel(cfg.Log.Level)
	if verbose {
		level = logging.LevelDebug
	}
	format := cfg.Log.Format
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: logging.ParseFormat(format),
	})
}

// loadConfig wraps config.Load with a uniform error message.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
