package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/pkg/capture"
	"github.com/getreplayd/replayd/pkg/chaos"
)

var (
	chaosLevel string
	chaosInput string
	chaosURL   string
)

var chaosCmd = &cobra.Command{
	Use:   "chaos",
	Short: "Replay captured traffic against a target with injected faults",
	Long: `Chaos replays every captured exchange in order against the target URL.
A level-controlled fraction of replays gets a random fault: an added
delay, a forced client timeout, or a simulated connection failure.
Levels: mild, moderate, extreme.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		level := chaosLevel
		if level == "" {
			level = cfg.Chaos.Level
		}
		input := chaosInput
		if input == "" {
			input = cfg.Store.Path
		}
		url := chaosURL
		if url == "" {
			url = cfg.Chaos.TargetURL
		}

		store, err := capture.Open(input)
		if err != nil {
			return fmt.Errorf("opening capture store: %w", err)
		}
		defer func() { _ = store.Close() }()

		engine := chaos.New(store, chaos.Options{
			Level:     chaos.ParseLevel(level),
			TargetURL: url,
			Logger:    logger,
		})

		report, err := engine.Run(cmd.Context())
		if err != nil {
			return err
		}

		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	chaosCmd.Flags().StringVarP(&chaosLevel, "level", "l", "", "Chaos level: mild, moderate, extreme (default from config)")
	chaosCmd.Flags().StringVarP(&chaosInput, "input", "i", "", "Capture file path (default from config)")
	chaosCmd.Flags().StringVarP(&chaosURL, "url", "u", "", "Target base URL to replay against (default from config)")
	rootCmd.AddCommand(chaosCmd)
}
