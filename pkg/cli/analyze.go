package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/pkg/analyzer"
	"github.com/getreplayd/replayd/pkg/capture"
)

var analyzeInput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze captured traffic for endpoints, latency and dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		input := analyzeInput
		if input == "" {
			input = cfg.Store.Path
		}

		store, err := capture.Open(input)
		if err != nil {
			return fmt.Errorf("opening capture store: %w", err)
		}
		defer func() { _ = store.Close() }()

		count, err := store.Count()
		if err != nil {
			return err
		}
		logger.Info("analyzing captured traffic", "input", input, "exchanges", count)

		report, err := analyzer.New(store).Analyze()
		if err != nil {
			return err
		}

		report.Print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Capture file path (default from config)")
	rootCmd.AddCommand(analyzeCmd)
}
