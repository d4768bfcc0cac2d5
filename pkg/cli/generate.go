package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/pkg/capture"
	"github.com/getreplayd/replayd/pkg/fixture"
)

var (
	generateInput  string
	generateOutput string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Export captured traffic as YAML test fixtures",
	Long: `Generate reads the capture file and writes one replayable fixture case
per exchange: method, target, headers and the expected status. The
fixture file is consumed by external test harnesses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		input := generateInput
		if input == "" {
			input = cfg.Store.Path
		}

		store, err := capture.Open(input)
		if err != nil {
			return fmt.Errorf("opening capture store: %w", err)
		}
		defer func() { _ = store.Close() }()

		exchanges, err := store.All()
		if err != nil {
			return err
		}
		if len(exchanges) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No exchanges found in capture file")
			return nil
		}

		logger.Info("exporting fixtures", "exchanges", len(exchanges), "output", generateOutput)

		path, err := fixture.Export(exchanges, generateOutput)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d fixtures to %s\n", len(exchanges), path)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "Capture file path (default from config)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "tests", "Output directory for the fixture file")
	rootCmd.AddCommand(generateCmd)
}
