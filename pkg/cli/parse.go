package cli

import (
	"github.com/spf13/cobra"

	"github.com/getreplayd/replayd/pkg/classify"
)

var (
	parseQuery    string
	parseProtocol string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Classify a query, command, topic or path for a given protocol",
	Long: `Parse analyzes a single input string using the classifier for the given
protocol and prints a breakdown. Supported protocols: sql, redis, http,
kafka, grpc.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := classify.For(parseProtocol)
		if err != nil {
			return err
		}
		return d.Describe(cmd.OutOrStdout(), parseQuery)
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseQuery, "query", "q", "", "Input to classify")
	parseCmd.Flags().StringVarP(&parseProtocol, "protocol", "p", "sql", "Protocol: sql, redis, http, kafka, grpc")
	_ = parseCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(parseCmd)
}
