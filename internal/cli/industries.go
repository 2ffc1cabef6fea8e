package cli

import (
	"resumescan/internal/common"
	"resumescan/internal/formatters"

	"github.com/spf13/cobra"
)

var industriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "List the industries, keywords and project ideas used for enrichment",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &industriesConfig.OutputFormat)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLoggerFromContext(cmd.Context())
		return common.NewOutputHandler(logger).HandleOutput(formatters.IndustryTable(), industriesConfig)
	},
}

var industriesConfig common.CommandConfig

func init() {
	industriesCmd.Flags().StringVarP(&industriesConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	industriesCmd.Flags().StringVar(&industriesConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = industriesCmd.RegisterFlagCompletionFunc("format", completeFormats)
}
