package cli

import (
	"fmt"

	"resumescan/internal/common"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's recorded analyses, newest first",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &historyConfig.OutputFormat)
	},
	RunE: runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show [analysis-id]",
	Short: "Print a recorded analysis",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &showConfig.OutputFormat)
	},
	RunE: runShow,
}

var (
	historyConfig common.CommandConfig
	historyUser   string
	historyLimit  int

	showConfig common.CommandConfig
)

func init() {
	historyCmd.Flags().StringVar(&historyUser, "user", "", "Account email")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of analyses to list (default 50)")
	historyCmd.Flags().StringVarP(&historyConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	historyCmd.Flags().StringVar(&historyConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = historyCmd.MarkFlagRequired("user")
	_ = historyCmd.RegisterFlagCompletionFunc("format", completeFormats)

	showCmd.Flags().StringVarP(&showConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	showCmd.Flags().StringVar(&showConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = showCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	rt, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.requireStore()
	if err != nil {
		return err
	}

	history, err := s.History(cmd.Context(), historyUser, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	logger.Debug("History loaded", "user", historyUser, "entries", len(history))
	return common.NewOutputHandler(logger).HandleOutput(history, historyConfig)
}

func runShow(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	rt, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.requireStore()
	if err != nil {
		return err
	}

	doc, err := s.GetAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return common.NewOutputHandler(logger).HandleOutput(doc.Output(), showConfig)
}
