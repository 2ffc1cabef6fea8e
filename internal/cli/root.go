package cli

import (
	"context"

	"resumescan/internal/common"
	"resumescan/internal/config"
	"resumescan/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumescan",
	Short: "Score resumes for ATS readiness using AI",
	Long: `Resumescan analyzes plain-text resumes with a chain of AI providers and
returns a normalized report: overall and ATS scores, keyword coverage,
suggestions, project ideas and, for paid tiers, job-description matching.

Analyses can be cached in Redis and recorded in MongoDB, where free accounts
are limited to a fixed number of analyses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// startRuntime builds the runtime for a command from the context's config and logger
func startRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()
	return newRuntime(ctx, getConfigFromContext(ctx), getLoggerFromContext(ctx))
}

// resolveFormat applies the configured default output format and validates it
func resolveFormat(cmd *cobra.Command, format *string) error {
	cfg := getConfigFromContext(cmd.Context())
	resolved, err := common.ResolveOutputFormat(*format, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return err
	}
	*format = resolved
	return nil
}

// completeFormats offers the configured output formats for --format
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := getConfigFromContext(cmd.Context())
	return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(industriesCmd)
	rootCmd.AddCommand(versionCmd)
}
