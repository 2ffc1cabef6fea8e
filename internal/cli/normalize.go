package cli

import (
	"context"
	"fmt"

	"resumescan/internal/ai"
	"resumescan/internal/common"
	"resumescan/internal/types"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [raw-response-file]",
	Short: "Repair and normalize a saved model response without calling a provider",
	Long: `Normalize reads a raw AI response (possibly fenced, truncated or wrapped in
prose), repairs it into JSON and produces the same normalized, enriched
analysis that analyze would. Pass --resume to fill in the candidate name and
industry keywords from the resume text.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &normalizeConfig.OutputFormat)
	},
	RunE: runNormalize,
}

var (
	normalizeConfig     common.CommandConfig
	normalizeResumeFile string
)

func init() {
	normalizeCmd.Flags().StringVar(&normalizeResumeFile, "resume", "", "Resume file the response was produced for")
	normalizeCmd.Flags().StringVarP(&normalizeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	normalizeCmd.Flags().StringVar(&normalizeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	_ = normalizeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig := normalizeConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize

	files := args
	if normalizeResumeFile != "" {
		files = append([]string{args[0]}, normalizeResumeFile)
	}

	createInput := func(inputs []common.InputFile) (types.NormalizeInput, error) {
		input := types.NormalizeInput{RawResponse: inputs[0].Content}
		if len(inputs) > 1 {
			input.ResumeText = inputs[1].Content
		}
		return input, nil
	}

	normalizeOperation := func(_ context.Context, input types.NormalizeInput) (types.AnalyzeOutput, *ai.TokenUsage, error) {
		out, err := ai.NormalizeRaw(input)
		return out, nil, err
	}

	err := common.RunAICommand(cmd.Context(), logger, cmdConfig, files, createInput, normalizeOperation, nil)
	if err != nil {
		return fmt.Errorf("failed to normalize response: %w", err)
	}
	return nil
}
