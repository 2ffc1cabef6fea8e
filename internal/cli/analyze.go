package cli

import (
	"context"
	"fmt"

	"resumescan/internal/ai"
	"resumescan/internal/common"
	"resumescan/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Analyze a resume for ATS readiness and content quality",
	Long: `Analyze a plain-text resume with the configured AI providers. Providers are
tried in order; a rate-limited provider is retried once before moving on.

The analysis includes:
- Overall, ATS and content scores
- Detected industry and experience level
- Found and missing keywords for the industry
- Prioritized suggestions and project ideas
- Job-description matching (pro and lifetime tiers, with --job)`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &analyzeConfig.OutputFormat)
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeFlags  analyzeOptions
)

// analyzeOptions are the analysis flags shared by analyze, batch and watch
type analyzeOptions struct {
	JobFile string
	Tier    string
	User    string
	NoSave  bool
}

func (o *analyzeOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Tier, "tier", types.TierFree, "Subscription tier: free, pro or lifetime")
	cmd.Flags().StringVar(&o.User, "user", "", "Account email used for quota and history")
	cmd.Flags().BoolVar(&o.NoSave, "no-save", false, "Do not record the analysis in history")
	_ = cmd.RegisterFlagCompletionFunc("tier", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{types.TierFree, types.TierPro, types.TierLifetime}, cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFlags.JobFile, "job", "", "Job description file to match against (paid tiers)")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	rt, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	cmdConfig := analyzeConfig
	cmdConfig.MaxFileSize = rt.cfg.App.MaxFileSize

	files := args
	if analyzeFlags.JobFile != "" {
		files = append([]string{args[0]}, analyzeFlags.JobFile)
	}

	var fileSize int64
	createInput := func(inputs []common.InputFile) (types.AnalyzeInput, error) {
		if len(inputs) != len(files) {
			return types.AnalyzeInput{}, fmt.Errorf("expected %d files, got %d", len(files), len(inputs))
		}
		fileSize = inputs[0].Size
		input := analyzeFlags.input(inputs[0])
		if len(inputs) > 1 {
			input.JobDescription = inputs[1].Content
		}
		return input, nil
	}

	logDetails := func(input types.AnalyzeInput, cfg common.CommandConfig) {
		logger.Info("Starting resume analysis",
			"file", input.FileName,
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"tier", input.Tier,
			"output_format", cfg.OutputFormat)
	}

	p := rt.pipeline()
	analyzeOperation := func(ctx context.Context, input types.AnalyzeInput) (types.AnalyzeOutput, *ai.TokenUsage, error) {
		return p.Run(ctx, analysisRequest{Input: input, FileSize: fileSize, Save: !analyzeFlags.NoSave})
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		cmdConfig,
		files,
		createInput,
		analyzeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Resume analysis completed successfully")
	return nil
}

// input builds the analysis input for one resume file
func (o *analyzeOptions) input(file common.InputFile) types.AnalyzeInput {
	return types.AnalyzeInput{
		ResumeText: file.Content,
		FileName:   file.Name,
		Tier:       o.Tier,
		UserEmail:  o.User,
	}
}
