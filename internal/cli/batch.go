package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resumescan/internal/common"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/types"
	"resumescan/internal/utils"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var batchCmd = &cobra.Command{
	Use:   "batch [resume-files...]",
	Short: "Analyze several resumes concurrently",
	Long: `Batch analyzes every resume given on the command line. Each analysis is
written next to its resume as <name>.analysis.json and a summary table of
all results is printed. A failed resume does not stop the others.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveFormat(cmd, &batchConfig.OutputFormat)
	},
	RunE: runBatch,
}

var (
	batchConfig      common.CommandConfig
	batchFlags       analyzeOptions
	batchConcurrency int
)

func init() {
	batchFlags.register(batchCmd)
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "Number of resumes analyzed at once")
	batchCmd.Flags().StringVarP(&batchConfig.OutputFile, "output", "o", "", "Summary output file path (default: stdout)")
	batchCmd.Flags().StringVar(&batchConfig.OutputFormat, "format", "", "Summary output format: json, text, or markdown")
	_ = batchCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runBatch(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())
	rt, err := startRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	fa := newFileAnalyzer(rt.pipeline(), rt.cfg.App.MaxFileSize, batchFlags, logger)
	logger.Info("Starting batch analysis", "files", len(args), "concurrency", batchConcurrency)

	summaries, runErr := analyzeAll(cmd.Context(), fa, args, batchConcurrency)
	if len(summaries) > 0 {
		if err := common.NewOutputHandler(logger).HandleOutput(summaries, batchConfig); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("batch finished with failures: %w", runErr)
	}
	logger.Info("Batch analysis completed successfully", "files", len(summaries))
	return nil
}

// fileAnalyzer analyzes resume files and writes each result beside its resume
type fileAnalyzer struct {
	pipeline *pipeline
	files    *common.FileProcessor
	output   *common.OutputHandler
	options  analyzeOptions
	logger   *resumescanErrors.Logger
	now      func() time.Time
}

func newFileAnalyzer(p *pipeline, maxFileSize int64, options analyzeOptions, logger *resumescanErrors.Logger) *fileAnalyzer {
	return &fileAnalyzer{
		pipeline: p,
		files:    common.NewFileProcessor(logger, maxFileSize),
		output:   common.NewOutputHandler(logger),
		options:  options,
		logger:   logger,
		now:      time.Now,
	}
}

// AnalyzeFile runs one resume through the pipeline and writes <name>.analysis.json
func (fa *fileAnalyzer) AnalyzeFile(ctx context.Context, path string) (types.AnalysisSummary, error) {
	inputs, err := fa.files.ValidateAndReadFiles(path)
	if err != nil {
		return types.AnalysisSummary{}, err
	}
	file := inputs[0]

	out, _, err := fa.pipeline.Run(ctx, analysisRequest{
		Input:    fa.options.input(file),
		FileSize: file.Size,
		Save:     !fa.options.NoSave,
	})
	if err != nil {
		return types.AnalysisSummary{}, err
	}

	target := utils.AnalysisOutputPath(path)
	if err := fa.output.HandleOutput(out, common.CommandConfig{OutputFile: target, OutputFormat: "json"}); err != nil {
		return types.AnalysisSummary{}, err
	}

	return types.AnalysisSummary{
		ID:           out.ID,
		OriginalName: file.Name,
		UploadDate:   fa.now().UTC().Format(time.RFC3339),
		Score:        out.Analysis.Score,
		ATSScore:     out.Analysis.ATSScore.Overall,
	}, nil
}

// analyzeAll analyzes paths with at most concurrency analyses in flight.
// Summaries keep the order of paths; failed files are left out and their
// errors joined.
func analyzeAll(ctx context.Context, fa *fileAnalyzer, paths []string, concurrency int) ([]types.AnalysisSummary, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*types.AnalysisSummary, len(paths))
	failures := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			summary, err := fa.AnalyzeFile(ctx, path)
			if err != nil {
				if fa.logger != nil {
					fa.logger.LogError(err, "Resume analysis failed", "file", path)
				}
				failures[i] = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			results[i] = &summary
			return nil
		})
	}
	_ = g.Wait()

	summaries := make([]types.AnalysisSummary, 0, len(paths))
	for _, r := range results {
		if r != nil {
			summaries = append(summaries, *r)
		}
	}
	return summaries, errors.Join(failures...)
}
