package common

import (
	"context"
	"fmt"
	"os"

	"resumescan/internal/ai"
	"resumescan/internal/errors"
)

// CreateInputFunc builds the operation input from the files named on the command line
type CreateInputFunc[Input any] func(files []InputFile) (Input, error)

// LogDetailsFunc logs the start of an operation
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// AIOperationFunc is an AI-backed operation reporting token usage
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunAICommand reads the input files, runs the operation, reports token usage
// and writes the formatted result.
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	return RunAICommandWithHandler(ctx, logger, NewOutputHandler(logger), cmdConfig, args, createInput, aiOperation, logDetails)
}

// RunAICommandWithHandler is RunAICommand with an explicit output handler
func RunAICommandWithHandler[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	outputHandler *OutputHandler,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	files, err := NewFileProcessor(logger, cmdConfig.MaxFileSize).ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	input, err := createInput(files)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		if logger != nil {
			logger.Info("AI token usage", "input_tokens", tokenUsage.InputTokens, "output_tokens", tokenUsage.OutputTokens, "total_tokens", tokenUsage.TotalTokens)
		} else {
			fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n", tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
