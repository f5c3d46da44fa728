package common

import (
	"context"
	"fmt"
	"io"

	"hrassist/internal/errors"
)

// Runner carries what every command needs to read its inputs and print its result.
type Runner struct {
	Logger      *errors.Logger
	MaxFileSize int64
	Out         io.Writer
}

// CreateInputFunc builds the operation input from the contents of the command's files.
type CreateInputFunc[Input any] func(contents [][]byte) (Input, error)

// LogDetailsFunc logs the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is the work a command performs.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand reads files, builds the input, runs the operation and writes its
// formatted result. Commands without input files pass no files.
func RunCommand[Input, Output any](
	ctx context.Context,
	runner Runner,
	cmdConfig CommandConfig,
	files []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	logger := runner.Logger
	if logger == nil {
		logger = errors.Discard()
	}

	outputHandler := NewOutputHandler(logger, runner.Out)
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	contents, err := NewFileProcessor(logger, runner.MaxFileSize).ValidateAndReadFiles(files...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
