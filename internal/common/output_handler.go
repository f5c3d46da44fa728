package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"hrassist/internal/errors"
	"hrassist/internal/formatters"
)

// CommandConfig holds the output options shared by commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler formats command results and writes them to a file or the terminal.
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
	out           io.Writer
}

// NewOutputHandler creates an output handler printing to out, or stdout when out is nil.
func NewOutputHandler(logger *errors.Logger, out io.Writer) *OutputHandler {
	if logger == nil {
		logger = errors.Discard()
	}
	if out == nil {
		out = os.Stdout
	}
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger, 0),
		registry:      formatters.NewFormatterRegistry(),
		logger:        logger,
		out:           out,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	if err := oh.fileProcessor.ValidateOutputFile(config.OutputFile); err != nil {
		return err
	}

	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}
	if !strings.HasSuffix(output, "\n") {
		output += "\n"
	}

	if config.OutputFile == "" {
		_, err = io.WriteString(oh.out, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
