package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bindgen/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Blocks []BlockValidation `json:"blocks"`
}

// BlockValidation holds the validation errors of one block.
type BlockValidation struct {
	Source string                     `json:"source"`
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	blockOpts := &BlockOptions{}

	cmd := &cobra.Command{
		Use:   "validate [source.go...]",
		Short: "Check declaration blocks without generating code",
		Long: `Compile declaration blocks and check their registrations without
writing any output.

Reports malformed directives, unsupported signatures, duplicate
registrations and mismatched accessors. Faster than generate for
development feedback.

Exit codes:
  0 - All blocks valid
  1 - One or more blocks invalid
  2 - Command error (missing source, bad config, etc.)`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, *blockOpts, args, cmd)
		},
	}

	blockOpts.addFlags(cmd)

	return cmd
}

func runValidate(opts *RootOptions, blockOpts BlockOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	blocks, err := resolveBlocks(blockOpts, args)
	if err != nil {
		return outputCommandError(formatter, blockErrorCode(err), err.Error())
	}

	result := ValidationResult{Valid: true, Blocks: make([]BlockValidation, 0, len(blocks.Jobs))}
	for _, j := range blocks.Jobs {
		formatter.VerboseLog("Validating %s", j.Source)
		bv, err := validateBlock(j)
		if err != nil {
			return outputCommandError(formatter, errorCode(err), err.Error())
		}
		if !bv.Valid {
			result.Valid = false
		}
		result.Blocks = append(result.Blocks, bv)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateBlock compiles and validates one block. Only unreadable sources
// are returned as errors; compile failures become validation errors.
func validateBlock(j job) (BlockValidation, error) {
	bv := BlockValidation{Source: j.Source}

	src, err := readSource(j.Source)
	if err != nil {
		return bv, err
	}

	block, err := compiler.CompileBlock(j.Source, src, j.Compile)
	if err != nil {
		var compileErr *compiler.CompileError
		if !errors.As(err, &compileErr) {
			return bv, err
		}
		bv.Errors = []compiler.ValidationError{{
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Code:    MapFieldToErrorCode(compileErr.Field),
			Line:    compileErr.Pos.Line,
		}}
		return bv, nil
	}

	bv.Errors = compiler.Validate(block)
	bv.Valid = len(bv.Errors) == 0
	return bv, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d block(s) valid\n", len(result.Blocks))
	return nil
}

// outputValidationErrors outputs the errors of every invalid block.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	var first compiler.ValidationError
	count := 0
	for _, b := range result.Blocks {
		for _, e := range b.Errors {
			if count == 0 {
				first = e
			}
			count++
		}
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, b := range result.Blocks {
		if b.Valid {
			continue
		}
		for _, err := range b.Errors {
			if err.Line > 0 {
				fmt.Fprintf(formatter.Writer, "%s:%d\n", b.Source, err.Line)
			} else {
				fmt.Fprintln(formatter.Writer, b.Source)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}
