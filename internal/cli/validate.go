package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Name   string                     `json:"name,omitempty"`
	Hash   string                     `json:"hash,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile-dir>",
		Short: "Validate a profile without emitting it",
		Long: `Compile and validate a CUE controller profile.

Reports every validation error with its code (E201-E210) so a profile
can be fixed in one pass. Load and compile errors stop at the first one.

Exit codes:
  0 - Profile is valid
  1 - Validation errors found
  2 - Profile could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, profileDir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	loadResult, loadErrors := compiler.LoadProfile(profileDir, compiler.LoadModeCollectAll)

	// A LoadError means the profile never compiled
	var loadErr *compiler.LoadError
	if len(loadErrors) > 0 && errors.As(loadErrors[0], &loadErr) {
		return outputLoadError(formatter, loadErr)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, profileDir)
	formatter.VerboseLog("Profile %q: %d macro(s), %d rule(s)",
		loadResult.Profile.Name, len(loadResult.Profile.Macros), len(loadResult.Profile.Rules))

	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, collectValidationErrors(loadErrors))
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{
			Valid: true,
			Name:  loadResult.Profile.Name,
			Hash:  loadResult.Hash,
		})
	}
	fmt.Fprintf(formatter.Writer, "✓ Profile %s valid\n", loadResult.Profile.Name)
	return nil
}

// collectValidationErrors converts loader errors into validation errors.
func collectValidationErrors(errs []error) []compiler.ValidationError {
	out := make([]compiler.ValidationError, 0, len(errs))
	for _, err := range errs {
		var verr compiler.ValidationError
		if errors.As(err, &verr) {
			out = append(out, verr)
			continue
		}
		out = append(out, compiler.ValidationError{
			Field:   "profile",
			Message: err.Error(),
			Code:    compiler.ErrCodeGeneric,
		})
	}
	return out
}

// outputLoadError reports a profile that could not be loaded or compiled.
func outputLoadError(formatter *OutputFormatter, loadErr *compiler.LoadError) error {
	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)
	return NewExitError(ExitCommandError, loadErr.Error())
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if formatter.JSON() {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, ValidationResult{
			Valid:  false,
			Errors: errs,
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, msg)
}
