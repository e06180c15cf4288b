package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DavidAngell/padfx/internal/compiler"
	"github.com/DavidAngell/padfx/internal/effect"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output    string // output file path
	Canonical bool   // write canonical JSON instead of indented JSON
}

// CompilationResult is the compiled profile document.
type CompilationResult struct {
	Hash    string         `json:"hash"`
	Profile map[string]any `json:"profile"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	MacroCount int `json:"macros"`
	RuleCount  int `json:"rules"`
	StepCount  int `json:"steps"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <profile-dir>",
		Short: "Compile a CUE profile to JSON",
		Long: `Compile a CUE controller profile to its JSON form.

Macros are listed by name with their content hashes, rules in declaration
order. The profile hash covers the whole document and is what recorded
sessions refer to.

Examples:
  padfx compile ./profiles/rocket
  padfx compile ./profiles/rocket -o rocket.json --canonical`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "write canonical JSON (the form that is hashed)")

	return cmd
}

func runCompile(opts *CompileOptions, profileDir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	loadResult, loadErrors := compiler.LoadProfile(profileDir, compiler.LoadModeCollectAll)

	var loadErr *compiler.LoadError
	if len(loadErrors) > 0 && errors.As(loadErrors[0], &loadErr) {
		return outputLoadError(formatter, loadErr)
	}
	if len(loadErrors) > 0 {
		return outputValidationErrors(formatter, collectValidationErrors(loadErrors))
	}

	p := loadResult.Profile
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, profileDir)
	for _, name := range p.MacroNames() {
		formatter.VerboseLog("Compiled macro: %s (%s)", name, p.Macros[name].Hash)
	}
	for _, r := range p.Rules {
		formatter.VerboseLog("Compiled rule: %s", r.ID)
	}

	wire, err := p.Wire()
	if err != nil {
		return outputCompileError(formatter, compiler.ErrCodeGeneric, err.Error())
	}
	result := &CompilationResult{Hash: loadResult.Hash, Profile: wire}

	stats := CompilationStats{MacroCount: len(p.Macros), RuleCount: len(p.Rules)}
	for _, m := range p.Macros {
		stats.StepCount += len(m.Steps)
	}

	if opts.Output != "" {
		if err := writeProfileToFile(result, opts.Output, opts.Canonical); err != nil {
			return outputCompileError(formatter, compiler.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// writeProfileToFile writes the compiled profile as JSON.
func writeProfileToFile(result *CompilationResult, path string, canonical bool) error {
	var (
		data []byte
		err  error
	)
	if canonical {
		data, err = effect.MarshalCanonical(map[string]any{
			"hash":    result.Hash,
			"profile": result.Profile,
		})
	} else {
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputPath string) error {
	if formatter.JSON() {
		return formatter.Success(map[string]any{
			"hash":    result.Hash,
			"profile": result.Profile,
			"stats":   stats,
			"output":  outputPath,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s\n", result.Profile["name"])
	fmt.Fprintf(w, "  Macros: %d (%d steps)\n", stats.MacroCount, stats.StepCount)
	fmt.Fprintf(w, "  Rules:  %d\n", stats.RuleCount)
	fmt.Fprintf(w, "  Hash:   %s\n", result.Hash)
	if outputPath != "" {
		fmt.Fprintf(w, "  Output: %s\n", outputPath)
	}
	return nil
}

// outputCompileError outputs a compile error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
