package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recompose/internal/harness"
)

// FileValidation is the validation result of one scenario file.
type FileValidation struct {
	Path     string   `json:"path"`
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// ValidateResult is the result of the validate command.
type ValidateResult struct {
	Files []FileValidation `json:"files"`
	Valid int              `json:"valid"`
	Total int              `json:"total"`
}

func (r ValidateResult) String() string {
	var b strings.Builder
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(&b, "✓ %s\n", f.Path)
			continue
		}
		fmt.Fprintf(&b, "✗ %s\n", f.Path)
		for _, p := range f.Problems {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	fmt.Fprintf(&b, "\n%d of %d valid", r.Valid, r.Total)
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Check scenario files against the scenario schema",
		Long: `Validate scenario files against the embedded CUE schema and the
strict YAML decoder, without running them.

Exit codes:
  0 - All files are valid
  1 - One or more files are invalid
  2 - Command error

Examples:
  recompose validate scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	result := ValidateResult{Total: len(paths)}

	for _, p := range paths {
		fv := FileValidation{Path: p, Valid: true}
		if _, err := os.Stat(p); err != nil {
			fv.Valid = false
			fv.Problems = []string{err.Error()}
		} else if _, err := harness.LoadScenario(p); err != nil {
			fv.Valid = false
			var verr *harness.ValidationError
			if errors.As(err, &verr) {
				fv.Problems = verr.Problems
			} else {
				fv.Problems = []string{err.Error()}
			}
		}
		if fv.Valid {
			result.Valid++
		}
		result.Files = append(result.Files, fv)
	}

	if result.Valid < result.Total {
		if err := out.Failure(result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files invalid", result.Total-result.Valid, result.Total))
	}
	return out.Success(result)
}
