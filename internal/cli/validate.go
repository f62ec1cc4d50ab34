package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ByteOrder string
	UUID      string
}

// ValidationResult is the JSON payload of a successful validation.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Streams int    `json:"streams"`
	Events  int    `json:"events"`
	Source  string `json:"source"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <ast-file>",
		Short: "Check a metadata syntax tree without writing output",
		Long: `Compile a metadata syntax tree and report whether it is accepted.

Exits 0 when the document compiles. Otherwise prints the first error with its
source position and exits 2.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ByteOrder, "byte-order", "", "trace byte order seed (le|be)")
	cmd.Flags().StringVar(&opts.UUID, "uuid", "", "trace UUID seed")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg := &Config{ByteOrder: opts.ByteOrder, UUID: opts.UUID}
	genOpts, err := cfg.Options()
	if err != nil {
		return formatter.Fail(ErrCodeInvalidFlag, err.Error(), nil)
	}
	genOpts.Logger = newLogger(opts.RootOptions, formatter.GetErrWriter())

	trace, err := compileFile(path, genOpts, formatter)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:   true,
		Streams: len(trace.Streams),
		Events:  trace.EventCount(),
		Source:  path,
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%d stream(s), %d event(s))\n",
		path, result.Streams, result.Events)
	return nil
}
