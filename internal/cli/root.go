package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
	"github.com/robustnas/robustnas/internal/index"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataRoot string // dataset root directory
	Index    string // optional SQLite index path; overrides file loading
	Verbose  bool
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the robustnas CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "robustnas",
		Short: "Query pre-computed neural-architecture robustness results",
		Long: `Query a local copy of the NAS-Bench-201 robustness dataset:
accuracy, confidence, and confusion matrices under clean, adversarial,
and corruption conditions, keyed by canonical architecture id.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DataRoot, "data-root", "robustness-data", "dataset root directory")
	cmd.PersistentFlags().StringVar(&opts.Index, "index", "", "read result tables from this SQLite index instead of JSON files")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewUIDCommand(opts))
	cmd.AddCommand(NewArchCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openDataset opens the accessor for the configured root, wiring the
// SQLite index as the table source when --index is set. The returned
// close func is non-nil only when an index was opened.
func openDataset(opts *RootOptions) (*robustnas.Dataset, func() error, error) {
	var dsOpts []robustnas.Option
	var closeFn func() error

	if opts.Index != "" {
		ix, err := index.Open(opts.Index)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "open index", err)
		}
		dsOpts = append(dsOpts, robustnas.WithTableSource(ix))
		closeFn = ix.Close
	}

	ds, err := robustnas.Open(opts.DataRoot, dsOpts...)
	if err != nil {
		if closeFn != nil {
			closeFn()
		}
		if robustnas.IsMissingMetadata(err) {
			return nil, nil, WrapExitError(ExitFailure, "dataset metadata not found; download the dataset first", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "open dataset", err)
	}
	return ds, closeFn, nil
}

// newFormatter builds the output formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
