package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
	"github.com/robustnas/robustnas/internal/index"
)

// IndexOptions holds flags for the index command.
type IndexOptions struct {
	*RootOptions
	Out      string
	Data     []string
	Keys     []string
	Measures []string
}

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Materialize result tables into a SQLite index",
		Long: `Build a SQLite index over the selected result tables. Later
commands can read from the index with --index instead of decoding the
JSON files.

Triples whose result file is absent, and combinations with no
evaluation, are skipped and listed; the index covers whatever part of
the dataset is present locally.

Example:
  robustnas index --out robustness.db --data cifar10 --measure accuracy`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "robustness.db", "index database path")
	cmd.Flags().StringSliceVar(&opts.Data, "data", sourceNames(), "data sources to materialize")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "evaluation keys to materialize (default: all)")
	cmd.Flags().StringSliceVar(&opts.Measures, "measure", nil, "measures to materialize (default: all)")

	return cmd
}

type indexResult struct {
	BuildID string   `json:"build_id"`
	Path    string   `json:"path"`
	Tables  int      `json:"tables"`
	Skipped []string `json:"skipped,omitempty"`
}

func runIndex(opts *IndexOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// The index is always built from the JSON files, never from
	// another index.
	ds, err := robustnas.Open(opts.DataRoot)
	if err != nil {
		if robustnas.IsMissingMetadata(err) {
			return WrapExitError(ExitFailure, "dataset metadata not found; download the dataset first", err)
		}
		return WrapExitError(ExitCommandError, "open dataset", err)
	}

	ix, err := index.Open(opts.Out)
	if err != nil {
		return WrapExitError(ExitCommandError, "open index", err)
	}
	defer ix.Close()

	keys := toKeys(opts.Keys)
	if len(keys) == 0 {
		keys = robustnas.KeysAll
	}
	measures := toMeasures(opts.Measures)
	if len(measures) == 0 {
		measures = robustnas.Measures
	}

	report, err := ix.Build(cmd.Context(), ds, toSources(opts.Data), keys, measures)
	if err != nil {
		formatter.Error("BUILD_FAILED", err.Error(), nil)
		return WrapExitError(ExitFailure, "index build failed", err)
	}

	for _, skipped := range report.Skipped {
		formatter.VerboseLog("skipped %s", skipped)
	}

	out := indexResult{
		BuildID: report.BuildID,
		Path:    opts.Out,
		Tables:  report.Tables,
		Skipped: report.Skipped,
	}
	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "built %s: %d table(s), %d skipped (build %s)\n", out.Path, out.Tables, len(out.Skipped), out.BuildID)
	})
}
