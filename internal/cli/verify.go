package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
	"github.com/robustnas/robustnas/internal/manifest"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Manifest string
	Data     []string
	Keys     []string
	Measures []string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the dataset root contains the expected files",
		Long: `Check the dataset root against a manifest. With --manifest, the
listed files are checked by name and (when digests are present)
sha256. Without it, an expected file list is derived from the
selection flags, covering every supported combination.

Exits non-zero when any file is missing or corrupt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "manifest file (YAML); overrides selection flags")
	cmd.Flags().StringSliceVar(&opts.Data, "data", sourceNames(), "data sources to expect")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "evaluation keys to expect (default: all)")
	cmd.Flags().StringSliceVar(&opts.Measures, "measure", nil, "measures to expect (default: all)")

	return cmd
}

type verifyResult struct {
	Checked int      `json:"checked"`
	Issues  []string `json:"issues,omitempty"`
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var m *manifest.Manifest
	if opts.Manifest != "" {
		loaded, err := manifest.Load(opts.Manifest)
		if err != nil {
			return WrapExitError(ExitCommandError, "load manifest", err)
		}
		m = loaded
	} else {
		keys := toKeys(opts.Keys)
		if len(keys) == 0 {
			keys = robustnas.KeysAll
		}
		measures := toMeasures(opts.Measures)
		if len(measures) == 0 {
			measures = robustnas.Measures
		}
		m = manifest.ForSelection(toSources(opts.Data), keys, measures)
	}

	checked := 0
	for _, a := range m.Archives {
		checked += len(a.Files)
	}
	formatter.VerboseLog("checking %d file(s) under %s", checked, opts.DataRoot)

	issues := m.Verify(opts.DataRoot)
	out := verifyResult{Checked: checked}
	for _, issue := range issues {
		out.Issues = append(out.Issues, issue.String())
	}

	if err := formatter.Success(out, func(w io.Writer) {
		if len(issues) == 0 {
			fmt.Fprintf(w, "ok: %d file(s) verified\n", checked)
			return
		}
		for _, issue := range issues {
			fmt.Fprintln(w, issue.String())
		}
		fmt.Fprintf(w, "%d issue(s) in %d file(s)\n", len(issues), checked)
	}); err != nil {
		return err
	}

	if len(issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d verification issue(s)", len(issues)))
	}
	return nil
}
