package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
)

// NewArchCommand creates the arch command.
func NewArchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arch <id-or-string>",
		Short: "Convert between architecture id and NB201 cell string",
		Long: `Convert an architecture id to its NB201 cell string, or a cell
string back to its id. An all-digit argument is treated as an id.

Example:
  robustnas arch 13433
  robustnas arch '|nor_conv_3x3~0|+|skip_connect~0|none~1|+|nor_conv_1x1~0|avg_pool_3x3~1|none~2|'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArch(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

type archResult struct {
	ArchID int    `json:"arch_id"`
	NB201  string `json:"nb201_string"`
}

func runArch(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ds, closeFn, err := openDataset(opts)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	var out archResult
	if id, convErr := strconv.Atoi(arg); convErr == nil {
		s, err := ds.ArchString(robustnas.ArchID(id))
		if err != nil {
			formatter.Error(errorCode(err), err.Error(), nil)
			return WrapExitError(ExitFailure, "architecture lookup failed", err)
		}
		out = archResult{ArchID: id, NB201: s}
	} else {
		id, err := ds.ArchID(arg)
		if err != nil {
			formatter.Error(errorCode(err), err.Error(), nil)
			return WrapExitError(ExitFailure, "architecture lookup failed", err)
		}
		out = archResult{ArchID: int(id), NB201: arg}
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "id:     %d\n", out.ArchID)
		fmt.Fprintf(w, "string: %s\n", out.NB201)
	})
}
