package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
)

// NewUIDCommand creates the uid command.
func NewUIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uid <architecture-id>",
		Short: "Resolve an architecture id to its canonical UID",
		Long: `Resolve an architecture id to the canonical unique id of its
isomorphism class. Result tables are keyed by UID, so isomorphic
architectures share one entry.

Example:
  robustnas uid 13433`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUID(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

type uidResult struct {
	ArchID    int    `json:"arch_id"`
	UID       int    `json:"uid"`
	Canonical bool   `json:"canonical"`
	NB201     string `json:"nb201_string,omitempty"`
}

func runUID(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	id, err := strconv.Atoi(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("architecture id %q is not an integer", arg), err)
	}

	ds, closeFn, err := openDataset(opts)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	uid, err := ds.UID(robustnas.ArchID(id))
	if err != nil {
		formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "uid resolution failed", err)
	}

	nb201, _ := ds.ArchString(robustnas.ArchID(id))
	out := uidResult{
		ArchID:    id,
		UID:       int(uid),
		Canonical: robustnas.UID(id) == uid,
		NB201:     nb201,
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "%d -> %d\n", out.ArchID, out.UID)
		if !out.Canonical {
			fmt.Fprintf(w, "id %d is isomorphic to canonical architecture %d\n", out.ArchID, out.UID)
		}
	})
}
