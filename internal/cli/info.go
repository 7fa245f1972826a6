package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the dataset enumerations and epsilon grids",
		Long: `Show the known data sources, evaluation keys by category, measures,
epsilon/severity grids, and the size of the architecture id space.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, cmd)
		},
	}
	return cmd
}

type infoResult struct {
	Sources       []robustnas.Source          `json:"sources"`
	KeysClean     []robustnas.Key             `json:"keys_clean"`
	KeysAdv       []robustnas.Key             `json:"keys_adv"`
	KeysCC        []robustnas.Key             `json:"keys_cc"`
	Measures      []robustnas.Measure         `json:"measures"`
	Epsilons      map[robustnas.Key][]float64 `json:"epsilons"`
	Architectures int                         `json:"architectures"`
	Canonical     int                         `json:"canonical"`
}

func runInfo(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ds, closeFn, err := openDataset(opts)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	out := infoResult{
		Sources:       robustnas.Sources,
		KeysClean:     robustnas.KeysClean,
		KeysAdv:       robustnas.KeysAdv,
		KeysCC:        robustnas.KeysCC,
		Measures:      robustnas.Measures,
		Epsilons:      ds.Meta().Epsilons(),
		Architectures: ds.Meta().Len(),
		Canonical:     len(ds.CanonicalUIDs()),
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "sources:       %v\n", out.Sources)
		fmt.Fprintf(w, "measures:      %v\n", out.Measures)
		fmt.Fprintf(w, "clean keys:    %v\n", out.KeysClean)
		fmt.Fprintf(w, "attack keys:   %v\n", out.KeysAdv)
		fmt.Fprintf(w, "corruptions:   %v\n", out.KeysCC)
		fmt.Fprintf(w, "architectures: %d (%d canonical)\n", out.Architectures, out.Canonical)

		gridKeys := make([]robustnas.Key, 0, len(out.Epsilons))
		for k := range out.Epsilons {
			gridKeys = append(gridKeys, k)
		}
		slices.Sort(gridKeys)
		for _, k := range gridKeys {
			fmt.Fprintf(w, "grid %-18s %v\n", k+":", out.Epsilons[k])
		}
	})
}
