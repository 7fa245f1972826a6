package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robustnas/robustnas"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Data     []string
	Keys     []string
	Measures []string
	UIDs     []int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Retrieve result tables for a selection",
		Long: `Retrieve result tables for every combination of the selected data
sources, evaluation keys, and measures.

Architecture ids given with --uid are resolved through the isomorphism
map first, so non-canonical ids select their class representative.

Example:
  robustnas query --data cifar10 --key clean --key pgd@Linf --measure accuracy --uid 13433`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Data, "data", sourceNames(), "data sources to query")
	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "evaluation keys to query (default: all)")
	cmd.Flags().StringSliceVar(&opts.Measures, "measure", nil, "measures to query (default: all)")
	cmd.Flags().IntSliceVar(&opts.UIDs, "uid", nil, "restrict output to these architecture ids (resolved to UIDs)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ds, closeFn, err := openDataset(opts.RootOptions)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	data := toSources(opts.Data)
	keys := toKeys(opts.Keys)
	if len(keys) == 0 {
		keys = robustnas.KeysAll
	}
	measures := toMeasures(opts.Measures)
	if len(measures) == 0 {
		measures = robustnas.Measures
	}

	uids, err := resolveUIDs(ds, opts.UIDs)
	if err != nil {
		formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "uid resolution failed", err)
	}

	formatter.VerboseLog("querying %d source(s) x %d key(s) x %d measure(s)", len(data), len(keys), len(measures))

	res, err := ds.Query(data, keys, measures)
	if err != nil {
		formatter.Error(errorCode(err), err.Error(), nil)
		if robustnas.IsInvalidSelection(err) || robustnas.IsUnsupportedCombination(err) {
			return WrapExitError(ExitCommandError, "invalid query", err)
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}

	payload, err := queryPayload(res, uids)
	if err != nil {
		return WrapExitError(ExitFailure, "serialize result", err)
	}

	return formatter.Success(payload, func(w io.Writer) {
		renderResult(w, res, uids)
	})
}

// resolveUIDs maps raw architecture ids through the isomorphism map.
func resolveUIDs(ds *robustnas.Dataset, ids []int) ([]robustnas.UID, error) {
	var uids []robustnas.UID
	for _, id := range ids {
		uid, err := ds.UID(robustnas.ArchID(id))
		if err != nil {
			return nil, err
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

// queryPayload prepares the JSON payload, filtered to the requested
// UIDs when any were given.
func queryPayload(res *robustnas.Result, uids []robustnas.UID) (interface{}, error) {
	if len(uids) == 0 {
		data, err := json.Marshal(res)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(data), nil
	}

	filtered := map[string]map[string]map[string]map[string]robustnas.Value{}
	for _, s := range res.Sources() {
		filtered[string(s)] = map[string]map[string]map[string]robustnas.Value{}
		for _, k := range res.Keys(s) {
			filtered[string(s)][string(k)] = map[string]map[string]robustnas.Value{}
			for _, m := range res.Measures(s, k) {
				table := map[string]robustnas.Value{}
				for _, uid := range uids {
					if v, ok := res.Value(s, k, m, uid); ok {
						table[fmt.Sprintf("%d", uid)] = v
					}
				}
				filtered[string(s)][string(k)][string(m)] = table
			}
		}
	}
	return filtered, nil
}

// renderResult writes the human-readable form.
func renderResult(w io.Writer, res *robustnas.Result, uids []robustnas.UID) {
	for _, s := range res.Sources() {
		for _, k := range res.Keys(s) {
			for _, m := range res.Measures(s, k) {
				table, _ := res.Table(s, k, m)
				fmt.Fprintf(w, "%s / %s / %s (%d entries)\n", s, k, m, len(table))
				if len(uids) == 0 {
					continue
				}
				for _, uid := range uids {
					v, ok := table[uid]
					if !ok {
						fmt.Fprintf(w, "  %d: <absent>\n", uid)
						continue
					}
					fmt.Fprintf(w, "  %d: %s\n", uid, formatValue(v))
				}
			}
		}
	}
}

// formatValue renders one table entry compactly.
func formatValue(v robustnas.Value) string {
	switch v.Kind() {
	case robustnas.KindScalar:
		f, _ := v.Scalar()
		return fmt.Sprintf("%g", f)
	case robustnas.KindVector:
		vec, _ := v.Vector()
		parts := make([]string, len(vec))
		for i, f := range vec {
			parts[i] = fmt.Sprintf("%g", f)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case robustnas.KindMatrix:
		m, _ := v.Matrix()
		return fmt.Sprintf("%dx%d confusion matrix", len(m), width(m))
	case robustnas.KindMatrixSeries:
		ms, _ := v.MatrixSeries()
		return fmt.Sprintf("%d confusion matrices", len(ms))
	default:
		return v.Kind().String()
	}
}

func width(m [][]float64) int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

func sourceNames() []string {
	names := make([]string, len(robustnas.Sources))
	for i, s := range robustnas.Sources {
		names[i] = string(s)
	}
	return names
}

func toSources(in []string) []robustnas.Source {
	out := make([]robustnas.Source, len(in))
	for i, s := range in {
		out[i] = robustnas.Source(s)
	}
	return out
}

func toKeys(in []string) []robustnas.Key {
	out := make([]robustnas.Key, len(in))
	for i, k := range in {
		out[i] = robustnas.Key(k)
	}
	return out
}

func toMeasures(in []string) []robustnas.Measure {
	out := make([]robustnas.Measure, len(in))
	for i, m := range in {
		out[i] = robustnas.Measure(m)
	}
	return out
}

// errorCode maps accessor errors to stable CLI error codes.
func errorCode(err error) string {
	switch {
	case robustnas.IsMissingMetadata(err):
		return "MISSING_METADATA"
	case robustnas.IsInvalidMetadata(err):
		return "INVALID_METADATA"
	case robustnas.IsMissingResult(err):
		return "MISSING_RESULT"
	case robustnas.IsInvalidSelection(err):
		return "INVALID_SELECTION"
	case robustnas.IsUnsupportedCombination(err):
		return "UNSUPPORTED_COMBINATION"
	case robustnas.IsUnknownArchitecture(err):
		return "UNKNOWN_ARCHITECTURE"
	default:
		return "ERROR"
	}
}
