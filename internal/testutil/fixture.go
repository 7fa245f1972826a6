// Package testutil writes miniature on-disk datasets for tests.
//
// The fixture mirrors the real distribution layout (meta.json plus
// <source>/<key>_<measure>.json files) with a four-architecture id
// space, so tests exercise the same load paths as a full download
// without shipping one.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// Fixture architecture id space.
//
// Three isomorphism classes: 0, 112, and 857. Id 13433 is a
// non-canonical member of class 857, so UID(13433) == 857 and result
// tables carry no entry for 13433 itself.
const (
	Arch0     = 0
	Arch112   = 112
	Arch857   = 857
	Arch13433 = 13433
)

// Values the fixture records for class 857 on cifar10, used by query
// tests: clean accuracy, and pgd accuracy at epsilon 1.0 (grid
// position 2).
const (
	CleanAccuracy857 = 0.893
	PGDAccuracy857   = 0.336
)

// PGDGrid is the fixture epsilon grid for the pgd@Linf key.
var PGDGrid = []float64{0.1, 0.5, 1.0, 2.0}

// NB201 cell strings of the fixture architectures.
var archStrings = map[int]string{
	Arch0:     "|avg_pool_3x3~0|+|none~0|skip_connect~1|+|nor_conv_1x1~0|nor_conv_1x1~1|skip_connect~2|",
	Arch112:   "|nor_conv_3x3~0|+|skip_connect~0|none~1|+|nor_conv_1x1~0|avg_pool_3x3~1|none~2|",
	Arch857:   "|nor_conv_3x3~0|+|nor_conv_3x3~0|nor_conv_1x1~1|+|skip_connect~0|none~1|nor_conv_3x3~2|",
	Arch13433: "|nor_conv_1x1~0|+|nor_conv_3x3~0|nor_conv_3x3~1|+|none~0|skip_connect~1|nor_conv_3x3~2|",
}

// WriteDataset writes a complete fixture dataset into a fresh temp
// directory and returns its root.
//
// Tables present:
//
//	cifar10:        clean/pgd@Linf/snow accuracy, clean confidence, clean cm
//	cifar100:       clean accuracy
//	ImageNet16-120: clean accuracy
func WriteDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	WriteMeta(t, root)

	WriteResultFile(t, root, "cifar10", "clean", "accuracy", map[string]any{
		"0":   0.8401,
		"112": 0.9123,
		"857": CleanAccuracy857,
	})
	WriteResultFile(t, root, "cifar10", "clean", "confidence", map[string]any{
		"0":   0.7712,
		"112": 0.8845,
		"857": 0.8519,
	})
	WriteResultFile(t, root, "cifar10", "clean", "cm", map[string]any{
		"0":   [][]float64{{41, 9}, {7, 43}},
		"112": [][]float64{{47, 3}, {4, 46}},
		"857": [][]float64{{45, 5}, {6, 44}},
	})
	WriteResultFile(t, root, "cifar10", "pgd@Linf", "accuracy", map[string]any{
		"0":   []float64{0.62, 0.41, 0.203, 0.071},
		"112": []float64{0.78, 0.55, 0.312, 0.099},
		"857": []float64{0.71, 0.52, PGDAccuracy857, 0.12},
	})
	WriteResultFile(t, root, "cifar10", "snow", "accuracy", map[string]any{
		"0":   []float64{0.79, 0.74, 0.68, 0.61, 0.52},
		"112": []float64{0.88, 0.83, 0.77, 0.69, 0.58},
		"857": []float64{0.85, 0.81, 0.75, 0.66, 0.55},
	})
	WriteResultFile(t, root, "cifar100", "clean", "accuracy", map[string]any{
		"0":   0.5811,
		"112": 0.6934,
		"857": 0.6712,
	})
	WriteResultFile(t, root, "ImageNet16-120", "clean", "accuracy", map[string]any{
		"0":   0.3319,
		"112": 0.4401,
		"857": 0.4156,
	})

	return root
}

// WriteMeta writes the fixture meta.json under root.
func WriteMeta(t *testing.T, root string) {
	t.Helper()

	ids := map[string]map[string]string{}
	for id, s := range archStrings {
		iso := id
		if id == Arch13433 {
			iso = Arch857
		}
		ids[fmt.Sprintf("%d", id)] = map[string]string{
			"isomorph":     fmt.Sprintf("%d", iso),
			"nb201-string": s,
		}
	}

	meta := map[string]any{
		"ids": ids,
		"epsilons": map[string]any{
			"pgd@Linf":        PGDGrid,
			"fgsm@Linf":       []float64{0.5, 1.0},
			"aa_apgd-ce@Linf": []float64{0.5, 1.0},
			"aa_square@Linf":  []float64{0.5, 1.0},
			"snow":            []float64{1, 2, 3, 4, 5},
		},
	}
	writeJSON(t, filepath.Join(root, "meta.json"), meta)
}

// WriteResultFile writes one result table under root, nested
// source/key/measure as the distribution does.
func WriteResultFile(t *testing.T, root, source, key, measure string, table map[string]any) {
	t.Helper()

	doc := map[string]any{
		source: map[string]any{
			key: map[string]any{
				measure: table,
			},
		},
	}

	dir := filepath.Join(root, source)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	writeJSON(t, filepath.Join(dir, fmt.Sprintf("%s_%s.json", key, measure)), doc)
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
