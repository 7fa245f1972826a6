package robustnas

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustnas/robustnas/internal/testutil"
)

func openFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Open(testutil.WriteDataset(t))
	require.NoError(t, err)
	return ds
}

func TestQuery_CleanAccuracy(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)

	uid, err := ds.UID(testutil.Arch13433)
	require.NoError(t, err)

	v, ok := res.Value(CIFAR10, KeyClean, Accuracy, uid)
	require.True(t, ok, "no entry for uid %d", uid)

	f, err := v.Scalar()
	require.NoError(t, err)
	assert.InDelta(t, testutil.CleanAccuracy857, f, 1e-9)
	assert.GreaterOrEqual(t, f, 0.0)
	assert.LessOrEqual(t, f, 1.0)
}

func TestQuery_PGDAccuracyAtEpsilon(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query([]Source{CIFAR10}, []Key{"pgd@Linf"}, []Measure{Accuracy})
	require.NoError(t, err)

	uid, err := ds.UID(testutil.Arch13433)
	require.NoError(t, err)

	v, ok := res.Value(CIFAR10, "pgd@Linf", Accuracy, uid)
	require.True(t, ok)

	grid := ds.EpsilonGrid("pgd@Linf")
	pos := slices.Index(grid, 1.0)
	require.GreaterOrEqual(t, pos, 0, "epsilon 1.0 not in grid %v", grid)

	f, err := v.At(pos)
	require.NoError(t, err)
	assert.InDelta(t, testutil.PGDAccuracy857, f, 1e-9)
}

func TestQuery_VectorLengthMatchesGrid(t *testing.T) {
	ds := openFixture(t)

	for _, k := range []Key{"pgd@Linf", "snow"} {
		res, err := ds.Query([]Source{CIFAR10}, []Key{k}, []Measure{Accuracy})
		require.NoError(t, err, k)

		table, ok := res.Table(CIFAR10, k, Accuracy)
		require.True(t, ok, k)

		grid := ds.EpsilonGrid(k)
		require.NotEmpty(t, grid, k)
		for uid, v := range table {
			assert.Equal(t, len(grid), v.Len(), "uid %d under %s", uid, k)
		}
	}
}

func TestQuery_TableKeysAreCanonicalUIDs(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)

	table, ok := res.Table(CIFAR10, KeyClean, Accuracy)
	require.True(t, ok)

	canonical := ds.CanonicalUIDs()
	assert.Len(t, table, len(canonical))
	for _, uid := range canonical {
		_, ok := table[uid]
		assert.True(t, ok, "canonical uid %d missing from table", uid)
	}
	// Non-canonical ids never key a table.
	_, ok = table[testutil.Arch13433]
	assert.False(t, ok)
}

func TestQuery_InvalidSource(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.Query([]Source{"cifar99"}, []Key{KeyClean}, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err), "error: %v", err)
	assert.Contains(t, err.Error(), "cifar99")

	// Validation failures must touch no store state.
	assert.Equal(t, 0, ds.results.loaded())
}

func TestQuery_InvalidKeyAndMeasure(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.Query([]Source{CIFAR10}, []Key{"dropout"}, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))
	assert.Contains(t, err.Error(), "dropout")

	_, err = ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{"loss"})
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))
	assert.Contains(t, err.Error(), "loss")

	assert.Equal(t, 0, ds.results.loaded())
}

func TestQuery_EmptySelection(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.Query(nil, []Key{KeyClean}, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))

	_, err = ds.Query([]Source{CIFAR10}, nil, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))

	_, err = ds.Query([]Source{CIFAR10}, []Key{KeyClean}, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidSelection(err))
}

func TestQuery_UnsupportedCombination(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.Query([]Source{ImageNet16}, []Key{"snow"}, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsUnsupportedCombination(err), "error: %v", err)
	assert.False(t, IsMissingResult(err), "unsupported combination reported as missing file")
}

func TestQuery_MissingResultFile(t *testing.T) {
	ds := openFixture(t)

	// Valid combination, but the fixture ships no cifar100 pgd table.
	_, err := ds.Query([]Source{CIFAR100}, []Key{"pgd@Linf"}, []Measure{Accuracy})
	require.Error(t, err)
	assert.True(t, IsMissingResult(err), "error: %v", err)
}

func TestQuery_PreservesSelectionOrder(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query(
		[]Source{CIFAR100, CIFAR10},
		[]Key{KeyClean},
		[]Measure{Accuracy},
	)
	require.NoError(t, err)
	assert.Equal(t, []Source{CIFAR100, CIFAR10}, res.Sources())

	res, err = ds.Query(
		[]Source{CIFAR10},
		[]Key{"snow", "pgd@Linf", KeyClean},
		[]Measure{Accuracy},
	)
	require.NoError(t, err)
	assert.Equal(t, []Key{"snow", "pgd@Linf", KeyClean}, res.Keys(CIFAR10))
}

func TestQuery_DuplicatesCollapsed(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query(
		[]Source{CIFAR10, CIFAR10},
		[]Key{KeyClean, KeyClean},
		[]Measure{Accuracy, Accuracy},
	)
	require.NoError(t, err)
	assert.Equal(t, []Source{CIFAR10}, res.Sources())
	assert.Equal(t, []Key{KeyClean}, res.Keys(CIFAR10))
	assert.Equal(t, []Measure{Accuracy}, res.Measures(CIFAR10, KeyClean))
}

func TestQuery_MultiMeasure(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy, Confidence, ConfusionMatrix})
	require.NoError(t, err)

	uid := UID(testutil.Arch857)
	for _, m := range []Measure{Accuracy, Confidence} {
		v, ok := res.Value(CIFAR10, KeyClean, m, uid)
		require.True(t, ok, m)
		assert.Equal(t, KindScalar, v.Kind(), m)
	}

	v, ok := res.Value(CIFAR10, KeyClean, ConfusionMatrix, uid)
	require.True(t, ok)
	assert.Equal(t, KindMatrix, v.Kind())
}

func TestQuery_CachesAcrossQueries(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.results.loaded())

	_, err = ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.results.loaded(), "repeat query reloaded the table")
}

func TestResult_MarshalDeterministic(t *testing.T) {
	ds := openFixture(t)

	res, err := ds.Query([]Source{CIFAR10}, []Key{"pgd@Linf", KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)

	first, err := res.MarshalJSON()
	require.NoError(t, err)
	second, err := res.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	// Key order in the output follows the selection order.
	pgd := `"pgd@Linf"`
	clean := `"clean"`
	assert.Less(t, indexOf(string(first), pgd), indexOf(string(first), clean))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
