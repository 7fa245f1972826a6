package robustnas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robustnas/robustnas/internal/testutil"
)

func TestOpen_MissingRoot(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.True(t, IsMissingMetadata(err), "error: %v", err)
}

func TestDataset_UIDIdempotent(t *testing.T) {
	ds := openFixture(t)

	for _, id := range ds.Meta().IDs() {
		uid, err := ds.UID(id)
		require.NoError(t, err, "id %d", id)

		again, err := ds.UID(ArchID(uid))
		require.NoError(t, err, "uid %d", uid)
		assert.Equal(t, uid, again, "UID(UID(%d)) != UID(%d)", id, id)
	}
}

func TestDataset_UIDUnknown(t *testing.T) {
	ds := openFixture(t)

	_, err := ds.UID(999999)
	require.Error(t, err)
	assert.True(t, IsUnknownArchitecture(err), "error: %v", err)
}

func TestDataset_ArchStringRoundTrip(t *testing.T) {
	ds := openFixture(t)

	s, err := ds.ArchString(testutil.Arch13433)
	require.NoError(t, err)
	require.NotEmpty(t, s)

	id, err := ds.ArchID(s)
	require.NoError(t, err)
	assert.Equal(t, ArchID(testutil.Arch13433), id)

	_, err = ds.ArchID("|none~0|")
	require.Error(t, err)
	assert.True(t, IsUnknownArchitecture(err))
}

func TestDataset_WithTableSource(t *testing.T) {
	root := testutil.WriteDataset(t)

	fixed := Table{
		UID(testutil.Arch857): NewScalar(0.42),
	}
	ds, err := Open(root, WithTableSource(stubSource{table: fixed}))
	require.NoError(t, err)

	res, err := ds.Query([]Source{CIFAR10}, []Key{KeyClean}, []Measure{Accuracy})
	require.NoError(t, err)

	v, ok := res.Value(CIFAR10, KeyClean, Accuracy, UID(testutil.Arch857))
	require.True(t, ok)
	f, err := v.Scalar()
	require.NoError(t, err)
	assert.Equal(t, 0.42, f)
}

// stubSource serves one fixed table for every triple.
type stubSource struct {
	table Table
}

func (s stubSource) Table(Source, Key, Measure) (Table, error) {
	return s.table, nil
}
