package robustnas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/robustnas/robustnas/internal/schema"
)

// ArchID identifies a NAS-Bench-201 architecture. Distinct ids may
// describe structurally equivalent cells.
type ArchID int

// UID is the canonical id of an isomorphism class. All result tables
// are keyed by UID, never by raw ArchID.
type UID int

// MetaFileName is the metadata file expected under the dataset root.
const MetaFileName = "meta.json"

// Meta holds the dataset metadata: the architecture id space, the
// isomorphism map, the NB201 string mapping, and the epsilon/severity
// grids of parameterized evaluation keys. Read-only after load.
type Meta struct {
	path      string
	isomorph  map[ArchID]UID
	archStr   map[ArchID]string
	strArch   map[string]ArchID
	epsilons  map[Key][]float64
	canonical []UID
}

// metaFile is the on-disk shape of meta.json.
type metaFile struct {
	IDs      map[string]metaEntry `json:"ids"`
	Epsilons map[string][]float64 `json:"epsilons"`
}

type metaEntry struct {
	Isomorph string `json:"isomorph"`
	NB201    string `json:"nb201-string"`
}

// loadMeta reads and validates <root>/meta.json.
//
// The raw bytes are checked against the embedded CUE schema before
// decoding, so shape problems surface with a schema message instead of
// a zero-valued struct.
func loadMeta(root string) (*Meta, error) {
	path := filepath.Join(root, MetaFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return nil, newMissingMetadataError(path, err)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	if err := schema.ValidateMeta(data); err != nil {
		return nil, newInvalidMetadataError(path, err)
	}

	var file metaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, newInvalidMetadataError(path, err)
	}

	m := &Meta{
		path:     path,
		isomorph: make(map[ArchID]UID, len(file.IDs)),
		archStr:  make(map[ArchID]string, len(file.IDs)),
		strArch:  make(map[string]ArchID, len(file.IDs)),
		epsilons: make(map[Key][]float64, len(file.Epsilons)),
	}

	for rawID, entry := range file.IDs {
		id, err := parseArchID(rawID)
		if err != nil {
			return nil, newInvalidMetadataError(path, fmt.Errorf("architecture id %q: %w", rawID, err))
		}
		iso, err := parseArchID(entry.Isomorph)
		if err != nil {
			return nil, newInvalidMetadataError(path, fmt.Errorf("isomorph of id %d: %w", id, err))
		}

		m.isomorph[id] = UID(iso)
		m.archStr[id] = entry.NB201
		m.strArch[entry.NB201] = id
		if ArchID(iso) == id {
			m.canonical = append(m.canonical, UID(iso))
		}
	}

	// Isomorphism representatives must themselves be known ids,
	// otherwise UID resolution could escape the id space.
	for id, uid := range m.isomorph {
		if _, ok := m.isomorph[ArchID(uid)]; !ok {
			return nil, newInvalidMetadataError(path, fmt.Errorf("id %d maps to unknown isomorph %d", id, uid))
		}
	}

	for rawKey, grid := range file.Epsilons {
		m.epsilons[Key(rawKey)] = grid
	}

	slices.Sort(m.canonical)

	return m, nil
}

func parseArchID(s string) (ArchID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative id %d", n)
	}
	return ArchID(n), nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Resolve maps an architecture id to its canonical UID. The second
// return is false when the id is outside the known range.
func (m *Meta) Resolve(id ArchID) (UID, bool) {
	uid, ok := m.isomorph[id]
	return uid, ok
}

// ArchString returns the NB201 cell string for an architecture id.
func (m *Meta) ArchString(id ArchID) (string, bool) {
	s, ok := m.archStr[id]
	return s, ok
}

// ArchID returns the architecture id for an NB201 cell string.
func (m *Meta) ArchID(s string) (ArchID, bool) {
	id, ok := m.strArch[s]
	return id, ok
}

// EpsilonGrid returns the ordered parameter grid for a key, or an empty
// slice for unparameterized keys such as "clean". Result vectors for a
// parameterized key are index-aligned with this grid.
func (m *Meta) EpsilonGrid(k Key) []float64 {
	grid, ok := m.epsilons[k]
	if !ok {
		return nil
	}
	return slices.Clone(grid)
}

// Epsilons returns all parameter grids by key.
func (m *Meta) Epsilons() map[Key][]float64 {
	out := make(map[Key][]float64, len(m.epsilons))
	for k, grid := range m.epsilons {
		out[k] = slices.Clone(grid)
	}
	return out
}

// CanonicalUIDs returns every UID that is its own isomorphism
// representative, in ascending order. This is the exact key set of
// every result table.
func (m *Meta) CanonicalUIDs() []UID {
	return slices.Clone(m.canonical)
}

// Len returns the number of known architecture ids.
func (m *Meta) Len() int {
	return len(m.isomorph)
}

// IDs returns every known architecture id in ascending order.
func (m *Meta) IDs() []ArchID {
	ids := make([]ArchID, 0, len(m.isomorph))
	for id := range m.isomorph {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
