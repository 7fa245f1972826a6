package robustnas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Table is one result table: canonical UID to value. For parameterized
// keys, each value is index-aligned with the key's epsilon grid.
type Table map[UID]Value

// TableSource supplies result tables for (source, key, measure)
// triples. The default source reads the JSON files under the dataset
// root; internal/index provides a SQLite-backed alternative.
//
// Implementations report an absent table via a missing-result Error so
// callers can distinguish "not downloaded" from read failures.
type TableSource interface {
	Table(s Source, k Key, m Measure) (Table, error)
}

// ResultFileName returns the file name of a result table, e.g.
// "pgd@Linf_accuracy.json".
func ResultFileName(k Key, m Measure) string {
	return fmt.Sprintf("%s_%s.json", k, m)
}

// ResultPath returns the location of a result table under a dataset
// root: <root>/<source>/<key>_<measure>.json.
func ResultPath(root string, s Source, k Key, m Measure) string {
	return filepath.Join(root, string(s), ResultFileName(k, m))
}

// fileSource reads result tables from the JSON files of a dataset root.
type fileSource struct {
	root string
}

// Table implements TableSource.
func (f *fileSource) Table(s Source, k Key, m Measure) (Table, error) {
	path := ResultPath(f.root, s, k, m)

	data, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return nil, newMissingResultError(s, k, m, path, err)
		}
		return nil, fmt.Errorf("read result table: %w", err)
	}

	table, err := decodeTable(data, s, k, m)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return table, nil
}

// decodeTable extracts the UID-keyed table from a result file. Files
// nest the table under source/key/measure, mirroring the query shape.
func decodeTable(data []byte, s Source, k Key, m Measure) (Table, error) {
	var file map[string]map[string]map[string]map[string]Value
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	raw, ok := file[string(s)][string(k)][string(m)]
	if !ok {
		return nil, fmt.Errorf("no %s/%s/%s entry in result file", s, k, m)
	}

	table := make(Table, len(raw))
	for rawUID, v := range raw {
		uid, err := parseArchID(rawUID)
		if err != nil {
			return nil, fmt.Errorf("result uid %q: %w", rawUID, err)
		}
		table[UID(uid)] = v
	}
	return table, nil
}

// tableKey indexes the result-store cache.
type tableKey struct {
	source  Source
	key     Key
	measure Measure
}

// resultStore caches tables from a TableSource. Loads are lazy: a
// triple is read on first access and reused afterwards. A failed load
// is not cached, so a table that appears on disk later can still be
// picked up. Not safe for concurrent use.
type resultStore struct {
	source TableSource
	cache  map[tableKey]Table
}

func newResultStore(src TableSource) *resultStore {
	return &resultStore{
		source: src,
		cache:  make(map[tableKey]Table),
	}
}

// get returns the table for a triple, loading it on first access.
func (r *resultStore) get(s Source, k Key, m Measure) (Table, error) {
	ck := tableKey{source: s, key: k, measure: m}
	if table, ok := r.cache[ck]; ok {
		return table, nil
	}

	table, err := r.source.Table(s, k, m)
	if err != nil {
		return nil, err
	}

	r.cache[ck] = table
	return table, nil
}

// cached reports whether a triple is already loaded. Used by tests to
// verify that invalid selections touch no store state.
func (r *resultStore) cached(s Source, k Key, m Measure) bool {
	_, ok := r.cache[tableKey{source: s, key: k, measure: m}]
	return ok
}

// loaded returns the number of cached tables.
func (r *resultStore) loaded() int {
	return len(r.cache)
}
