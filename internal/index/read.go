package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robustnas/robustnas"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Table returns the materialized table for a triple, implementing
// robustnas.TableSource. A triple with no rows reports a
// missing-result error, mirroring what the file source reports for an
// absent file.
func (ix *Index) Table(s robustnas.Source, k robustnas.Key, m robustnas.Measure) (robustnas.Table, error) {
	// Deterministic ordering: ORDER BY uid ASC.
	rows, err := ix.db.Query(`
		SELECT uid, payload
		FROM results
		WHERE source = ? AND key = ? AND measure = ?
		ORDER BY uid ASC
	`, string(s), string(k), string(m))
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	table := make(robustnas.Table)
	for rows.Next() {
		var uid int
		var payload string
		if err := rows.Scan(&uid, &payload); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}

		var v robustnas.Value
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("decode payload for uid %d: %w", uid, err)
		}
		table[robustnas.UID(uid)] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	if len(table) == 0 {
		return nil, &robustnas.Error{
			Code:    robustnas.ErrCodeMissingResult,
			Message: fmt.Sprintf("no materialized table for %s/%s/%s; rebuild the index with this triple", s, k, m),
			Source:  s,
			Key:     k,
			Measure: m,
		}
	}
	return table, nil
}

// UID resolves an architecture id through the materialized isomorphism
// map, without touching meta.json.
func (ix *Index) UID(id robustnas.ArchID) (robustnas.UID, error) {
	var uid int
	err := ix.db.QueryRow(`SELECT uid FROM archs WHERE id = ?`, int(id)).Scan(&uid)
	if isNoRows(err) {
		return 0, &robustnas.Error{
			Code:    robustnas.ErrCodeUnknownArchitecture,
			Message: fmt.Sprintf("architecture id %d not in index", id),
			ArchID:  id,
		}
	}
	if err != nil {
		return 0, fmt.Errorf("query uid: %w", err)
	}
	return robustnas.UID(uid), nil
}

// EpsilonGrid returns the materialized grid for a key in position
// order, empty for unparameterized keys.
func (ix *Index) EpsilonGrid(k robustnas.Key) ([]float64, error) {
	rows, err := ix.db.Query(`
		SELECT epsilon
		FROM grids
		WHERE key = ?
		ORDER BY position ASC
	`, string(k))
	if err != nil {
		return nil, fmt.Errorf("query grid: %w", err)
	}
	defer rows.Close()

	var grid []float64
	for rows.Next() {
		var eps float64
		if err := rows.Scan(&eps); err != nil {
			return nil, fmt.Errorf("scan grid row: %w", err)
		}
		grid = append(grid, eps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grid: %w", err)
	}
	return grid, nil
}

// BuildID returns the id of the last completed build, or "" for an
// index that was never built.
func (ix *Index) BuildID() (string, error) {
	var id string
	err := ix.db.QueryRow(`SELECT value FROM index_meta WHERE name = 'build_id'`).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("query build id: %w", err)
	}
	return id, nil
}

// Triples returns every materialized (source, key, measure) triple in
// deterministic order.
func (ix *Index) Triples() ([]string, error) {
	rows, err := ix.db.Query(`
		SELECT DISTINCT source, key, measure
		FROM results
		ORDER BY source ASC, key ASC, measure ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query triples: %w", err)
	}
	defer rows.Close()

	var triples []string
	for rows.Next() {
		var s, k, m string
		if err := rows.Scan(&s, &k, &m); err != nil {
			return nil, fmt.Errorf("scan triple: %w", err)
		}
		triples = append(triples, fmt.Sprintf("%s/%s/%s", s, k, m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triples: %w", err)
	}
	return triples, nil
}
