package index

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/robustnas/robustnas"
	"github.com/robustnas/robustnas/internal/canonjson"
)

// BuildReport summarizes one index build.
type BuildReport struct {
	// BuildID uniquely identifies this build; recorded in index_meta.
	BuildID string

	// Tables is the number of result tables materialized.
	Tables int

	// Skipped lists triples left out because their result file was
	// absent or the combination has no evaluation.
	Skipped []string
}

// Build materializes the selected triples from ds into the index,
// along with the full architecture id space and epsilon grids.
//
// Triples whose result file is missing, and combinations with no
// evaluation, are skipped and reported rather than failing the build:
// an index over a partial download is still useful for the archives
// that are present. Any other error aborts the transaction.
//
// Rebuilding with the same inputs is idempotent: rows are replaced,
// not duplicated.
func (ix *Index) Build(ctx context.Context, ds *robustnas.Dataset, sources []robustnas.Source, keys []robustnas.Key, measures []robustnas.Measure) (*BuildReport, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin build: %w", err)
	}
	defer tx.Rollback()

	if err := writeArchs(ctx, tx, ds); err != nil {
		return nil, err
	}
	if err := writeGrids(ctx, tx, ds); err != nil {
		return nil, err
	}

	report := &BuildReport{BuildID: uuid.NewString()}
	for _, s := range sources {
		for _, k := range keys {
			for _, m := range measures {
				res, err := ds.Query([]robustnas.Source{s}, []robustnas.Key{k}, []robustnas.Measure{m})
				if robustnas.IsMissingResult(err) || robustnas.IsUnsupportedCombination(err) {
					report.Skipped = append(report.Skipped, fmt.Sprintf("%s/%s/%s", s, k, m))
					continue
				}
				if err != nil {
					return nil, fmt.Errorf("load %s/%s/%s: %w", s, k, m, err)
				}

				table, _ := res.Table(s, k, m)
				if err := writeTable(ctx, tx, s, k, m, table); err != nil {
					return nil, err
				}
				report.Tables++
			}
		}
	}

	if err := writeMeta(ctx, tx, "build_id", report.BuildID); err != nil {
		return nil, err
	}
	if err := writeMeta(ctx, tx, "root", ds.Root()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit build: %w", err)
	}
	return report, nil
}

func writeArchs(ctx context.Context, tx *sql.Tx, ds *robustnas.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO archs (id, uid, nb201)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET uid = excluded.uid, nb201 = excluded.nb201
	`)
	if err != nil {
		return fmt.Errorf("prepare archs insert: %w", err)
	}
	defer stmt.Close()

	meta := ds.Meta()
	for _, id := range meta.IDs() {
		uid, _ := meta.Resolve(id)
		nb201, _ := meta.ArchString(id)
		if _, err := stmt.ExecContext(ctx, int(id), int(uid), nb201); err != nil {
			return fmt.Errorf("write arch %d: %w", id, err)
		}
	}
	return nil
}

func writeGrids(ctx context.Context, tx *sql.Tx, ds *robustnas.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO grids (key, position, epsilon)
		VALUES (?, ?, ?)
		ON CONFLICT(key, position) DO UPDATE SET epsilon = excluded.epsilon
	`)
	if err != nil {
		return fmt.Errorf("prepare grids insert: %w", err)
	}
	defer stmt.Close()

	epsilons := ds.Meta().Epsilons()
	gridKeys := make([]robustnas.Key, 0, len(epsilons))
	for k := range epsilons {
		gridKeys = append(gridKeys, k)
	}
	slices.Sort(gridKeys)

	for _, k := range gridKeys {
		for pos, eps := range epsilons[k] {
			if _, err := stmt.ExecContext(ctx, string(k), pos, eps); err != nil {
				return fmt.Errorf("write grid %s[%d]: %w", k, pos, err)
			}
		}
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, s robustnas.Source, k robustnas.Key, m robustnas.Measure, table robustnas.Table) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (source, key, measure, uid, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source, key, measure, uid) DO UPDATE SET payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("prepare results insert: %w", err)
	}
	defer stmt.Close()

	uids := make([]robustnas.UID, 0, len(table))
	for uid := range table {
		uids = append(uids, uid)
	}
	slices.Sort(uids)

	for _, uid := range uids {
		payload, err := canonjson.Marshal(table[uid])
		if err != nil {
			return fmt.Errorf("serialize %s/%s/%s uid %d: %w", s, k, m, uid, err)
		}
		if _, err := stmt.ExecContext(ctx, string(s), string(k), string(m), int(uid), string(payload)); err != nil {
			return fmt.Errorf("write %s/%s/%s uid %d: %w", s, k, m, uid, err)
		}
	}
	return nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, name, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (name, value)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("write index_meta %q: %w", name, err)
	}
	return nil
}
