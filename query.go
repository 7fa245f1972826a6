package robustnas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Result is the assembled answer of a query, nested source → key →
// measure → table. Iteration order of Sources, Keys, and Measures
// follows the order the caller supplied, so downstream iteration is
// deterministic; lookups are order-independent.
type Result struct {
	sources []Source
	entries map[Source]*sourceResult
}

type sourceResult struct {
	keys    []Key
	entries map[Key]*keyResult
}

type keyResult struct {
	measures []Measure
	entries  map[Measure]Table
}

// Sources returns the queried sources in query order.
func (r *Result) Sources() []Source {
	return slices.Clone(r.sources)
}

// Keys returns the queried keys for a source in query order.
func (r *Result) Keys(s Source) []Key {
	sr, ok := r.entries[s]
	if !ok {
		return nil
	}
	return slices.Clone(sr.keys)
}

// Measures returns the queried measures for a source and key in query
// order.
func (r *Result) Measures(s Source, k Key) []Measure {
	sr, ok := r.entries[s]
	if !ok {
		return nil
	}
	kr, ok := sr.entries[k]
	if !ok {
		return nil
	}
	return slices.Clone(kr.measures)
}

// Table returns the UID-keyed table for a triple.
func (r *Result) Table(s Source, k Key, m Measure) (Table, bool) {
	sr, ok := r.entries[s]
	if !ok {
		return nil, false
	}
	kr, ok := sr.entries[k]
	if !ok {
		return nil, false
	}
	t, ok := kr.entries[m]
	return t, ok
}

// Value returns one table entry.
func (r *Result) Value(s Source, k Key, m Measure, uid UID) (Value, bool) {
	t, ok := r.Table(s, k, m)
	if !ok {
		return Value{}, false
	}
	v, ok := t[uid]
	return v, ok
}

// MarshalJSON writes the nested structure with sources, keys, and
// measures in query order and table entries in ascending UID order,
// so serialized results are byte-stable for a given query.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r.sources {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONKey(&buf, string(s))
		sr := r.entries[s]
		buf.WriteByte('{')
		for j, k := range sr.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeJSONKey(&buf, string(k))
			kr := sr.entries[k]
			buf.WriteByte('{')
			for l, m := range kr.measures {
				if l > 0 {
					buf.WriteByte(',')
				}
				writeJSONKey(&buf, string(m))
				if err := writeJSONTable(&buf, kr.entries[m]); err != nil {
					return nil, err
				}
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) {
	data, _ := json.Marshal(key)
	buf.Write(data)
	buf.WriteByte(':')
}

func writeJSONTable(buf *bytes.Buffer, t Table) error {
	uids := make([]UID, 0, len(t))
	for uid := range t {
		uids = append(uids, uid)
	}
	slices.Sort(uids)

	buf.WriteByte('{')
	for i, uid := range uids {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONKey(buf, fmt.Sprintf("%d", uid))
		data, err := json.Marshal(t[uid])
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return nil
}

// Query retrieves result tables for every combination of the given
// sources, keys, and measures.
//
// All selections are validated against the known enumerations before
// any table is touched; an invalid value fails with an
// invalid-selection Error naming it. A valid pairing for which no
// evaluation exists (corruption keys on ImageNet16-120) fails with an
// unsupported-combination Error instead of being silently omitted.
//
// Duplicate selection entries are collapsed; the first occurrence
// fixes the position. Tables load lazily and stay cached on the
// Dataset, so repeating a query does not reread files.
func (d *Dataset) Query(data []Source, keys []Key, measures []Measure) (*Result, error) {
	data = dedup(data)
	keys = dedup(keys)
	measures = dedup(measures)

	if err := validateSelection(data, keys, measures); err != nil {
		return nil, err
	}

	res := &Result{
		sources: data,
		entries: make(map[Source]*sourceResult, len(data)),
	}
	for _, s := range data {
		sr := &sourceResult{
			keys:    keys,
			entries: make(map[Key]*keyResult, len(keys)),
		}
		res.entries[s] = sr
		for _, k := range keys {
			if !SupportsCombination(s, k) {
				return nil, newUnsupportedCombinationError(s, k)
			}
			kr := &keyResult{
				measures: measures,
				entries:  make(map[Measure]Table, len(measures)),
			}
			sr.entries[k] = kr
			for _, m := range measures {
				table, err := d.results.get(s, k, m)
				if err != nil {
					return nil, err
				}
				kr.entries[m] = table
			}
		}
	}
	return res, nil
}

// validateSelection checks every selection element against the
// enumerations. Pure; touches no store state.
func validateSelection(data []Source, keys []Key, measures []Measure) error {
	if len(data) == 0 {
		return &Error{Code: ErrCodeInvalidSelection, Message: "empty data-source selection"}
	}
	if len(keys) == 0 {
		return &Error{Code: ErrCodeInvalidSelection, Message: "empty evaluation-key selection"}
	}
	if len(measures) == 0 {
		return &Error{Code: ErrCodeInvalidSelection, Message: "empty measure selection"}
	}

	for _, s := range data {
		if !ValidSource(s) {
			return newInvalidSourceError(s)
		}
	}
	for _, k := range keys {
		if !ValidKey(k) {
			return newInvalidKeyError(k)
		}
	}
	for _, m := range measures {
		if !ValidMeasure(m) {
			return newInvalidMeasureError(m)
		}
	}
	return nil
}

func dedup[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
