package robustnas

// Dataset is the accessor over one dataset root. It owns the loaded
// metadata and the lazy result-table cache.
//
// A Dataset is read-only but its cache is not locked; share one
// instance across goroutines only behind external synchronization, or
// open one Dataset per goroutine.
type Dataset struct {
	root    string
	meta    *Meta
	results *resultStore
}

// Option configures a Dataset at Open time.
type Option func(*Dataset)

// WithTableSource overrides where result tables come from. The default
// reads <root>/<source>/<key>_<measure>.json; internal/index supplies a
// SQLite-backed source built from those files. Metadata always loads
// from <root>/meta.json.
func WithTableSource(src TableSource) Option {
	return func(d *Dataset) {
		d.results = newResultStore(src)
	}
}

// Open loads the metadata under root and prepares the result store.
// Result tables themselves load lazily on first query.
//
// Fails with a missing-metadata Error when <root>/meta.json is absent
// and an invalid-metadata Error when it does not match the expected
// shape.
func Open(root string, opts ...Option) (*Dataset, error) {
	meta, err := loadMeta(root)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		root:    root,
		meta:    meta,
		results: newResultStore(&fileSource{root: root}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root returns the dataset root path.
func (d *Dataset) Root() string {
	return d.root
}

// Meta returns the loaded metadata.
func (d *Dataset) Meta() *Meta {
	return d.meta
}

// UID resolves an architecture id to the canonical UID of its
// isomorphism class. Resolution is idempotent: a UID resolves to
// itself. Fails with an unknown-architecture Error for ids outside the
// range recorded in the metadata.
func (d *Dataset) UID(id ArchID) (UID, error) {
	uid, ok := d.meta.Resolve(id)
	if !ok {
		return 0, newUnknownArchitectureError(id)
	}
	return uid, nil
}

// ArchString returns the NB201 cell string of an architecture id.
func (d *Dataset) ArchString(id ArchID) (string, error) {
	s, ok := d.meta.ArchString(id)
	if !ok {
		return "", newUnknownArchitectureError(id)
	}
	return s, nil
}

// ArchID returns the architecture id of an NB201 cell string.
func (d *Dataset) ArchID(s string) (ArchID, error) {
	id, ok := d.meta.ArchID(s)
	if !ok {
		return 0, &Error{
			Code:    ErrCodeUnknownArchitecture,
			Message: "no architecture has cell string " + s,
		}
	}
	return id, nil
}

// EpsilonGrid returns the ordered parameter grid of a key, empty for
// unparameterized keys.
func (d *Dataset) EpsilonGrid(k Key) []float64 {
	return d.meta.EpsilonGrid(k)
}

// CanonicalUIDs returns all canonical UIDs in ascending order.
func (d *Dataset) CanonicalUIDs() []UID {
	return d.meta.CanonicalUIDs()
}
