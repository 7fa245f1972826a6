// Package manifest describes which result archives a dataset root
// should contain, so users can check a download before query time.
//
// The dataset distribution is split into one archive per (data source,
// evaluation key) pair. A manifest lists the files each archive
// extracts to, with optional sha256 digests:
//
//	archives:
//	  - source: cifar10
//	    key: clean
//	    files:
//	      - name: clean_accuracy.json
//	        sha256: 9f2c...
//
// Verify walks the manifest against a root directory and reports every
// missing or corrupt file instead of stopping at the first.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robustnas/robustnas"
)

// Manifest lists the expected archives of a dataset root.
type Manifest struct {
	Archives []Archive `yaml:"archives"`
}

// Archive is one distributed (source, key) bundle.
type Archive struct {
	Source string `yaml:"source"`
	Key    string `yaml:"key"`
	Files  []File `yaml:"files"`
}

// File is one extracted file inside an archive.
type File struct {
	Name string `yaml:"name"`
	// SHA256 is the expected hex digest; empty skips the content check.
	SHA256 string `yaml:"sha256,omitempty"`
}

// Issue is one problem found during verification.
type Issue struct {
	Path   string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Reason)
}

// Load reads and validates a manifest file. Unknown YAML fields are
// rejected so typos surface instead of silently verifying nothing.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Archives) == 0 {
		return fmt.Errorf("no archives listed")
	}
	for i, a := range m.Archives {
		if !robustnas.ValidSource(robustnas.Source(a.Source)) {
			return fmt.Errorf("archive %d: unknown source %q", i, a.Source)
		}
		if !robustnas.ValidKey(robustnas.Key(a.Key)) {
			return fmt.Errorf("archive %d: unknown key %q", i, a.Key)
		}
		if !robustnas.SupportsCombination(robustnas.Source(a.Source), robustnas.Key(a.Key)) {
			return fmt.Errorf("archive %d: no evaluation exists for %s/%s", i, a.Source, a.Key)
		}
		if len(a.Files) == 0 {
			return fmt.Errorf("archive %d (%s/%s): no files listed", i, a.Source, a.Key)
		}
	}
	return nil
}

// Verify checks every manifest file under root. The returned issues
// are in manifest order; an empty slice means the root is complete.
func (m *Manifest) Verify(root string) []Issue {
	var issues []Issue
	for _, a := range m.Archives {
		for _, f := range a.Files {
			path := filepath.Join(root, a.Source, f.Name)
			if issue := verifyFile(path, f.SHA256); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}
	return issues
}

func verifyFile(path, wantSHA string) *Issue {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Issue{Path: path, Reason: "missing"}
		}
		return &Issue{Path: path, Reason: fmt.Sprintf("unreadable: %v", err)}
	}
	defer fh.Close()

	if wantSHA == "" {
		return nil
	}

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return &Issue{Path: path, Reason: fmt.Sprintf("hash failed: %v", err)}
	}
	got := hex.EncodeToString(h.Sum(nil))
	if got != wantSHA {
		return &Issue{Path: path, Reason: fmt.Sprintf("sha256 mismatch: got %s, want %s", got, wantSHA)}
	}
	return nil
}

// ForSelection builds a manifest covering every supported combination
// of the given sources, keys, and measures, without digests. Useful
// for checking a fresh download when no distributed manifest is at
// hand.
func ForSelection(sources []robustnas.Source, keys []robustnas.Key, measures []robustnas.Measure) *Manifest {
	m := &Manifest{}
	for _, s := range sources {
		for _, k := range keys {
			if !robustnas.SupportsCombination(s, k) {
				continue
			}
			a := Archive{Source: string(s), Key: string(k)}
			for _, mm := range measures {
				a.Files = append(a.Files, File{Name: robustnas.ResultFileName(k, mm)})
			}
			m.Archives = append(m.Archives, a)
		}
	}
	return m
}
