package robustnas

import (
	"errors"
	"testing"

	"github.com/robustnas/robustnas/internal/testutil"
)

func TestFileSource_MissingFile(t *testing.T) {
	root := testutil.WriteDataset(t)
	src := &fileSource{root: root}

	// fgsm results are not part of the fixture.
	_, err := src.Table(CIFAR10, "fgsm@Linf", Accuracy)
	if err == nil {
		t.Fatal("Table() for absent file succeeded")
	}
	if !IsMissingResult(err) {
		t.Errorf("error is not missing-result: %v", err)
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Source != CIFAR10 || e.Key != "fgsm@Linf" || e.Measure != Accuracy {
			t.Errorf("error fields = %s/%s/%s", e.Source, e.Key, e.Measure)
		}
	} else {
		t.Errorf("error has unexpected type %T", err)
	}
}

func TestFileSource_LoadsTable(t *testing.T) {
	root := testutil.WriteDataset(t)
	src := &fileSource{root: root}

	table, err := src.Table(CIFAR10, KeyClean, Accuracy)
	if err != nil {
		t.Fatalf("Table() failed: %v", err)
	}
	if len(table) != 3 {
		t.Fatalf("table has %d entries, want 3", len(table))
	}

	v, ok := table[testutil.Arch857]
	if !ok {
		t.Fatal("table missing uid 857")
	}
	f, err := v.Scalar()
	if err != nil {
		t.Fatalf("Scalar() failed: %v", err)
	}
	if f != testutil.CleanAccuracy857 {
		t.Errorf("clean accuracy = %v, want %v", f, testutil.CleanAccuracy857)
	}
}

func TestResultStore_CachesTables(t *testing.T) {
	root := testutil.WriteDataset(t)
	counting := &countingSource{inner: &fileSource{root: root}}
	store := newResultStore(counting)

	if store.cached(CIFAR10, KeyClean, Accuracy) {
		t.Fatal("table cached before first access")
	}

	for i := 0; i < 3; i++ {
		if _, err := store.get(CIFAR10, KeyClean, Accuracy); err != nil {
			t.Fatalf("get() iteration %d failed: %v", i, err)
		}
	}

	if counting.calls != 1 {
		t.Errorf("underlying source called %d times, want 1", counting.calls)
	}
	if !store.cached(CIFAR10, KeyClean, Accuracy) {
		t.Error("table not cached after access")
	}
	if store.loaded() != 1 {
		t.Errorf("loaded() = %d, want 1", store.loaded())
	}
}

func TestResultStore_FailedLoadNotCached(t *testing.T) {
	root := testutil.WriteDataset(t)
	store := newResultStore(&fileSource{root: root})

	if _, err := store.get(CIFAR10, "fgsm@Linf", Accuracy); err == nil {
		t.Fatal("get() for absent file succeeded")
	}
	if store.loaded() != 0 {
		t.Errorf("failed load left %d cached tables", store.loaded())
	}

	// The file appearing later must be picked up.
	testutil.WriteResultFile(t, root, "cifar10", "fgsm@Linf", "accuracy", map[string]any{
		"0":   []float64{0.4, 0.2},
		"112": []float64{0.5, 0.3},
		"857": []float64{0.45, 0.25},
	})
	if _, err := store.get(CIFAR10, "fgsm@Linf", Accuracy); err != nil {
		t.Fatalf("get() after file appeared failed: %v", err)
	}
}

// countingSource counts loads to observe cache behavior.
type countingSource struct {
	inner TableSource
	calls int
}

func (c *countingSource) Table(s Source, k Key, m Measure) (Table, error) {
	c.calls++
	return c.inner.Table(s, k, m)
}
