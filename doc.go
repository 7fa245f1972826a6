// Package robustnas provides read access to a pre-computed dataset of
// neural-architecture robustness evaluations.
//
// The dataset records accuracy, prediction confidence, and confusion
// matrices for every unique NAS-Bench-201 cell architecture, evaluated
// on clean data, under adversarial attacks, and under common image
// corruptions. All results were computed offline; this package only
// indexes and retrieves them.
//
// # Layout
//
// A dataset root directory contains:
//
//	meta.json                       architecture ids, isomorphism map, epsilon grids
//	<source>/<key>_<measure>.json   one result table per evaluation condition
//
// for example cifar10/pgd@Linf_accuracy.json. Result tables are keyed by
// UID, the canonical id of an isomorphism class: architectures that are
// structurally equivalent share one UID and one set of results.
//
// # Usage
//
//	ds, err := robustnas.Open("robustness-data")
//	if err != nil { ... }
//
//	res, err := ds.Query(
//	    []robustnas.Source{robustnas.CIFAR10},
//	    []robustnas.Key{robustnas.KeyClean, "pgd@Linf"},
//	    []robustnas.Measure{robustnas.Accuracy},
//	)
//	if err != nil { ... }
//
//	uid, _ := ds.UID(13433)
//	v, _ := res.Value(robustnas.CIFAR10, "pgd@Linf", robustnas.Accuracy, uid)
//	acc, _ := v.Vector() // one entry per epsilon in ds.EpsilonGrid("pgd@Linf")
//
// Result tables load lazily on first access and are cached for the
// lifetime of the Dataset. The cache has no internal locking; use one
// Dataset per goroutine or serialize access externally.
package robustnas
