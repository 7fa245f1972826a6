package robustnas

import (
	"encoding/json"
	"fmt"
)

// ValueKind identifies the shape of a result value.
type ValueKind int

const (
	// KindScalar is a single number, e.g. clean accuracy.
	KindScalar ValueKind = iota

	// KindVector is one number per grid position, e.g. accuracy under
	// a parameterized attack, index-aligned with the epsilon grid.
	KindVector

	// KindMatrix is a single confusion matrix.
	KindMatrix

	// KindMatrixSeries is one confusion matrix per grid position.
	KindMatrixSeries
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindMatrixSeries:
		return "matrix-series"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is one result-table entry. Its shape depends on the measure and
// on whether the evaluation key is parameterized:
//
//	accuracy/confidence, clean:          scalar
//	accuracy/confidence, parameterized:  vector (one entry per epsilon/severity)
//	cm, clean:                           matrix
//	cm, parameterized:                   matrix series
//
// The shape is determined from the JSON nesting depth at decode time.
// Accessors return an error when called for the wrong kind rather than
// guessing a conversion.
type Value struct {
	kind   ValueKind
	scalar float64
	vector []float64
	mats   [][][]float64
}

// NewScalar constructs a scalar Value.
func NewScalar(v float64) Value {
	return Value{kind: KindScalar, scalar: v}
}

// NewVector constructs a vector Value.
func NewVector(v []float64) Value {
	return Value{kind: KindVector, vector: v}
}

// NewMatrix constructs a matrix Value.
func NewMatrix(m [][]float64) Value {
	return Value{kind: KindMatrix, mats: [][][]float64{m}}
}

// NewMatrixSeries constructs a matrix-series Value.
func NewMatrixSeries(ms [][][]float64) Value {
	return Value{kind: KindMatrixSeries, mats: ms}
}

// Kind returns the value's shape.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Len returns the number of grid positions a value spans: 1 for scalars
// and matrices, the vector or series length otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindVector:
		return len(v.vector)
	case KindMatrixSeries:
		return len(v.mats)
	default:
		return 1
	}
}

// Scalar returns the scalar value.
func (v Value) Scalar() (float64, error) {
	if v.kind != KindScalar {
		return 0, fmt.Errorf("value is %s, not scalar", v.kind)
	}
	return v.scalar, nil
}

// Vector returns the per-grid-position values.
func (v Value) Vector() ([]float64, error) {
	if v.kind != KindVector {
		return nil, fmt.Errorf("value is %s, not vector", v.kind)
	}
	return v.vector, nil
}

// Matrix returns the confusion matrix.
func (v Value) Matrix() ([][]float64, error) {
	if v.kind != KindMatrix {
		return nil, fmt.Errorf("value is %s, not matrix", v.kind)
	}
	return v.mats[0], nil
}

// MatrixSeries returns the per-grid-position confusion matrices.
func (v Value) MatrixSeries() ([][][]float64, error) {
	if v.kind != KindMatrixSeries {
		return nil, fmt.Errorf("value is %s, not matrix-series", v.kind)
	}
	return v.mats, nil
}

// At returns the value at grid position i as a scalar, for scalar and
// vector values. Scalars accept only position 0.
func (v Value) At(i int) (float64, error) {
	switch v.kind {
	case KindScalar:
		if i != 0 {
			return 0, fmt.Errorf("scalar value has no position %d", i)
		}
		return v.scalar, nil
	case KindVector:
		if i < 0 || i >= len(v.vector) {
			return 0, fmt.Errorf("position %d out of range [0,%d)", i, len(v.vector))
		}
		return v.vector[i], nil
	default:
		return 0, fmt.Errorf("value is %s, not indexable as scalar", v.kind)
	}
}

// MarshalJSON writes the value in its on-disk shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindVector:
		return json.Marshal(v.vector)
	case KindMatrix:
		return json.Marshal(v.mats[0])
	case KindMatrixSeries:
		return json.Marshal(v.mats)
	default:
		return nil, fmt.Errorf("cannot marshal %s", v.kind)
	}
}

// UnmarshalJSON determines the shape from nesting depth: a number is a
// scalar, a flat array a vector, a 2-deep array a matrix, a 3-deep
// array a matrix series.
func (v *Value) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = NewScalar(scalar)
		return nil
	}

	var vector []float64
	if err := json.Unmarshal(data, &vector); err == nil {
		*v = NewVector(vector)
		return nil
	}

	var matrix [][]float64
	if err := json.Unmarshal(data, &matrix); err == nil {
		*v = NewMatrix(matrix)
		return nil
	}

	var series [][][]float64
	if err := json.Unmarshal(data, &series); err == nil {
		*v = NewMatrixSeries(series)
		return nil
	}

	return fmt.Errorf("result value has unrecognized shape: %s", truncateJSON(data))
}

// truncateJSON shortens raw JSON for error messages.
func truncateJSON(data []byte) string {
	const max = 64
	if len(data) <= max {
		return string(data)
	}
	return string(data[:max]) + "..."
}
