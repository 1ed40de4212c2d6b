package model

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CheckXY validates a training pair: X non-empty, y a column vector with
// one row per sample, and every value finite.
func CheckXY(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, errors.Wrapf(errors.ErrEmptyData, "%s", op)
	}
	nSamples, nFeatures = X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return 0, 0, errors.Wrapf(errors.ErrEmptyData, "%s", op)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return 0, 0, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if err := errors.CheckMatrix(op, X, nSamples, nFeatures, 0); err != nil {
		return 0, 0, err
	}
	return nSamples, nFeatures, nil
}

// EncodeLabels converts the first column of y into indices into the sorted
// set of distinct class labels.
func EncodeLabels(op string, y mat.Matrix) (encoded []int, classes []int, err error) {
	n, _ := y.Dims()
	raw := make([]int, n)
	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, nil, errors.NewValidationError("y", "class labels must be integers", v)
		}
		raw[i] = int(v)
		seen[raw[i]] = struct{}{}
	}

	classes = make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	if len(classes) < 2 {
		return nil, nil, errors.Wrapf(errors.ErrSingleClass, "%s", op)
	}

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded = make([]int, n)
	for i, c := range raw {
		encoded[i] = index[c]
	}
	return encoded, classes, nil
}
