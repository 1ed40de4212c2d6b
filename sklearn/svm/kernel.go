package svm

import (
	"math"

	"github.com/YuminosukeSato/prognosis/core/parallel"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// kernelFunc evaluates k(a, b) for two feature rows.
type kernelFunc func(a, b []float64) float64

func rbfKernel(gamma float64) kernelFunc {
	return func(a, b []float64) float64 {
		d := floats.Distance(a, b, 2)
		return math.Exp(-gamma * d * d)
	}
}

func linearKernel(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// resolveGamma turns the gamma setting into a value. "scale" uses
// 1 / (n_features * X.var()) over all entries of X, "auto" 1 / n_features.
func resolveGamma(mode string, value float64, X *mat.Dense) (float64, error) {
	_, nFeatures := X.Dims()
	switch mode {
	case "scale":
		v := stat.PopVariance(X.RawMatrix().Data, nil)
		if v == 0 {
			return 1, nil
		}
		return 1 / (float64(nFeatures) * v), nil
	case "auto":
		return 1 / float64(nFeatures), nil
	case "value":
		if value <= 0 {
			return 0, errors.NewValidationError("gamma", "must be positive", value)
		}
		return value, nil
	default:
		return 0, errors.NewValidationError("gamma", "must be 'scale', 'auto' or a positive value", mode)
	}
}

// gramMatrix computes K(A_i, B_j) for every pair of rows, splitting the rows
// of A over nJobs workers. Each worker writes disjoint rows.
func gramMatrix(A, B *mat.Dense, k kernelFunc, nJobs int) *mat.Dense {
	ra, _ := A.Dims()
	rb, _ := B.Dims()
	K := mat.NewDense(ra, rb, nil)
	parallel.ParallelizeWithThreshold(ra, 64, nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			a := A.RawRowView(i)
			row := K.RawRowView(i)
			for j := 0; j < rb; j++ {
				row[j] = k(a, B.RawRowView(j))
			}
		}
	})
	return K
}
