package linear_model

import (
	"math"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// logisticObjective is the mean log loss plus alpha/2 * ||coef||^2.
// Parameters are laid out row-major, one row of nFeatures coefficients
// (followed by the intercept when fitted) per output.
type logisticObjective struct {
	X            *mat.Dense
	labels       []int
	nSamples     int
	nFeatures    int
	nOutputs     int
	fitIntercept bool
	alpha        float64
}

func (o *logisticObjective) stride() int {
	if o.fitIntercept {
		return o.nFeatures + 1
	}
	return o.nFeatures
}

func (o *logisticObjective) nParams() int {
	return o.nOutputs * o.stride()
}

// scores computes the linear predictor of sample i for every output.
func (o *logisticObjective) scores(w []float64, i int, z []float64) {
	stride := o.stride()
	row := o.X.RawRowView(i)
	for k := 0; k < o.nOutputs; k++ {
		coef := w[k*stride : k*stride+o.nFeatures]
		z[k] = floats.Dot(coef, row)
		if o.fitIntercept {
			z[k] += w[k*stride+o.nFeatures]
		}
	}
}

func (o *logisticObjective) penalty(w []float64) float64 {
	if o.alpha == 0 {
		return 0
	}
	stride := o.stride()
	var sq float64
	for k := 0; k < o.nOutputs; k++ {
		coef := w[k*stride : k*stride+o.nFeatures]
		sq += floats.Dot(coef, coef)
	}
	return 0.5 * o.alpha * sq
}

func (o *logisticObjective) loss(w []float64) float64 {
	z := make([]float64, o.nOutputs)
	var total float64
	for i := 0; i < o.nSamples; i++ {
		o.scores(w, i, z)
		if o.nOutputs == 1 {
			// log(1 + exp(-s*z)) with s in {-1, +1}
			s := 2*float64(o.labels[i]) - 1
			total += errors.Log1pExp(-s * z[0])
			continue
		}
		total += floats.LogSumExp(z) - z[o.labels[i]]
	}
	return total/float64(o.nSamples) + o.penalty(w)
}

func (o *logisticObjective) grad(grad, w []float64) {
	for j := range grad {
		grad[j] = 0
	}
	stride := o.stride()
	z := make([]float64, o.nOutputs)
	inv := 1 / float64(o.nSamples)

	for i := 0; i < o.nSamples; i++ {
		o.scores(w, i, z)
		row := o.X.RawRowView(i)
		if o.nOutputs == 1 {
			r := (sigmoid(z[0]) - float64(o.labels[i])) * inv
			o.accumulate(grad[:stride], row, r)
			continue
		}
		lse := floats.LogSumExp(z)
		for k := 0; k < o.nOutputs; k++ {
			r := math.Exp(z[k] - lse)
			if k == o.labels[i] {
				r--
			}
			o.accumulate(grad[k*stride:(k+1)*stride], row, r*inv)
		}
	}

	if o.alpha != 0 {
		for k := 0; k < o.nOutputs; k++ {
			coef := w[k*stride : k*stride+o.nFeatures]
			floats.AddScaled(grad[k*stride:k*stride+o.nFeatures], o.alpha, coef)
		}
	}
}

func (o *logisticObjective) accumulate(g, row []float64, r float64) {
	floats.AddScaled(g[:o.nFeatures], r, row)
	if o.fitIntercept {
		g[o.nFeatures] += r
	}
}
