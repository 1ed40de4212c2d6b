package svm

import (
	"math"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
)

// sigmoidTrain fits P(y=1|f) = 1 / (1 + exp(A f + B)) to decision values by
// Newton's method with backtracking, using Platt's regularised targets
// (Lin, Lin and Weng, 2007).
func sigmoidTrain(dec []float64, positive []bool) (A, B float64) {
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	var prior1, prior0 float64
	for _, p := range positive {
		if p {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(dec))
	for i, p := range positive {
		if p {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	objective := func(a, b float64) float64 {
		f := 0.0
		for i, d := range dec {
			fApB := d*a + b
			if fApB >= 0 {
				f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
			} else {
				f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
			}
		}
		return f
	}

	A = 0
	B = math.Log((prior0 + 1) / (prior1 + 1))
	fval := objective(A, B)

	iter := 0
	for ; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, d := range dec {
			fApB := d*A + B
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p = e / (1 + e)
				q = 1 / (1 + e)
			} else {
				e := math.Exp(fApB)
				p = 1 / (1 + e)
				q = e / (1 + e)
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := A+step*dA, B+step*dB
			newf := objective(newA, newB)
			if newf < fval+0.0001*step*gd {
				A, B, fval = newA, newB, newf
				break
			}
			step /= 2
		}
		if step < minStep {
			errors.Warn(errors.NewConvergenceWarning("platt_scaling", iter, "line search fails"))
			break
		}
	}
	if iter >= maxIter {
		errors.Warn(errors.NewConvergenceWarning("platt_scaling", iter, "reaching maximal iterations"))
	}
	return A, B
}

// sigmoidPredict evaluates the fitted sigmoid at a decision value.
func sigmoidPredict(dec, A, B float64) float64 {
	fApB := dec*A + B
	if fApB >= 0 {
		return math.Exp(-fApB) / (1 + math.Exp(-fApB))
	}
	return 1 / (1 + math.Exp(fApB))
}
