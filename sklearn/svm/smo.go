package svm

import "math"

// tau replaces a non-positive curvature in the two-variable subproblem.
const tau = 1e-12

// smoResult is the solution of the C-SVC dual.
type smoResult struct {
	alpha     []float64
	rho       float64
	iter      int
	converged bool
}

// solveSMO minimises 0.5 a'Qa - e'a subject to 0 <= a <= C and y'a = 0,
// with Q_ij = y_i y_j K_ij, by sequential minimal optimisation using second
// order working set selection (Fan, Chen and Lin, 2005).
// K is the n x n kernel matrix in row-major order.
func solveSMO(K func(i int) []float64, y []float64, C, eps float64, maxIter int) smoResult {
	n := len(y)
	alpha := make([]float64, n)
	G := make([]float64, n) // gradient Qa - e
	QD := make([]float64, n)
	for i := range G {
		G[i] = -1
		QD[i] = K(i)[i]
	}

	isUpper := func(i int) bool { return alpha[i] >= C }
	isLower := func(i int) bool { return alpha[i] <= 0 }

	iter := 0
	converged := false
	for iter < maxIter {
		i, j, ok := selectWorkingSet(K, y, G, QD, isUpper, isLower, eps)
		if !ok {
			converged = true
			break
		}
		iter++

		Ki, Kj := K(i), K(j)
		oldAi, oldAj := alpha[i], alpha[j]
		Qij := y[i] * y[j] * Ki[j]

		if y[i] != y[j] {
			quad := QD[i] + QD[j] + 2*Qij
			if quad <= 0 {
				quad = tau
			}
			delta := (-G[i] - G[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = C - diff
				}
			} else if alpha[j] > C {
				alpha[j] = C
				alpha[i] = C + diff
			}
		} else {
			quad := QD[i] + QD[j] - 2*Qij
			if quad <= 0 {
				quad = tau
			}
			delta := (G[i] - G[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i] = C
					alpha[j] = sum - C
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j] = C
					alpha[i] = sum - C
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dAi, dAj := alpha[i]-oldAi, alpha[j]-oldAj
		for k := 0; k < n; k++ {
			G[k] += y[k] * (y[i]*Ki[k]*dAi + y[j]*Kj[k]*dAj)
		}
	}

	return smoResult{
		alpha:     alpha,
		rho:       calculateRho(y, G, isUpper, isLower),
		iter:      iter,
		converged: converged,
	}
}

// selectWorkingSet picks i as the maximal violating index and j by the
// largest decrease of the second order model. ok is false once the maximal
// violation drops below eps.
func selectWorkingSet(K func(i int) []float64, y, G, QD []float64, isUpper, isLower func(int) bool, eps float64) (int, int, bool) {
	gmax := math.Inf(-1)
	gmaxIdx := -1
	for t := range y {
		if y[t] == 1 {
			if !isUpper(t) && -G[t] >= gmax {
				gmax = -G[t]
				gmaxIdx = t
			}
		} else if !isLower(t) && G[t] >= gmax {
			gmax = G[t]
			gmaxIdx = t
		}
	}
	if gmaxIdx < 0 {
		return 0, 0, false
	}

	i := gmaxIdx
	Ki := K(i)
	gmax2 := math.Inf(-1)
	gminIdx := -1
	objDiffMin := math.Inf(1)

	for j := range y {
		var gradDiff float64
		if y[j] == 1 {
			if isLower(j) {
				continue
			}
			gradDiff = gmax + G[j]
			if G[j] >= gmax2 {
				gmax2 = G[j]
			}
		} else {
			if isUpper(j) {
				continue
			}
			gradDiff = gmax - G[j]
			if -G[j] >= gmax2 {
				gmax2 = -G[j]
			}
		}
		if gradDiff > 0 {
			// curvature of the pair along the feasible direction
			quad := QD[i] + QD[j] - 2*Ki[j]
			if quad <= 0 {
				quad = tau
			}
			objDiff := -(gradDiff * gradDiff) / quad
			if objDiff <= objDiffMin {
				gminIdx = j
				objDiffMin = objDiff
			}
		}
	}

	if gmax+gmax2 < eps || gminIdx < 0 {
		return 0, 0, false
	}
	return i, gminIdx, true
}

// calculateRho averages y_i G_i over free variables, or takes the middle of
// the feasible interval when every variable is at a bound.
func calculateRho(y, G []float64, isUpper, isLower func(int) bool) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	nFree := 0
	sumFree := 0.0
	for i := range y {
		yG := y[i] * G[i]
		switch {
		case isUpper(i):
			if y[i] == -1 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case isLower(i):
			if y[i] == 1 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			nFree++
			sumFree += yG
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
