package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ROC holds the points of a receiver operating characteristic curve.
// Thresholds[i] is the score at or above which a sample is predicted
// positive to obtain (FPR[i], TPR[i]). Thresholds[0] is +Inf.
type ROC struct {
	FPR        []float64
	TPR        []float64
	Thresholds []float64
}

type rocConfig struct {
	dropIntermediate bool
}

// ROCOption configures ROCCurve.
type ROCOption func(*rocConfig)

// WithDropIntermediate controls whether collinear points are removed from
// the curve. Enabled by default; the area under the curve is unchanged.
func WithDropIntermediate(drop bool) ROCOption {
	return func(c *rocConfig) {
		c.dropIntermediate = drop
	}
}

// ROCCurve computes the ROC curve of binary labels against scores, with the
// curve points ordered by decreasing threshold.
func ROCCurve(yTrue, yScore *mat.VecDense, opts ...ROCOption) (*ROC, error) {
	cfg := rocConfig{dropIntermediate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	n, err := validatePair("ROCCurve", yTrue, yScore)
	if err != nil {
		return nil, err
	}
	if err := checkBinary("ROCCurve", yTrue); err != nil {
		return nil, err
	}

	fps, tps, thresholds := binaryClfCurve(yTrue, yScore, n)
	last := len(tps) - 1
	if tps[last] == 0 || fps[last] == 0 {
		return nil, errors.NewValueError("ROCCurve", "only one class present in y_true; ROC curve is not defined")
	}

	if cfg.dropIntermediate && len(fps) > 2 {
		fps, tps, thresholds = dropCollinear(fps, tps, thresholds)
	}

	roc := &ROC{
		FPR:        make([]float64, 0, len(fps)+1),
		TPR:        make([]float64, 0, len(tps)+1),
		Thresholds: make([]float64, 0, len(thresholds)+1),
	}
	roc.FPR = append(roc.FPR, 0)
	roc.TPR = append(roc.TPR, 0)
	roc.Thresholds = append(roc.Thresholds, math.Inf(1))

	totalFP, totalTP := fps[len(fps)-1], tps[len(tps)-1]
	for i := range fps {
		roc.FPR = append(roc.FPR, fps[i]/totalFP)
		roc.TPR = append(roc.TPR, tps[i]/totalTP)
		roc.Thresholds = append(roc.Thresholds, thresholds[i])
	}
	return roc, nil
}

// binaryClfCurve returns cumulative false and true positive counts at each
// distinct score, scanning scores from high to low.
func binaryClfCurve(yTrue, yScore *mat.VecDense, n int) (fps, tps, thresholds []float64) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) > yScore.AtVec(idx[b])
	})

	var tp, fp float64
	for i, k := range idx {
		if yTrue.AtVec(k) == 1 {
			tp++
		} else {
			fp++
		}
		// emit a point at the last sample of every run of equal scores
		if i == n-1 || yScore.AtVec(idx[i+1]) != yScore.AtVec(k) {
			fps = append(fps, fp)
			tps = append(tps, tp)
			thresholds = append(thresholds, yScore.AtVec(k))
		}
	}
	return fps, tps, thresholds
}

// dropCollinear keeps the end points and every point where the curve bends.
func dropCollinear(fps, tps, thresholds []float64) ([]float64, []float64, []float64) {
	keep := func(i int) bool {
		if i == 0 || i == len(fps)-1 {
			return true
		}
		d2f := fps[i+1] - 2*fps[i] + fps[i-1]
		d2t := tps[i+1] - 2*tps[i] + tps[i-1]
		return d2f != 0 || d2t != 0
	}

	var f, t, th []float64
	for i := range fps {
		if keep(i) {
			f = append(f, fps[i])
			t = append(t, tps[i])
			th = append(th, thresholds[i])
		}
	}
	return f, t, th
}

// AUCTrapezoid integrates y over x with the trapezoidal rule.
// x must be monotonic; a decreasing x yields the same positive area.
func AUCTrapezoid(x, y []float64) (float64, error) {
	if len(x) < 2 {
		return 0, errors.NewValueError("AUCTrapezoid", "at least 2 points are needed to compute area under curve")
	}
	if len(y) != len(x) {
		return 0, errors.NewDimensionError("AUCTrapezoid", len(x), len(y), 0)
	}

	direction := 1.0
	increasing, decreasing := true, true
	for i := 1; i < len(x); i++ {
		dx := x[i] - x[i-1]
		if dx < 0 {
			increasing = false
		}
		if dx > 0 {
			decreasing = false
		}
	}
	switch {
	case increasing:
	case decreasing:
		direction = -1
	default:
		return 0, errors.NewValueError("AUCTrapezoid", "x is neither increasing nor decreasing")
	}

	var area float64
	for i := 1; i < len(x); i++ {
		area += (x[i] - x[i-1]) * (y[i] + y[i-1]) / 2
	}
	return direction * area, nil
}

// AUC returns the area under the curve.
func (r *ROC) AUC() (float64, error) {
	return AUCTrapezoid(r.FPR, r.TPR)
}
