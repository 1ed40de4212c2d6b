// Package svm provides a C-support vector classifier solved with SMO, with
// optional Platt-scaled probability estimates.
package svm

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/core/parallel"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// plattFolds is the number of internal cross-validation folds used to
// collect decision values for Platt scaling.
const plattFolds = 5

// SVC is a binary C-support vector classifier compatible with
// scikit-learn's SVC (libsvm). Predict uses the sign of the decision
// function; PredictProba is available when probability estimates are
// enabled and is calibrated separately, so the two may disagree near the
// boundary.
type SVC struct {
	state *model.StateManager

	// Hyperparameters
	C           float64
	kernel      string  // "rbf" or "linear"
	gammaMode   string  // "scale", "auto" or "value"
	gamma       float64 // used when gammaMode == "value"
	tol         float64
	maxIter     int // <= 0 uses the libsvm default cap
	probability bool
	randomState int64
	nJobs       int

	// Fitted attributes
	supportVectors_ *mat.Dense
	support_        []int
	dualCoef_       []float64 // alpha_i * y_i for each support vector
	intercept_      float64
	probA_          float64
	probB_          float64
	classes_        []int
	gamma_          float64
	nIter_          int
	kernelFn        kernelFunc
}

// SVCOption is a functional option for SVC
type SVCOption func(*SVC)

// NewSVC creates an SVC with scikit-learn defaults: RBF kernel, C=1,
// gamma="scale", tol=1e-3, no probability estimates.
func NewSVC(opts ...SVCOption) *SVC {
	s := &SVC{
		state:     model.NewStateManager(),
		C:         1.0,
		kernel:    "rbf",
		gammaMode: "scale",
		tol:       1e-3,
		nJobs:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSVCC sets the regularisation parameter C.
func WithSVCC(c float64) SVCOption {
	return func(s *SVC) { s.C = c }
}

// WithSVCKernel selects "rbf" or "linear".
func WithSVCKernel(kernel string) SVCOption {
	return func(s *SVC) { s.kernel = kernel }
}

// WithSVCGamma fixes the RBF width.
func WithSVCGamma(gamma float64) SVCOption {
	return func(s *SVC) {
		s.gammaMode = "value"
		s.gamma = gamma
	}
}

// WithSVCGammaMode selects "scale" or "auto".
func WithSVCGammaMode(mode string) SVCOption {
	return func(s *SVC) { s.gammaMode = mode }
}

// WithSVCTol sets the stopping tolerance on the maximal KKT violation.
func WithSVCTol(tol float64) SVCOption {
	return func(s *SVC) { s.tol = tol }
}

// WithSVCMaxIter caps the number of SMO iterations.
func WithSVCMaxIter(n int) SVCOption {
	return func(s *SVC) { s.maxIter = n }
}

// WithSVCProbability enables Platt-scaled probability estimates.
func WithSVCProbability(enabled bool) SVCOption {
	return func(s *SVC) { s.probability = enabled }
}

// WithSVCRandomState seeds the fold shuffle of the probability calibration.
func WithSVCRandomState(seed int64) SVCOption {
	return func(s *SVC) { s.randomState = seed }
}

// WithSVCNJobs sets the number of workers for kernel evaluation and the
// calibration folds. Values <= 0 use every CPU.
func WithSVCNJobs(n int) SVCOption {
	return func(s *SVC) { s.nJobs = n }
}

func (s *SVC) validateParams() error {
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be positive", s.C)
	}
	if s.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", s.tol)
	}
	if s.kernel != "rbf" && s.kernel != "linear" {
		return errors.NewValidationError("kernel", "must be 'rbf' or 'linear'", s.kernel)
	}
	return nil
}

func (s *SVC) iterationCap(n int) int {
	if s.maxIter > 0 {
		return s.maxIter
	}
	if c := 100 * n; c > 10000000 {
		return c
	}
	return 10000000
}

// Fit solves the dual problem on the training set and, when probability
// estimates are enabled, calibrates them by internal cross-validation.
func (s *SVC) Fit(X, y mat.Matrix) error {
	if err := s.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.CheckXY("SVC.Fit", X, y)
	if err != nil {
		return err
	}
	labels, classes, err := model.EncodeLabels("SVC.Fit", y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return errors.NewValueError("SVC.Fit", fmt.Sprintf("only binary targets are supported, got %d classes", len(classes)))
	}

	s.state.Reset()
	Xd := mat.DenseCopyOf(X)

	s.kernelFn = linearKernel
	s.gamma_ = 0
	if s.kernel == "rbf" {
		s.gamma_, err = resolveGamma(s.gammaMode, s.gamma, Xd)
		if err != nil {
			return err
		}
		s.kernelFn = rbfKernel(s.gamma_)
	}

	ySigned := make([]float64, nSamples)
	for i, l := range labels {
		ySigned[i] = 2*float64(l) - 1
	}

	K := gramMatrix(Xd, Xd, s.kernelFn, s.nJobs)
	res := solveSMO(K.RawRowView, ySigned, s.C, s.tol, s.iterationCap(nSamples))
	if !res.converged {
		errors.Warn(errors.NewConvergenceWarning("smo", res.iter, "Solver terminated early (max_iter reached). Consider pre-processing your data."))
	}
	if err := errors.CheckScalar("smo", res.rho, res.iter); err != nil {
		return err
	}

	s.support_ = s.support_[:0]
	s.dualCoef_ = s.dualCoef_[:0]
	for i, a := range res.alpha {
		if a > 0 {
			s.support_ = append(s.support_, i)
			s.dualCoef_ = append(s.dualCoef_, a*ySigned[i])
		}
	}
	s.supportVectors_ = mat.NewDense(len(s.support_), nFeatures, nil)
	for k, i := range s.support_ {
		s.supportVectors_.SetRow(k, Xd.RawRowView(i))
	}
	s.intercept_ = -res.rho
	s.nIter_ = res.iter
	s.classes_ = classes

	if s.probability {
		dec := s.crossValDecisions(K, ySigned)
		positive := make([]bool, nSamples)
		for i, v := range ySigned {
			positive[i] = v > 0
		}
		s.probA_, s.probB_ = sigmoidTrain(dec, positive)
		if err := errors.CheckNumericalStability("platt_scaling", []float64{s.probA_, s.probB_}, 0); err != nil {
			return err
		}
	}

	s.state.SetFitted(nFeatures, nSamples)

	logger := log.GetLoggerWithName("svm.svc")
	logger.Debug("SVC fitted",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		"n_support", len(s.support_),
		"gamma", s.gamma_,
		log.IterationKey, s.nIter_)
	return nil
}

// crossValDecisions returns out-of-fold decision values for every training
// sample, reusing the training kernel matrix.
func (s *SVC) crossValDecisions(K *mat.Dense, y []float64) []float64 {
	n := len(y)
	rng := rand.New(rand.NewPCG(uint64(s.randomState), uint64(s.randomState)))
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}

	dec := make([]float64, n)
	parallel.Parallelize(plattFolds, s.nJobs, func(start, end int) {
		for f := start; f < end; f++ {
			begin, stop := f*n/plattFolds, (f+1)*n/plattFolds
			train := make([]int, 0, n-(stop-begin))
			train = append(train, perm[:begin]...)
			train = append(train, perm[stop:]...)
			s.foldDecisions(K, y, train, perm[begin:stop], dec)
		}
	})
	return dec
}

// foldDecisions trains on the train indices and writes decision values of
// the held out indices into dec. Folds write disjoint entries.
func (s *SVC) foldDecisions(K *mat.Dense, y []float64, train, test []int, dec []float64) {
	var nPos, nNeg int
	ySub := make([]float64, len(train))
	for k, i := range train {
		ySub[k] = y[i]
		if y[i] > 0 {
			nPos++
		} else {
			nNeg++
		}
	}

	switch {
	case nPos == 0 && nNeg == 0:
		for _, i := range test {
			dec[i] = 0
		}
		return
	case nNeg == 0:
		for _, i := range test {
			dec[i] = 1
		}
		return
	case nPos == 0:
		for _, i := range test {
			dec[i] = -1
		}
		return
	}

	sub := mat.NewDense(len(train), len(train), nil)
	for a, i := range train {
		src, dst := K.RawRowView(i), sub.RawRowView(a)
		for b, j := range train {
			dst[b] = src[j]
		}
	}
	res := solveSMO(sub.RawRowView, ySub, s.C, s.tol, s.iterationCap(len(train)))

	for _, t := range test {
		row := K.RawRowView(t)
		v := -res.rho
		for k, i := range train {
			if a := res.alpha[k]; a > 0 {
				v += a * ySub[k] * row[i]
			}
		}
		dec[t] = v
	}
}

// DecisionFunction returns signed distances to the separating surface as
// an n x 1 matrix. Positive values favour Classes()[1].
func (s *SVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	if err := s.state.CheckFeatures("SVC.DecisionFunction", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	dec := mat.NewDense(rows, 1, nil)
	if len(s.dualCoef_) == 0 {
		for i := 0; i < rows; i++ {
			dec.Set(i, 0, s.intercept_)
		}
		return dec, nil
	}

	Kx := gramMatrix(mat.DenseCopyOf(X), s.supportVectors_, s.kernelFn, s.nJobs)
	dec.Mul(Kx, mat.NewVecDense(len(s.dualCoef_), s.dualCoef_))
	for i := 0; i < rows; i++ {
		dec.Set(i, 0, dec.At(i, 0)+s.intercept_)
	}
	return dec, nil
}

// Predict returns Classes()[1] where the decision function is positive
// and Classes()[0] elsewhere.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	rows, _ := dec.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		label := s.classes_[0]
		if dec.At(i, 0) > 0 {
			label = s.classes_[1]
		}
		predictions.Set(i, 0, float64(label))
	}
	return predictions, nil
}

// PredictProba returns Platt-scaled class probabilities.
func (s *SVC) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SVC", "PredictProba"); err != nil {
		return nil, err
	}
	if !s.probability {
		return nil, errors.NewModelError("SVC.PredictProba", "probability estimates are disabled; refit with WithSVCProbability(true)", nil)
	}
	dec, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	rows, _ := dec.Dims()
	probas := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := sigmoidPredict(dec.At(i, 0), s.probA_, s.probB_)
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Classes returns the class labels seen during Fit.
func (s *SVC) Classes() []int {
	return append([]int(nil), s.classes_...)
}

// Support returns the training indices of the support vectors.
func (s *SVC) Support() []int {
	return append([]int(nil), s.support_...)
}

// Gamma returns the kernel width used by the last Fit.
func (s *SVC) Gamma() float64 {
	return s.gamma_
}

// GetParams returns the hyperparameters keyed by scikit-learn names.
func (s *SVC) GetParams() map[string]interface{} {
	var gamma interface{} = s.gammaMode
	if s.gammaMode == "value" {
		gamma = s.gamma
	}
	return map[string]interface{}{
		"C":            s.C,
		"kernel":       s.kernel,
		"gamma":        gamma,
		"tol":          s.tol,
		"max_iter":     s.maxIter,
		"probability":  s.probability,
		"random_state": s.randomState,
		"n_jobs":       s.nJobs,
	}
}

// SetParams updates hyperparameters. gamma accepts "scale", "auto" or a float64.
func (s *SVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		ok := true
		switch key {
		case "C":
			s.C, ok = value.(float64)
		case "kernel":
			s.kernel, ok = value.(string)
		case "gamma":
			switch g := value.(type) {
			case string:
				s.gammaMode = g
			case float64:
				s.gammaMode, s.gamma = "value", g
			default:
				ok = false
			}
		case "tol":
			s.tol, ok = value.(float64)
		case "max_iter":
			s.maxIter, ok = value.(int)
		case "probability":
			s.probability, ok = value.(bool)
		case "random_state":
			s.randomState, ok = value.(int64)
		case "n_jobs":
			s.nJobs, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return s.validateParams()
}

var _ model.Classifier = (*SVC)(nil)
