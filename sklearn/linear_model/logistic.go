// Package linear_model provides linear classifiers.
package linear_model

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression implements L2-regularised logistic regression fitted
// with L-BFGS. Compatible with scikit-learn's LogisticRegression(solver="lbfgs"):
// two classes use the binary log loss, more classes the multinomial loss.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	maxIter      int     // Maximum L-BFGS iterations
	tol          float64 // Stop when the max absolute gradient entry falls below tol

	// Model parameters
	coef_      [][]float64 // 1 x n_features for binary, n_classes x n_features otherwise
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nClasses_  int         // Number of classes
	nFeatures_ int         // Number of features
	nIter_     int         // Iterations run by the solver
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type ("l2" or "none")
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

func (lr *LogisticRegression) validateParams() error {
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "lbfgs supports only 'l2' or 'none'", lr.penalty)
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures, err := model.CheckXY("LogisticRegression.Fit", X, y)
	if err != nil {
		return err
	}
	labels, classes, err := model.EncodeLabels("LogisticRegression.Fit", y)
	if err != nil {
		return err
	}

	lr.state.Reset()
	lr.classes_ = classes
	lr.nClasses_ = len(classes)
	lr.nFeatures_ = nFeatures

	obj := &logisticObjective{
		X:            mat.DenseCopyOf(X),
		labels:       labels,
		nSamples:     nSamples,
		nFeatures:    nFeatures,
		nOutputs:     lr.nOutputs(),
		fitIntercept: lr.fitIntercept,
	}
	if lr.penalty == "l2" {
		obj.alpha = 1 / (lr.C * float64(nSamples))
	}

	w, err := lr.minimize(obj)
	if err != nil {
		return err
	}
	lr.unpack(w, obj)

	lr.state.SetFitted(nFeatures, nSamples)

	logger := log.GetLoggerWithName("linear_model.logistic")
	logger.Debug("LogisticRegression fitted",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, lr.nClasses_,
		log.IterationKey, lr.nIter_)
	return nil
}

// nOutputs is the number of coefficient rows: one for the binary loss.
func (lr *LogisticRegression) nOutputs() int {
	if lr.nClasses_ == 2 {
		return 1
	}
	return lr.nClasses_
}

// minimize runs L-BFGS from zero weights. Hitting max_iter raises a
// ConvergenceWarning and keeps the last iterate, as scikit-learn does.
func (lr *LogisticRegression) minimize(obj *logisticObjective) ([]float64, error) {
	problem := optimize.Problem{
		Func: obj.loss,
		Grad: obj.grad,
	}
	settings := &optimize.Settings{
		MajorIterations:   lr.maxIter,
		GradientThreshold: lr.tol,
	}
	w0 := make([]float64, obj.nParams())

	result, err := optimize.Minimize(problem, w0, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, errors.NewModelError("LogisticRegression.Fit", "lbfgs failed", err)
	}
	if cerr := errors.CheckNumericalStability("lbfgs", result.X, result.Stats.MajorIterations); cerr != nil {
		return nil, cerr
	}
	lr.nIter_ = result.Stats.MajorIterations

	switch {
	case result.Status == optimize.IterationLimit:
		errors.Warn(errors.NewConvergenceWarning("lbfgs", lr.nIter_,
			"STOP: TOTAL NO. of ITERATIONS REACHED LIMIT. Increase max_iter or scale the data."))
	case err != nil:
		// line search stalls close to the optimum; the iterate is still usable
		errors.Warn(errors.NewConvergenceWarning("lbfgs", lr.nIter_, err.Error()))
	}
	return result.X, nil
}

func (lr *LogisticRegression) unpack(w []float64, obj *logisticObjective) {
	stride := obj.stride()
	lr.coef_ = make([][]float64, obj.nOutputs)
	lr.intercept_ = make([]float64, obj.nOutputs)
	for k := 0; k < obj.nOutputs; k++ {
		row := w[k*stride : (k+1)*stride]
		lr.coef_[k] = append([]float64(nil), row[:obj.nFeatures]...)
		if obj.fitIntercept {
			lr.intercept_[k] = row[obj.nFeatures]
		}
	}
}

// DecisionFunction returns the linear scores: n x 1 for binary problems,
// n x n_classes otherwise.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction"); err != nil {
		return nil, err
	}
	if err := lr.state.CheckFeatures("LogisticRegression.DecisionFunction", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	nOut := len(lr.coef_)
	scores := mat.NewDense(rows, nOut, nil)
	for i := 0; i < rows; i++ {
		for k := 0; k < nOut; k++ {
			z := lr.intercept_[k]
			for j, c := range lr.coef_[k] {
				z += c * X.At(i, j)
			}
			scores.Set(i, k, z)
		}
	}
	return scores, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "Predict"); err != nil {
		return nil, err
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	rows, cols := probas.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best := 0
		for k := 1; k < cols; k++ {
			if probas.At(i, k) > probas.At(i, best) {
				best = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "PredictProba"); err != nil {
		return nil, err
	}
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	rows, _ := scores.Dims()
	probas := mat.NewDense(rows, lr.nClasses_, nil)
	z := make([]float64, lr.nClasses_)
	for i := 0; i < rows; i++ {
		if lr.nClasses_ == 2 {
			p := sigmoid(scores.At(i, 0))
			probas.Set(i, 0, 1-p)
			probas.Set(i, 1, p)
			continue
		}
		mat.Row(z, i, scores)
		lse := floats.LogSumExp(z)
		for k := range z {
			probas.Set(i, k, math.Exp(z[k]-lse))
		}
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) float64 {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0.0
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples)
}

// Classes returns the class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() [][]float64 {
	out := make([][]float64, len(lr.coef_))
	for k := range lr.coef_ {
		out[k] = append([]float64(nil), lr.coef_[k]...)
	}
	return out
}

// Intercept returns a copy of the fitted intercepts.
func (lr *LogisticRegression) Intercept() []float64 {
	return append([]float64(nil), lr.intercept_...)
}

// NIter returns the number of solver iterations of the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"solver":        "lbfgs",
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return lr.validateParams()
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

var _ model.Classifier = (*LogisticRegression)(nil)
