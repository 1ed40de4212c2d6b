// Package ensemble provides tree ensembles.
package ensemble

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/core/parallel"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"github.com/YuminosukeSato/prognosis/sklearn/tree"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RandomForestClassifier averages the class probabilities of decision trees
// fitted on bootstrap samples with a random feature subset at every split.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators     int
	criterion       string
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     string // "sqrt", "log2" or "all"
	bootstrap       bool
	randomState     int64
	nJobs           int

	// Fitted attributes
	estimators_ []*tree.DecisionTreeClassifier
	classes_    []int
	nFeatures_  int
}

// RandomForestOption is a functional option for RandomForestClassifier
type RandomForestOption func(*RandomForestClassifier)

// NewRandomForestClassifier creates a forest with scikit-learn defaults:
// 100 trees, gini, bootstrap, max_features="sqrt", fully grown trees.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:           model.NewStateManager(),
		nEstimators:     100,
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     "sqrt",
		bootstrap:       true,
		nJobs:           1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// WithRFNEstimators sets the number of trees.
func WithRFNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithRFCriterion sets the split criterion of every tree.
func WithRFCriterion(criterion string) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.criterion = criterion }
}

// WithRFMaxDepth limits tree depth. Negative means unlimited.
func WithRFMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithRFMinSamplesSplit sets min_samples_split of every tree.
func WithRFMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.minSamplesSplit = n }
}

// WithRFMinSamplesLeaf sets min_samples_leaf of every tree.
func WithRFMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.minSamplesLeaf = n }
}

// WithRFMaxFeatures sets the per-split feature subset: "sqrt", "log2" or "all".
func WithRFMaxFeatures(mode string) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = mode }
}

// WithRFBootstrap toggles bootstrap sampling. Without it every tree sees
// the whole training set and only the feature subsets differ.
func WithRFBootstrap(bootstrap bool) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.bootstrap = bootstrap }
}

// WithRFRandomState seeds bootstrap draws and feature subsets.
func WithRFRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// WithRFNJobs sets how many trees are fitted concurrently. Values <= 0 use
// every CPU. The fitted forest does not depend on this setting.
func WithRFNJobs(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.nJobs = n }
}

func (rf *RandomForestClassifier) resolveMaxFeatures(nFeatures int) (int, error) {
	var k int
	switch rf.maxFeatures {
	case "sqrt":
		k = int(math.Sqrt(float64(nFeatures)))
	case "log2":
		k = int(math.Log2(float64(nFeatures)))
	case "all":
		k = nFeatures
	default:
		return 0, errors.NewValidationError("max_features", "must be 'sqrt', 'log2' or 'all'", rf.maxFeatures)
	}
	if k < 1 {
		k = 1
	}
	return k, nil
}

// Fit grows nEstimators trees. Each tree gets its own seed drawn up front
// from the forest's random state.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}
	nSamples, nFeatures, err := model.CheckXY("RandomForestClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	_, classes, err := model.EncodeLabels("RandomForestClassifier.Fit", y)
	if err != nil {
		return err
	}
	maxFeat, err := rf.resolveMaxFeatures(nFeatures)
	if err != nil {
		return err
	}

	rf.state.Reset()
	Xd := mat.DenseCopyOf(X)
	yd := mat.DenseCopyOf(y)

	master := rand.New(rand.NewPCG(uint64(rf.randomState), uint64(rf.randomState)))
	seeds := make([]uint64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	estimators := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	errs := make([]error, rf.nEstimators)
	parallel.Parallelize(rf.nEstimators, rf.nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			estimators[i], errs[i] = rf.fitTree(Xd, yd, nSamples, maxFeat, seeds[i])
		}
	})
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "RandomForestClassifier.Fit: tree %d", i)
		}
	}

	rf.estimators_ = estimators
	rf.classes_ = classes
	rf.nFeatures_ = nFeatures
	rf.state.SetFitted(nFeatures, nSamples)

	logger := log.GetLoggerWithName("ensemble.forest")
	logger.Debug("RandomForestClassifier fitted",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		"n_estimators", rf.nEstimators,
		log.WorkersKey, parallel.Workers(rf.nJobs, rf.nEstimators))
	return nil
}

func (rf *RandomForestClassifier) fitTree(X, y *mat.Dense, nSamples, maxFeat int, seed uint64) (*tree.DecisionTreeClassifier, error) {
	est := tree.NewDecisionTreeClassifier(
		tree.WithCriterion(rf.criterion),
		tree.WithMaxDepth(rf.maxDepth),
		tree.WithMinSamplesSplit(rf.minSamplesSplit),
		tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
		tree.WithMaxFeatures(maxFeat),
		tree.WithRandomState(seed),
	)
	if !rf.bootstrap {
		return est, est.Fit(X, y)
	}

	// bootstrap counts become sample weights
	rng := rand.New(rand.NewPCG(seed, ^seed))
	weights := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		weights[rng.IntN(nSamples)]++
	}
	return est, est.FitWeighted(X, y, weights)
}

// PredictProba averages the class probabilities of all trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := rf.state.CheckFeatures("RandomForestClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	sum := mat.NewDense(rows, len(rf.classes_), nil)
	for _, est := range rf.estimators_ {
		p, err := est.PredictProba(X)
		if err != nil {
			return nil, err
		}
		sum.Add(sum, p)
	}
	sum.Scale(1/float64(len(rf.estimators_)), sum)
	return sum, nil
}

// Predict returns the class with the highest averaged probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}

	rows, cols := probas.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	p := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(p, i, probas)
		predictions.Set(i, 0, float64(rf.classes_[floats.MaxIdx(p)]))
	}
	return predictions, nil
}

// Classes returns the class labels seen during Fit.
func (rf *RandomForestClassifier) Classes() []int {
	return append([]int(nil), rf.classes_...)
}

// Estimators returns the fitted trees.
func (rf *RandomForestClassifier) Estimators() []*tree.DecisionTreeClassifier {
	return rf.estimators_
}

// FeatureImportances returns the mean impurity-based importance over trees.
func (rf *RandomForestClassifier) FeatureImportances() ([]float64, error) {
	if err := rf.state.RequireFitted("RandomForestClassifier", "FeatureImportances"); err != nil {
		return nil, err
	}
	imp := make([]float64, rf.nFeatures_)
	for _, est := range rf.estimators_ {
		floats.Add(imp, est.GetFeatureImportances())
	}
	if total := floats.Sum(imp); total > 0 {
		floats.Scale(1/total, imp)
	}
	return imp, nil
}

// GetParams returns the hyperparameters keyed by scikit-learn names.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.nEstimators,
		"criterion":         rf.criterion,
		"max_depth":         rf.maxDepth,
		"min_samples_split": rf.minSamplesSplit,
		"min_samples_leaf":  rf.minSamplesLeaf,
		"max_features":      rf.maxFeatures,
		"bootstrap":         rf.bootstrap,
		"random_state":      rf.randomState,
		"n_jobs":            rf.nJobs,
	}
}

// SetParams updates hyperparameters.
func (rf *RandomForestClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "n_estimators":
			rf.nEstimators, ok = value.(int)
		case "criterion":
			rf.criterion, ok = value.(string)
		case "max_depth":
			rf.maxDepth, ok = value.(int)
		case "min_samples_split":
			rf.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			rf.minSamplesLeaf, ok = value.(int)
		case "max_features":
			rf.maxFeatures, ok = value.(string)
		case "bootstrap":
			rf.bootstrap, ok = value.(bool)
		case "random_state":
			rf.randomState, ok = value.(int64)
		case "n_jobs":
			rf.nJobs, ok = value.(int)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	return nil
}

var _ model.Classifier = (*RandomForestClassifier)(nil)
