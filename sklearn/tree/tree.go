// Package tree provides CART decision trees compatible with scikit-learn's
// DecisionTreeClassifier.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DecisionTreeClassifier is a binary-split classification tree grown with
// the best-split strategy. With max_features below the number of features
// each node draws a random subset, which is how RandomForestClassifier
// decorrelates its trees.
type DecisionTreeClassifier struct {
	state *model.StateManager

	// Hyperparameters
	criterion       string // "gini" or "entropy"
	maxDepth        int    // -1 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
	randomState     uint64

	// Fitted attributes
	nodes               []node
	classes_            []int
	nClasses_           int
	nFeatures_          int
	featureImportances_ []float64
}

// Option configures a DecisionTreeClassifier.
type Option func(*DecisionTreeClassifier)

// WithCriterion sets the split quality measure: "gini" or "entropy".
func WithCriterion(criterion string) Option {
	return func(dt *DecisionTreeClassifier) { dt.criterion = criterion }
}

// WithMaxDepth limits the depth of the tree. A negative value means no limit.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples required to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many features are considered per split.
// Zero considers all of them.
func WithMaxFeatures(n int) Option {
	return func(dt *DecisionTreeClassifier) { dt.maxFeatures = n }
}

// WithRandomState seeds the feature permutation drawn at every node.
func WithRandomState(seed uint64) Option {
	return func(dt *DecisionTreeClassifier) { dt.randomState = seed }
}

// NewDecisionTreeClassifier creates a tree with scikit-learn defaults:
// gini, unlimited depth, min_samples_split=2, min_samples_leaf=1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       "gini",
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

func (dt *DecisionTreeClassifier) validateParams() (impurityFunc, error) {
	imp, ok := criterionFunc(dt.criterion)
	if !ok {
		return nil, errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}
	if dt.minSamplesSplit < 2 {
		return nil, errors.NewValidationError("min_samples_split", "must be at least 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return nil, errors.NewValidationError("min_samples_leaf", "must be at least 1", dt.minSamplesLeaf)
	}
	if dt.maxFeatures < 0 {
		return nil, errors.NewValidationError("max_features", "must be non-negative", dt.maxFeatures)
	}
	return imp, nil
}

// Fit builds the tree from the training set.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted builds the tree with per-sample weights. Samples with zero
// weight are left out of the tree but their labels still define the class
// set, so trees fitted on bootstrap draws agree on Classes().
func (dt *DecisionTreeClassifier) FitWeighted(X, y mat.Matrix, sampleWeight []float64) error {
	imp, err := dt.validateParams()
	if err != nil {
		return err
	}
	nSamples, nFeatures, err := model.CheckXY("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	labels, classes, err := model.EncodeLabels("DecisionTreeClassifier.Fit", y)
	if err != nil {
		return err
	}

	weights := sampleWeight
	if weights == nil {
		weights = make([]float64, nSamples)
		for i := range weights {
			weights[i] = 1
		}
	} else if len(weights) != nSamples {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", nSamples, len(weights), 0)
	}

	rows := make([][]float64, nSamples)
	samples := make([]int, 0, nSamples)
	for i := 0; i < nSamples; i++ {
		rows[i] = mat.Row(nil, i, X)
		if w := weights[i]; w < 0 || math.IsNaN(w) {
			return errors.NewValidationError("sample_weight", "must be non-negative", w)
		} else if w > 0 {
			samples = append(samples, i)
		}
	}
	if len(samples) == 0 {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "sample weights sum to zero")
	}

	maxFeat := dt.maxFeatures
	if maxFeat == 0 || maxFeat > nFeatures {
		maxFeat = nFeatures
	}

	dt.state.Reset()
	b := &builder{
		X:          rows,
		labels:     labels,
		weights:    weights,
		nClasses:   len(classes),
		nFeatures:  nFeatures,
		impurity:   imp,
		maxDepth:   dt.maxDepth,
		minSplit:   dt.minSamplesSplit,
		minLeaf:    dt.minSamplesLeaf,
		maxFeat:    maxFeat,
		rng:        rand.New(rand.NewPCG(dt.randomState, dt.randomState^0x9e3779b97f4a7c15)),
		importance: make([]float64, nFeatures),
	}
	b.build(samples, 0)

	dt.nodes = b.nodes
	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nFeatures_ = nFeatures
	dt.featureImportances_ = b.importance
	if total := floats.Sum(dt.featureImportances_); total > 0 {
		floats.Scale(1/total, dt.featureImportances_)
	}

	dt.state.SetFitted(nFeatures, nSamples)
	return nil
}

// leaf returns the leaf reached by row x.
func (dt *DecisionTreeClassifier) leaf(x []float64) *node {
	n := &dt.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = &dt.nodes[n.left]
		} else {
			n = &dt.nodes[n.right]
		}
	}
	return n
}

// PredictProba returns the class fractions of the leaf each sample falls in.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := dt.state.CheckFeatures("DecisionTreeClassifier.PredictProba", X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	probas := mat.NewDense(rows, dt.nClasses_, nil)
	x := make([]float64, dt.nFeatures_)
	for i := 0; i < rows; i++ {
		mat.Row(x, i, X)
		probas.SetRow(i, dt.leaf(x).value)
	}
	return probas, nil
}

// Predict returns the majority class of the leaf each sample falls in.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Predict"); err != nil {
		return nil, err
	}
	probas, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}

	rows, _ := probas.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	p := make([]float64, dt.nClasses_)
	for i := 0; i < rows; i++ {
		mat.Row(p, i, probas)
		predictions.Set(i, 0, float64(dt.classes_[floats.MaxIdx(p)]))
	}
	return predictions, nil
}

// Score returns the mean accuracy on X and y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	n, _ := X.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// Classes returns the class labels seen during Fit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// GetFeatureImportances returns the normalized total impurity decrease
// contributed by each feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the deepest leaf.
func (dt *DecisionTreeClassifier) GetDepth() int {
	depth := 0
	for _, n := range dt.nodes {
		if n.depth > depth {
			depth = n.depth
		}
	}
	return depth
}

// GetNLeaves returns the number of leaves.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	leaves := 0
	for _, n := range dt.nodes {
		if n.feature < 0 {
			leaves++
		}
	}
	return leaves
}

// GetParams returns the hyperparameters keyed by scikit-learn names.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams updates hyperparameters. The model must be refitted afterwards.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "criterion":
			dt.criterion, ok = value.(string)
		case "max_depth":
			dt.maxDepth, ok = value.(int)
		case "min_samples_split":
			dt.minSamplesSplit, ok = value.(int)
		case "min_samples_leaf":
			dt.minSamplesLeaf, ok = value.(int)
		case "max_features":
			dt.maxFeatures, ok = value.(int)
		case "random_state":
			dt.randomState, ok = value.(uint64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, fmt.Sprintf("unexpected type %T", value), value)
		}
	}
	_, err := dt.validateParams()
	return err
}

var _ model.Classifier = (*DecisionTreeClassifier)(nil)
