// Package model_selection provides dataset splitting for model evaluation.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Split holds the train and test partitions together with the row indices
// of the original data that went into each.
type Split struct {
	XTrain     *mat.Dense
	XTest      *mat.Dense
	YTrain     *mat.Dense
	YTest      *mat.Dense
	TrainIndex []int
	TestIndex  []int
}

type splitConfig struct {
	testSize    float64
	randomState int64
	stratify    bool
}

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

// WithTestSize sets the fraction of samples that go to the test set.
func WithTestSize(size float64) SplitOption {
	return func(c *splitConfig) { c.testSize = size }
}

// WithRandomState seeds the shuffle.
func WithRandomState(seed int64) SplitOption {
	return func(c *splitConfig) { c.randomState = seed }
}

// WithStratify preserves the label proportions of y in both partitions.
func WithStratify(stratify bool) SplitOption {
	return func(c *splitConfig) { c.stratify = stratify }
}

// TrainTestSplit partitions the rows of X and y into a shuffled train set and
// test set. The test set has round(testSize*n) rows. With stratification
// (the default) the per-class counts follow scikit-learn's
// StratifiedShuffleSplit, so each class keeps its share of both sets up to
// one sample.
func TrainTestSplit(X, y mat.Matrix, opts ...SplitOption) (*Split, error) {
	cfg := splitConfig{testSize: 0.2, randomState: 42, stratify: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if X == nil || y == nil {
		return nil, errors.NewValueError("TrainTestSplit", "X and y must not be nil")
	}
	n, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if n != yRows {
		return nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, errors.NewDimensionError("TrainTestSplit", 1, yCols, 1)
	}
	if cfg.testSize <= 0 || cfg.testSize >= 1 {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}

	nTest := int(math.Round(cfg.testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain == 0 {
		return nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("with n_samples=%d and test_size=%v one of the partitions would be empty", n, cfg.testSize))
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.randomState), uint64(cfg.randomState)))

	var train, test []int
	if cfg.stratify {
		var err error
		train, test, err = stratifiedIndices(mat.Col(nil, 0, y), nTrain, nTest, rng)
		if err != nil {
			return nil, err
		}
	} else {
		perm := rng.Perm(n)
		test = perm[:nTest]
		train = perm[nTest:]
	}

	s := &Split{
		XTrain:     takeRows(X, train, nFeatures),
		XTest:      takeRows(X, test, nFeatures),
		YTrain:     takeRows(y, train, 1),
		YTest:      takeRows(y, test, 1),
		TrainIndex: train,
		TestIndex:  test,
	}

	logger := log.GetLoggerWithName("model_selection.split")
	logger.Debug("Train/test split",
		log.SamplesKey, n,
		"n_train", nTrain,
		"n_test", nTest,
		"stratify", cfg.stratify,
		log.RandomSeedKey, cfg.randomState)
	return s, nil
}

func stratifiedIndices(labels []float64, nTrain, nTest int, rng *rand.Rand) (train, test []int, err error) {
	byClass := make(map[float64][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]float64, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Float64s(classes)

	counts := make([]int, len(classes))
	for k, c := range classes {
		counts[k] = len(byClass[c])
		if counts[k] < 2 {
			return nil, nil, errors.NewValueError("TrainTestSplit",
				"The least populated class in y has only 1 member, which is too few. The minimum number of groups for any class cannot be less than 2.")
		}
	}
	if nTrain < len(classes) {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("The train_size = %d should be greater or equal to the number of classes = %d", nTrain, len(classes)))
	}
	if nTest < len(classes) {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("The test_size = %d should be greater or equal to the number of classes = %d", nTest, len(classes)))
	}

	trainPer := approximateMode(counts, nTrain, rng)
	remaining := make([]int, len(counts))
	for k := range counts {
		remaining[k] = counts[k] - trainPer[k]
	}
	testPer := approximateMode(remaining, nTest, rng)

	for k, c := range classes {
		members := byClass[c]
		perm := rng.Perm(len(members))
		for _, p := range perm[:trainPer[k]] {
			train = append(train, members[p])
		}
		for _, p := range perm[trainPer[k] : trainPer[k]+testPer[k]] {
			test = append(test, members[p])
		}
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	rng.Shuffle(len(test), func(i, j int) { test[i], test[j] = test[j], test[i] })
	return train, test, nil
}

// approximateMode distributes nDraws over classes proportionally to counts:
// each class gets the floor of its share, and the leftover draws go to the
// largest remainders, ties broken at random.
func approximateMode(counts []int, nDraws int, rng *rand.Rand) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]int, len(counts))
	remainder := make([]float64, len(counts))
	assigned := 0
	for k, c := range counts {
		share := float64(c) / float64(total) * float64(nDraws)
		out[k] = int(math.Floor(share))
		remainder[k] = share - float64(out[k])
		assigned += out[k]
	}

	need := nDraws - assigned
	if need <= 0 {
		return out
	}

	values := append([]float64(nil), remainder...)
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	for v := 0; v < len(values) && need > 0; v++ {
		if v > 0 && values[v] == values[v-1] {
			continue
		}
		var tied []int
		for k, r := range remainder {
			if r == values[v] {
				tied = append(tied, k)
			}
		}
		take := min(len(tied), need)
		for _, p := range rng.Perm(len(tied))[:take] {
			out[tied[p]]++
		}
		need -= take
	}
	return out
}

func takeRows(m mat.Matrix, rows []int, cols int) *mat.Dense {
	out := mat.NewDense(len(rows), cols, nil)
	for k, i := range rows {
		for j := 0; j < cols; j++ {
			out.Set(k, j, m.At(i, j))
		}
	}
	return out
}
