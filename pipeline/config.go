package pipeline

import (
	"github.com/YuminosukeSato/prognosis/pkg/errors"
)

// Config collects everything a benchmark run depends on. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// Seed drives the generator, the split and every estimator.
	Seed int64

	NSamples  int
	Threshold float64
	TestSize  float64

	// OutputPath is where the ROC figure is written. Empty skips the figure.
	OutputPath string

	// CSVPath optionally receives the generated table.
	CSVPath string

	// Jobs is the worker count for the SVC kernel and forest fitting.
	Jobs int

	// Trees is the number of trees in the random forest.
	Trees int

	// Standardize fits a StandardScaler on the training set and applies it
	// to both partitions before training.
	Standardize bool

	// Models lists the classifiers to evaluate, in report order.
	Models []Kind
}

// DefaultConfig reproduces the reference benchmark.
func DefaultConfig() Config {
	return Config{
		Seed:       42,
		NSamples:   1000,
		Threshold:  10,
		TestSize:   0.2,
		OutputPath: "CurvasRoc.png",
		Jobs:       1,
		Trees:      100,
		Models:     AllKinds(),
	}
}

// Validate checks the configuration for values no stage can work with.
func (c Config) Validate() error {
	if c.NSamples <= 0 {
		return errors.NewValidationError("n", "must be positive", c.NSamples)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test-size", "must be in (0, 1)", c.TestSize)
	}
	if c.Trees <= 0 {
		return errors.NewValidationError("trees", "must be positive", c.Trees)
	}
	if len(c.Models) == 0 {
		return errors.NewValidationError("models", "at least one model is required", c.Models)
	}
	for _, k := range c.Models {
		if !k.valid() {
			return errors.NewValidationError("models", "unknown model kind", int(k))
		}
	}
	return nil
}
