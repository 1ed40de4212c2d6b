package dataset

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Coefficients weight the features in the latent prognosis score.
type Coefficients struct {
	Age  float64
	CEA  float64
	KRAS float64
	BRAF float64
}

// GeneratorConfig controls the synthetic cohort.
type GeneratorConfig struct {
	Seed         int64
	NSamples     int
	Threshold    float64
	Coefficients Coefficients
}

// DefaultGeneratorConfig returns the cohort used by the benchmark: 1000
// patients, seed 42, threshold 10.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		NSamples:  1000,
		Threshold: 10,
		Coefficients: Coefficients{
			Age:  0.2,
			CEA:  -0.3,
			KRAS: 0.4,
			BRAF: 0.6,
		},
	}
}

// Generate draws a cohort. Columns are sampled one after another from a
// single source seeded by cfg.Seed: age ~ N(60, 10), cea ~ N(5, 2),
// kras ~ {0,1} with p = [0.7, 0.3], braf ~ {0,1} with p = [0.9, 0.1] and a
// N(0, 1) noise term. A record is labelled 1 when the weighted score plus
// noise exceeds cfg.Threshold.
//
// The same configuration always produces the same table.
func Generate(cfg GeneratorConfig) (*Table, error) {
	if cfg.NSamples <= 0 {
		return nil, errors.NewValidationError("n_samples", "must be positive", cfg.NSamples)
	}

	src := rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))
	n := cfg.NSamples

	age := sample(distuv.Normal{Mu: 60, Sigma: 10, Src: src}, n)
	cea := sample(distuv.Normal{Mu: 5, Sigma: 2, Src: src}, n)
	kras := sample(distuv.NewCategorical([]float64{0.7, 0.3}, src), n)
	braf := sample(distuv.NewCategorical([]float64{0.9, 0.1}, src), n)
	noise := sample(distuv.Normal{Mu: 0, Sigma: 1, Src: src}, n)

	c := cfg.Coefficients
	X := mat.NewDense(n, len(featureNames), nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		X.SetRow(i, []float64{age[i], cea[i], kras[i], braf[i]})
		score := c.Age*age[i] + c.CEA*cea[i] + c.KRAS*kras[i] + c.BRAF*braf[i] + noise[i]
		if score > cfg.Threshold {
			labels[i] = 1
		}
	}

	t := &Table{features: X, labels: labels}

	logger := log.GetLoggerWithName("dataset.generator")
	logger.Debug("Synthetic cohort generated",
		log.SamplesKey, n,
		log.RandomSeedKey, cfg.Seed,
		log.PrevalenceKey, t.Prevalence())
	return t, nil
}

type sampler interface {
	Rand() float64
}

func sample(d sampler, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}
