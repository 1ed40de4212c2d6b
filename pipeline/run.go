// Package pipeline wires the benchmark together: it generates the cohort,
// splits it, evaluates each classifier and renders the ROC comparison.
package pipeline

import (
	"context"
	"io"
	"os"

	"github.com/YuminosukeSato/prognosis/dataset"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"github.com/YuminosukeSato/prognosis/plotting"
	"github.com/YuminosukeSato/prognosis/preprocessing"
	"github.com/YuminosukeSato/prognosis/sklearn/model_selection"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Run executes the benchmark and prints each model's metric block to w as
// soon as the model is evaluated. The ROC figure is written to
// cfg.OutputPath after every model has run.
func Run(ctx context.Context, cfg Config, w io.Writer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	logger := log.GetLoggerWithName("pipeline").With(log.RunIDKey, runID)

	gen := dataset.DefaultGeneratorConfig()
	gen.Seed = cfg.Seed
	gen.NSamples = cfg.NSamples
	gen.Threshold = cfg.Threshold
	table, err := dataset.Generate(gen)
	if err != nil {
		return nil, err
	}
	logger.Info("Synthetic cohort generated",
		log.OperationKey, log.OperationGenerate,
		log.SamplesKey, table.Len(),
		log.PrevalenceKey, table.Prevalence(),
		log.RandomSeedKey, cfg.Seed)

	if cfg.CSVPath != "" {
		if err := writeCSV(table, cfg.CSVPath); err != nil {
			return nil, err
		}
		logger.Info("Cohort exported", log.OutputPathKey, cfg.CSVPath)
	}

	split, err := model_selection.TrainTestSplit(table.Features(), table.Labels(),
		model_selection.WithTestSize(cfg.TestSize),
		model_selection.WithRandomState(cfg.Seed),
		model_selection.WithStratify(true),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Standardize {
		if err := standardize(split); err != nil {
			return nil, err
		}
	}

	report := &Report{
		RunID:      runID,
		Prevalence: table.Prevalence(),
		NTrain:     len(split.TrainIndex),
		NTest:      len(split.TestIndex),
	}
	for _, kind := range cfg.Models {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "pipeline interrupted")
		}
		res, err := Evaluate(kind, split, cfg)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)
		if err := WriteMetrics(w, res); err != nil {
			return nil, err
		}
	}

	if cfg.OutputPath != "" {
		if err := renderROC(report, cfg.OutputPath); err != nil {
			return nil, err
		}
		logger.Info("ROC curves saved",
			log.OperationKey, log.OperationPlot,
			log.OutputPathKey, cfg.OutputPath)
	}
	return report, nil
}

func writeCSV(table *dataset.Table, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return table.WriteCSV(f)
}

// standardize scales both partitions with statistics of the training set.
func standardize(split *model_selection.Split) error {
	scaler := preprocessing.NewStandardScaler()
	XTrain, err := scaler.FitTransform(split.XTrain)
	if err != nil {
		return err
	}
	XTest, err := scaler.Transform(split.XTest)
	if err != nil {
		return err
	}
	split.XTrain = mat.DenseCopyOf(XTrain)
	split.XTest = mat.DenseCopyOf(XTest)
	return nil
}

func renderROC(report *Report, path string) error {
	curves := make([]plotting.Curve, len(report.Results))
	for i, res := range report.Results {
		curves[i] = plotting.Curve{
			Name: res.Kind.LegendName(),
			ROC:  res.ROC,
			AUC:  res.AUC,
		}
	}
	p, err := plotting.ROCPlot(curves)
	if err != nil {
		return err
	}
	return plotting.SavePNG(p, path)
}
