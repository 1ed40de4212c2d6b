package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/metrics"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"github.com/YuminosukeSato/prognosis/sklearn/model_selection"
	"gonum.org/v1/gonum/mat"
)

// positiveLabel is the class whose probability feeds the ROC curve.
const positiveLabel = 1

// Result is the test-set evaluation of one classifier.
type Result struct {
	Kind      Kind
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64

	// Brier and LogLoss measure the calibration of Scores.
	Brier   float64
	LogLoss float64

	// Scores are the predicted probabilities of the positive class.
	Scores []float64
	ROC    *metrics.ROC
	AUC    float64
}

// Evaluate fits the classifier selected by kind on the training partition
// and scores it on the test partition. Panics raised by numerical code are
// returned as errors.
func Evaluate(kind Kind, split *model_selection.Split, cfg Config) (*Result, error) {
	var res *Result
	err := errors.SafeExecute("pipeline.Evaluate", func() error {
		var err error
		res, err = evaluate(kind, split, cfg)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %s", kind)
	}
	return res, nil
}

func evaluate(kind Kind, split *model_selection.Split, cfg Config) (*Result, error) {
	logger := log.GetLoggerWithName("pipeline").With(log.ModelNameKey, kind.String())

	clf, err := NewClassifier(kind, cfg)
	if err != nil {
		return nil, err
	}
	if pg, ok := clf.(model.ParameterGetter); ok {
		logger.Debug("Model configured", log.HyperParamsKey, pg.GetParams())
	}

	start := time.Now()
	if err := clf.Fit(split.XTrain, split.YTrain); err != nil {
		return nil, err
	}
	logger.Debug("Model fitted",
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds())

	pred, err := clf.Predict(split.XTest)
	if err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(split.XTest)
	if err != nil {
		return nil, err
	}

	col := slices.Index(clf.Classes(), positiveLabel)
	if col < 0 {
		return nil, errors.NewValueError("pipeline.Evaluate", fmt.Sprintf("positive label %d not seen during training", positiveLabel))
	}

	n, _ := split.YTest.Dims()
	yTrue := mat.NewVecDense(n, mat.Col(nil, 0, split.YTest))
	yPred := mat.NewVecDense(n, mat.Col(nil, 0, pred))
	scores := mat.Col(nil, col, proba)

	res := &Result{Kind: kind, Scores: scores}
	if res.Accuracy, err = metrics.Accuracy(yTrue, yPred); err != nil {
		return nil, err
	}
	if res.Precision, err = metrics.Precision(yTrue, yPred); err != nil {
		return nil, err
	}
	if res.Recall, err = metrics.Recall(yTrue, yPred); err != nil {
		return nil, err
	}
	if res.F1, err = metrics.F1Score(yTrue, yPred); err != nil {
		return nil, err
	}

	yScore := mat.NewVecDense(n, scores)
	if res.Brier, err = metrics.BrierScore(yTrue, yScore); err != nil {
		return nil, err
	}
	if res.LogLoss, err = metrics.BinaryLogLoss(yTrue, yScore); err != nil {
		return nil, err
	}
	if res.ROC, err = metrics.ROCCurve(yTrue, yScore); err != nil {
		return nil, err
	}
	if res.AUC, err = res.ROC.AUC(); err != nil {
		return nil, err
	}

	logger.Info("Model evaluated",
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, n,
		log.AccuracyKey, res.Accuracy,
		log.PrecisionKey, res.Precision,
		log.RecallKey, res.Recall,
		log.F1Key, res.F1,
		log.AUCKey, res.AUC,
		log.BrierKey, res.Brier,
		log.LossKey, res.LogLoss)
	return res, nil
}
