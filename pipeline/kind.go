package pipeline

import (
	"strings"

	"github.com/YuminosukeSato/prognosis/core/model"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/sklearn/ensemble"
	"github.com/YuminosukeSato/prognosis/sklearn/linear_model"
	"github.com/YuminosukeSato/prognosis/sklearn/svm"
)

// Kind selects one of the benchmarked classifiers.
type Kind int

const (
	KindLogistic Kind = iota
	KindSVM
	KindRandomForest
)

var kindInfo = [...]struct {
	id      string
	display string
	legend  string
}{
	KindLogistic:     {"logistic", "Regresión Logística", "Regresión logística"},
	KindSVM:          {"svm", "SVM", "SVM"},
	KindRandomForest: {"random_forest", "Random Forest", "Random Forest"},
}

// AllKinds returns every classifier in report order.
func AllKinds() []Kind {
	return []Kind{KindLogistic, KindSVM, KindRandomForest}
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindInfo)
}

// String returns the identifier used on the command line.
func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindInfo[k].id
}

// DisplayName is the heading of the metric block.
func (k Kind) DisplayName() string {
	if !k.valid() {
		return "unknown"
	}
	return kindInfo[k].display
}

// LegendName is the model name on the ROC figure.
func (k Kind) LegendName() string {
	if !k.valid() {
		return "unknown"
	}
	return kindInfo[k].legend
}

// ParseKind maps an identifier such as "svm" back to its Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for k, info := range kindInfo {
		if info.id == s {
			return Kind(k), nil
		}
	}
	return 0, errors.NewValidationError("model", "must be one of logistic, svm, random_forest", s)
}

// ParseKinds parses a comma separated list of identifiers.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// NewClassifier builds the classifier for kind with the benchmark settings:
// an L2 logistic regression capped at 1000 iterations, an RBF SVC with
// probability estimates, and a random forest of cfg.Trees trees.
func NewClassifier(kind Kind, cfg Config) (model.Classifier, error) {
	switch kind {
	case KindLogistic:
		return linear_model.NewLogisticRegression(
			linear_model.WithLRMaxIter(1000),
		), nil
	case KindSVM:
		return svm.NewSVC(
			svm.WithSVCProbability(true),
			svm.WithSVCRandomState(cfg.Seed),
			svm.WithSVCNJobs(cfg.Jobs),
		), nil
	case KindRandomForest:
		return ensemble.NewRandomForestClassifier(
			ensemble.WithRFNEstimators(cfg.Trees),
			ensemble.WithRFRandomState(cfg.Seed),
			ensemble.WithRFNJobs(cfg.Jobs),
		), nil
	default:
		return nil, errors.NewValidationError("model", "unknown model kind", int(kind))
	}
}
