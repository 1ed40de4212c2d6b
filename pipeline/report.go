package pipeline

import (
	"fmt"
	"io"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
)

// Report is the outcome of a full run.
type Report struct {
	RunID      string
	Prevalence float64
	NTrain     int
	NTest      int
	Results    []*Result
}

// WriteMetrics prints the metric block of a single model:
//
//	Métricas modelo SVM:
//	Accuracy: 0.83
//	Precision: 0.85
//	Recall: 0.88
//	F1 Score: 0.86
//
// followed by a blank line.
func WriteMetrics(w io.Writer, r *Result) error {
	_, err := fmt.Fprintf(w, "Métricas modelo %s:\nAccuracy: %.2f\nPrecision: %.2f\nRecall: %.2f\nF1 Score: %.2f\n\n",
		r.Kind.DisplayName(), r.Accuracy, r.Precision, r.Recall, r.F1)
	return errors.Wrap(err, "write metrics")
}

// Print writes the metric blocks of every model in order.
func (r *Report) Print(w io.Writer) error {
	for _, res := range r.Results {
		if err := WriteMetrics(w, res); err != nil {
			return err
		}
	}
	return nil
}
