// Package dataset generates the synthetic prognosis cohort and holds it as a
// column-labelled table.
package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Column names of the cohort, in feature order.
const (
	ColAge   = "edad"
	ColCEA   = "cea"
	ColKRAS  = "mutacion_kras"
	ColBRAF  = "mutacion_braf"
	ColLabel = "prognosis"
)

var featureNames = []string{ColAge, ColCEA, ColKRAS, ColBRAF}

// Table is an ordered set of patient records with four features and a
// binary prognosis label.
type Table struct {
	features *mat.Dense
	labels   []int
}

// NewTable builds a table from an n x 4 feature matrix and n labels in {0, 1}.
func NewTable(features *mat.Dense, labels []int) (*Table, error) {
	rows, cols := features.Dims()
	if cols != len(featureNames) {
		return nil, errors.NewDimensionError("dataset.NewTable", len(featureNames), cols, 1)
	}
	if rows != len(labels) {
		return nil, errors.NewDimensionError("dataset.NewTable", rows, len(labels), 0)
	}
	for _, l := range labels {
		if l != 0 && l != 1 {
			return nil, errors.NewValidationError(ColLabel, "must be 0 or 1", l)
		}
	}
	return &Table{features: features, labels: append([]int(nil), labels...)}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.labels)
}

// FeatureNames returns the feature column names in matrix order.
func (t *Table) FeatureNames() []string {
	return append([]string(nil), featureNames...)
}

// Features returns a copy of the n x 4 feature matrix.
func (t *Table) Features() *mat.Dense {
	if t.Len() == 0 {
		return &mat.Dense{}
	}
	return mat.DenseCopyOf(t.features)
}

// Labels returns the labels as an n x 1 matrix.
func (t *Table) Labels() *mat.Dense {
	if t.Len() == 0 {
		return &mat.Dense{}
	}
	y := mat.NewDense(len(t.labels), 1, nil)
	for i, l := range t.labels {
		y.Set(i, 0, float64(l))
	}
	return y
}

// Prevalence returns the fraction of records with label 1.
func (t *Table) Prevalence() float64 {
	if len(t.labels) == 0 {
		return 0
	}
	pos := 0
	for _, l := range t.labels {
		pos += l
	}
	return float64(pos) / float64(len(t.labels))
}

// Subset returns a new table with the given rows, in the given order.
func (t *Table) Subset(indices []int) (*Table, error) {
	if len(indices) == 0 {
		return &Table{features: &mat.Dense{}}, nil
	}
	n := t.Len()
	X := mat.NewDense(len(indices), len(featureNames), nil)
	labels := make([]int, len(indices))
	for k, i := range indices {
		if i < 0 || i >= n {
			return nil, errors.NewValueError("Table.Subset", "index "+strconv.Itoa(i)+" out of range")
		}
		X.SetRow(k, t.features.RawRowView(i))
		labels[k] = t.labels[i]
	}
	return &Table{features: X, labels: labels}, nil
}

// WriteCSV writes the table with a header row. Floats use the shortest
// representation that round-trips.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(t.FeatureNames(), ColLabel)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "dataset: write csv header")
	}

	record := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		row := t.features.RawRowView(i)
		record[0] = strconv.FormatFloat(row[0], 'g', -1, 64)
		record[1] = strconv.FormatFloat(row[1], 'g', -1, 64)
		record[2] = strconv.Itoa(int(row[2]))
		record[3] = strconv.Itoa(int(row[3]))
		record[4] = strconv.Itoa(t.labels[i])
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "dataset: write csv row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "dataset: flush csv")
}
