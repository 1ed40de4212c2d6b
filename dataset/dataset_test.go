package dataset

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultGeneratorConfig()

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.Features(), b.Features()))
	assert.True(t, mat.Equal(a.Labels(), b.Labels()))

	cfg.Seed = 7
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.False(t, mat.Equal(a.Features(), c.Features()), "different seeds should give different cohorts")
}

func TestGenerate_Distributions(t *testing.T) {
	table, err := Generate(DefaultGeneratorConfig())
	require.NoError(t, err)
	require.Equal(t, 1000, table.Len())

	X := table.Features()
	rows, cols := X.Dims()
	require.Equal(t, 1000, rows)
	require.Equal(t, 4, cols)

	col := func(j int) []float64 { return mat.Col(nil, j, X) }

	age, ageStd := stat.MeanStdDev(col(0), nil)
	assert.InDelta(t, 60, age, 1.5)
	assert.InDelta(t, 10, ageStd, 1.0)

	cea, ceaStd := stat.MeanStdDev(col(1), nil)
	assert.InDelta(t, 5, cea, 0.3)
	assert.InDelta(t, 2, ceaStd, 0.3)

	for j, p := range map[int]float64{2: 0.3, 3: 0.1} {
		values := col(j)
		for _, v := range values {
			require.Contains(t, []float64{0, 1}, v)
		}
		assert.InDelta(t, p, stat.Mean(values, nil), 0.05, "column %s", table.FeatureNames()[j])
	}

	assert.GreaterOrEqual(t, table.Prevalence(), 0.55)
	assert.LessOrEqual(t, table.Prevalence(), 0.68)
}

func TestGenerate_Threshold(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Threshold = -1e9
	all, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, all.Prevalence())

	cfg.Threshold = 1e9
	none, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, none.Prevalence())

	// The threshold only moves labels; features are unaffected.
	assert.True(t, mat.Equal(all.Features(), none.Features()))
}

func TestGenerate_InvalidConfig(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NSamples = 0

	_, err := Generate(cfg)
	require.Error(t, err)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestTable_Subset(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.NSamples = 20
	table, err := Generate(cfg)
	require.NoError(t, err)

	sub, err := table.Subset([]int{5, 0, 19})
	require.NoError(t, err)
	require.Equal(t, 3, sub.Len())

	X, subX := table.Features(), sub.Features()
	assert.Equal(t, X.RawRowView(5), subX.RawRowView(0))
	assert.Equal(t, X.RawRowView(0), subX.RawRowView(1))
	assert.Equal(t, table.Labels().At(19, 0), sub.Labels().At(2, 0))

	_, err = table.Subset([]int{20})
	assert.Error(t, err)

	empty, err := table.Subset(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 0.0, empty.Prevalence())
}

func TestNewTable(t *testing.T) {
	X := mat.NewDense(2, 4, []float64{60, 5, 0, 1, 70, 3, 1, 0})

	table, err := NewTable(X, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, table.Prevalence())

	_, err = NewTable(X, []int{0})
	assert.Error(t, err)
	_, err = NewTable(X, []int{0, 2})
	assert.Error(t, err)
	_, err = NewTable(mat.NewDense(2, 3, nil), []int{0, 1})
	assert.Error(t, err)
}

func TestTable_WriteCSV(t *testing.T) {
	X := mat.NewDense(2, 4, []float64{61.5, 4.25, 0, 1, 48, 7, 1, 0})
	table, err := NewTable(X, []int{1, 0})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"edad", "cea", "mutacion_kras", "mutacion_braf", "prognosis"},
		{"61.5", "4.25", "0", "1", "1"},
		{"48", "7", "1", "0", "0"},
	}, records)
}
