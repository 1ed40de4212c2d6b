package plotting

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/prognosis/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

func testCurves(t *testing.T) []Curve {
	t.Helper()
	yTrue := mat.NewVecDense(6, []float64{0, 0, 1, 1, 0, 1})
	scores := []*mat.VecDense{
		mat.NewVecDense(6, []float64{0.1, 0.3, 0.8, 0.7, 0.4, 0.9}),
		mat.NewVecDense(6, []float64{0.2, 0.6, 0.5, 0.9, 0.1, 0.4}),
	}
	names := []string{"Regresión logística", "SVM"}

	var curves []Curve
	for i, s := range scores {
		roc, err := metrics.ROCCurve(yTrue, s)
		require.NoError(t, err)
		auc, err := roc.AUC()
		require.NoError(t, err)
		curves = append(curves, Curve{Name: names[i], ROC: roc, AUC: auc})
	}
	return curves
}

func TestCurve_Label(t *testing.T) {
	c := Curve{Name: "Random Forest", AUC: 0.8765}
	assert.Equal(t, "Random Forest (AUC = 0.88)", c.Label())
}

func TestROCPlot(t *testing.T) {
	p, err := ROCPlot(testCurves(t))
	require.NoError(t, err)

	assert.Equal(t, "Curvas ROC de los Modelos", p.Title.Text)
	assert.Equal(t, "Tasa Falso Positivo Rate", p.X.Label.Text)
	assert.Equal(t, "Tasa Verdadero Positivo", p.Y.Label.Text)
	assert.False(t, p.Legend.Top)
	assert.False(t, p.Legend.Left)

	_, err = ROCPlot([]Curve{{Name: "empty"}})
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	p, err := ROCPlot(testCurves(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, 4*vg.Inch, 3*vg.Inch, 50))
	data := buf.Bytes()

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	// 50 dpi = 1968.5 px/m
	x, y, unit := pngDensity(t, data)
	assert.Equal(t, uint32(1969), x)
	assert.Equal(t, uint32(1969), y)
	assert.Equal(t, byte(1), unit)

	assert.Error(t, WritePNG(&buf, p, 4*vg.Inch, 3*vg.Inch, 0))
}

// pngDensity returns the pHYs fields of an encoded PNG and checks that the
// chunk precedes the image data.
func pngDensity(t *testing.T, data []byte) (x, y uint32, unit byte) {
	t.Helper()
	for off := 8; off+8 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[off:]))
		switch string(data[off+4 : off+8]) {
		case "pHYs":
			require.Equal(t, 9, n)
			body := data[off+8 : off+8+n]
			return binary.BigEndian.Uint32(body), binary.BigEndian.Uint32(body[4:]), body[8]
		case "IDAT":
			t.Fatal("pHYs chunk missing before IDAT")
		}
		off += 12 + n
	}
	t.Fatal("pHYs chunk missing")
	return 0, 0, 0
}

func TestSavePNG(t *testing.T) {
	p, err := ROCPlot(testCurves(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "CurvasRoc.png")
	require.NoError(t, SavePNG(p, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2400, cfg.Width)
	assert.Equal(t, 1800, cfg.Height)

	x, y, _ := pngDensity(t, data)
	assert.Equal(t, uint32(11811), x)
	assert.Equal(t, uint32(11811), y)

	assert.Error(t, SavePNG(p, filepath.Join(t.TempDir(), "missing", "out.png")))
}
