// Package plotting renders evaluation figures with gonum/plot.
package plotting

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/YuminosukeSato/prognosis/metrics"
	"github.com/YuminosukeSato/prognosis/pkg/errors"
	"github.com/YuminosukeSato/prognosis/pkg/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Figure defaults: an 8 x 6 inch canvas rendered at 300 DPI.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	DefaultDPI    = 300
)

// Palette is the colour cycle for curves without an explicit colour.
var Palette = []color.Color{
	color.RGBA{B: 255, A: 255}, // blue
	color.RGBA{R: 255, A: 255}, // red
	color.RGBA{G: 128, A: 255}, // green
}

// Curve is one model's ROC curve on the figure.
type Curve struct {
	Name  string
	ROC   *metrics.ROC
	AUC   float64
	Color color.Color // nil picks the next Palette entry
}

// Label returns the legend entry, e.g. "SVM (AUC = 0.91)".
func (c Curve) Label() string {
	return fmt.Sprintf("%s (AUC = %.2f)", c.Name, c.AUC)
}

// ROCPlot overlays the given curves with a dashed chance diagonal. The
// legend sits in the lower right corner.
func ROCPlot(curves []Curve) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Curvas ROC de los Modelos"
	p.X.Label.Text = "Tasa Falso Positivo Rate"
	p.Y.Label.Text = "Tasa Verdadero Positivo"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false
	p.Legend.Left = false

	for i, c := range curves {
		if c.ROC == nil || len(c.ROC.FPR) == 0 {
			return nil, errors.NewValueError("plotting.ROCPlot", fmt.Sprintf("curve %q has no points", c.Name))
		}
		pts := make(plotter.XYs, len(c.ROC.FPR))
		for k := range pts {
			pts[k].X = c.ROC.FPR[k]
			pts[k].Y = c.ROC.TPR[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "plotting: curve %q", c.Name)
		}
		line.LineStyle.Color = c.Color
		if line.LineStyle.Color == nil {
			line.LineStyle.Color = Palette[i%len(Palette)]
		}
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(c.Label(), line)
	}

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "plotting: diagonal")
	}
	diagonal.LineStyle.Color = color.Black
	diagonal.LineStyle.Width = vg.Points(1.5)
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	p.Add(diagonal)
	p.Legend.Add("Random Guess", diagonal)

	return p, nil
}

// WritePNG renders p onto a width x height canvas at dpi and writes the PNG
// encoding to w. The file carries a pHYs chunk so viewers report dpi.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length, dpi int) error {
	if dpi <= 0 {
		return errors.NewValidationError("dpi", "must be positive", dpi)
	}
	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return errors.Wrap(err, "plotting: encode png")
	}
	data := buf.Bytes()
	if len(data) < pngHeaderLen || string(data[12:16]) != "IHDR" {
		return errors.New("plotting: encoder did not start with IHDR")
	}
	for _, part := range [][]byte{data[:pngHeaderLen], physChunk(dpi), data[pngHeaderLen:]} {
		if _, err := w.Write(part); err != nil {
			return errors.Wrap(err, "plotting: write png")
		}
	}
	return nil
}

// pngHeaderLen spans the signature and the IHDR chunk.
const pngHeaderLen = 8 + 4 + 4 + 13 + 4

// physChunk encodes a pHYs chunk with dpi on both axes, in pixels per metre.
func physChunk(dpi int) []byte {
	ppm := uint32(math.Round(float64(dpi) / 0.0254))
	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppm)
	binary.BigEndian.PutUint32(chunk[12:], ppm)
	chunk[16] = 1 // metre
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))
	return chunk
}

// SavePNG writes p to path with the default figure size and resolution.
func SavePNG(p *plot.Plot, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "plotting: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "plotting: close %s", path)
		}
	}()

	if err := WritePNG(f, p, DefaultWidth, DefaultHeight, DefaultDPI); err != nil {
		return err
	}

	logger := log.GetLoggerWithName("plotting")
	logger.Debug("Figure written", log.OutputPathKey, path)
	return nil
}
