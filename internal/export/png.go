package export

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pidsim/internal/dynamo"
)

var (
	referenceColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	controlColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	outputColor    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// WritePNG renders reference, control and output against time as a PNG image.
func WritePNG(w io.Writer, result *dynamo.Result, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		ys    []float64
		color color.Color
		dash  bool
	}{
		{"reference", result.References(), referenceColor, true},
		{"control", result.Controls(), controlColor, false},
		{"output", result.Outputs(), outputColor, false},
	}

	times := result.Times()
	for _, s := range series {
		line, err := plotter.NewLine(xys(times, s.ys))
		if err != nil {
			return err
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = vg.Points(1.5)
		if s.dash {
			line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	c := vgimg.NewWith(vgimg.UseWH(8*vg.Inch, 5*vg.Inch), vgimg.UseDPI(96))
	p.Draw(draw.New(c))

	png := vgimg.PngCanvas{Canvas: c}
	_, err := png.WriteTo(w)
	return err
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
