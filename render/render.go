// Package render draws grid fields as heat maps.
package render

import (
	"bufio"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// fieldGrid exposes a matrix as a plotter.GridXYZ with unit cell spacing.
// Columns map to x and rows to y.
type fieldGrid struct {
	m mat.Matrix
}

func (g fieldGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g fieldGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g fieldGrid) X(c int) float64    { return float64(c) }
func (g fieldGrid) Y(r int) float64    { return float64(r) }

// Heatmap returns a plot of field as a heat map.
func Heatmap(field mat.Matrix, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	hm := plotter.NewHeatMap(fieldGrid{field}, moreland.SmoothBlueRed().Palette(255))
	if hm.Min == hm.Max {
		// a uniform field still needs a non-empty color range
		hm.Min, hm.Max = hm.Min-0.5, hm.Max+0.5
	}
	p.Add(hm)
	return p
}

// SavePNG renders p to the named PNG file. width and height are in inches.
func SavePNG(p *plot.Plot, width, height float64, name string) (err error) {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if _, err = (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("render: writing %v: %w", name, err)
	}
	return w.Flush()
}

// Snapshot writes a heat map of field to the named PNG file.
func Snapshot(field mat.Matrix, title, name string) error {
	return SavePNG(Heatmap(field, title), 6, 5, name)
}
