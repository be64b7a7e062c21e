// Package chart renders scatter plots comparing a dataset with its embedding.
package chart

import (
	"image/color"
	"io"
	"os"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series labels.
const (
	OriginalLabel  = "original"
	EmbeddingLabel = "tSNE"
)

// Style configures a comparison plot.
type Style struct {
	// OriginalColor fills the dataset points
	OriginalColor color.Color
	// EmbeddingColor fills the embedding points
	EmbeddingColor color.Color
	// Size is the side of the square figure
	Size vg.Length
	// Radius of every point glyph
	Radius vg.Length
}

// DefaultStyle returns a 6in square figure with blue dataset and red embedding points.
func DefaultStyle() Style {
	return Style{
		OriginalColor:  color.RGBA{B: 0xff, A: 0xff},
		EmbeddingColor: color.RGBA{R: 0xff, A: 0xff},
		Size:           6 * vg.Inch,
		Radius:         vg.Points(3),
	}
}

// columnsXY exposes two columns of a matrix as plotter.XYer.
type columnsXY struct {
	m    mat.Matrix
	x, y int
}

func (c columnsXY) Len() int {
	r, _ := c.m.Dims()
	return r
}

func (c columnsXY) XY(i int) (float64, float64) {
	return c.m.At(i, c.x), c.m.At(i, c.y)
}

// Comparison plots columns 0 and 1 of original together with columns 0 and 1
// of embedding, the embedding drawn on top.
func Comparison(original, embedding mat.Matrix, title string, style Style) (*plot.Plot, error) {
	or, oc := original.Dims()
	er, ec := embedding.Dims()
	if oc < 2 {
		return nil, errors.NotValidf("dataset with %d columns for a 2-D plot", oc)
	}
	if ec < 2 {
		return nil, errors.NotValidf("embedding with %d columns for a 2-D plot", ec)
	}
	if or != er {
		return nil, errors.NotValidf("embedding with %d rows for a dataset with %d rows", er, or)
	}

	p := plot.New()
	p.Title.Text = title

	orig, err := scatter(original, style.OriginalColor, style.Radius)
	if err != nil {
		return nil, errors.Annotate(err, OriginalLabel)
	}
	emb, err := scatter(embedding, style.EmbeddingColor, style.Radius)
	if err != nil {
		return nil, errors.Annotate(err, EmbeddingLabel)
	}

	p.Add(orig, emb)
	p.Legend.Add(OriginalLabel, orig)
	p.Legend.Add(EmbeddingLabel, emb)
	p.Legend.Top = true
	return p, nil
}

func scatter(m mat.Matrix, c color.Color, radius vg.Length) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(columnsXY{m: m, x: 0, y: 1})
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// SaveComparison renders Comparison to path as a PNG image.
func SaveComparison(path string, original, embedding mat.Matrix, title string, style Style) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Annotatef(err, "save %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Annotatef(cerr, "save %s", path)
		}
	}()

	if err := WriteComparison(f, original, embedding, title, style); err != nil {
		return errors.Annotatef(err, "save %s", path)
	}
	return nil
}

// WriteComparison renders Comparison to w as a PNG image.
func WriteComparison(w io.Writer, original, embedding mat.Matrix, title string, style Style) error {
	p, err := Comparison(original, embedding, title, style)
	if err != nil {
		return errors.Trace(err)
	}
	wt, err := p.WriterTo(style.Size, style.Size, "png")
	if err != nil {
		return errors.Trace(err)
	}
	_, err = wt.WriteTo(w)
	return errors.Trace(err)
}
