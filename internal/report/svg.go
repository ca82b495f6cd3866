package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/summary"
)

// CellSize is the edge length of one ROC plot in the grid.
const CellSize = 3 * vg.Inch

// WriteROCGrid draws one plot per (metric, assessment) with metrics as rows
// and assessments as columns. Each plot holds one curve per modality.
func WriteROCGrid(w io.Writer, curves []summary.Curve) error {
	if len(curves) == 0 {
		return apperrors.NewValidationError("no curves to plot", nil)
	}
	g := newGrid(curves)
	colors := modalityColors()

	rows, cols := len(g.metrics), len(g.assessments)
	plots := make([][]*plot.Plot, rows)
	for r, metric := range g.metrics {
		plots[r] = make([]*plot.Plot, cols)
		for c, assessment := range g.assessments {
			p := plot.New()
			p.Title.Text = cellTitle(assessment, metric)
			p.Title.TextStyle.Font.Size = vg.Points(9)
			p.X.Min, p.X.Max = 0, 1
			p.Y.Min, p.Y.Max = 0, 1
			if r == rows-1 {
				p.X.Label.Text = "False positive rate"
			}
			if c == 0 {
				p.Y.Label.Text = "True positive rate"
			}

			chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
			if err != nil {
				return err
			}
			chance.Color = chanceColor
			chance.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
			p.Add(chance)

			for _, curve := range g.cell(metric, assessment) {
				pts := make(plotter.XYs, len(curve.Points))
				for i, pt := range curve.Points {
					pts[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
				}
				line, err := plotter.NewLine(pts)
				if err != nil {
					return fmt.Errorf("%s: %w", p.Title.Text, err)
				}
				line.Color = colors[curve.Modality]
				line.Width = vg.Points(1)
				p.Add(line)
				p.Legend.Add(string(curve.Modality), line)
			}
			p.Legend.Top = false
			p.Legend.Left = false
			p.Legend.XOffs = -5
			p.Legend.YOffs = 5

			plots[r][c] = p
		}
	}

	img := vgsvg.New(vg.Length(cols)*CellSize, vg.Length(rows)*CellSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 2,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	if _, err := img.WriteTo(w); err != nil {
		return apperrors.NewInternalError("failed to write SVG", err)
	}
	return nil
}
