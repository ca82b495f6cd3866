// Package report renders ROC curves as a static SVG grid and an
// interactive HTML page.
package report

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"go-focus-evaluator/internal/summary"
	"go-focus-evaluator/pkg/models"
)

// Palette returns n evenly spaced hues of equal lightness and chroma.
func Palette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hcl(30+float64(i)*360/float64(n), 0.55, 0.55).Clamped()
	}
	return out
}

// chanceColor draws the diagonal of a random classifier.
var chanceColor = color.Gray{Y: 160}

// modalityColors maps each modality to a fixed palette entry.
func modalityColors() map[models.Modality]colorful.Color {
	modalities := models.AllModalities()
	colors := Palette(len(modalities))
	out := make(map[models.Modality]colorful.Color, len(modalities))
	for i, m := range modalities {
		out[m] = colors[i]
	}
	return out
}

// cellTitle is "<assessment> - <metric>" with the intensity suffix dropped
// to keep grid titles short.
func cellTitle(assessment string, metric models.MetricName) string {
	return assessment + " - " + strings.Replace(string(metric), "_of_intensity", "", 1)
}

// grid indexes curves by metric row and assessment column.
type grid struct {
	metrics     []models.MetricName
	assessments []string
	cells       map[string]map[models.MetricName][]summary.Curve
}

func newGrid(curves []summary.Curve) *grid {
	g := &grid{cells: make(map[string]map[models.MetricName][]summary.Curve)}
	seenMetric := make(map[models.MetricName]bool)
	for _, c := range curves {
		if _, ok := g.cells[c.Assessment]; !ok {
			g.assessments = append(g.assessments, c.Assessment)
			g.cells[c.Assessment] = make(map[models.MetricName][]summary.Curve)
		}
		if !seenMetric[c.Metric] {
			seenMetric[c.Metric] = true
			g.metrics = append(g.metrics, c.Metric)
		}
		g.cells[c.Assessment][c.Metric] = append(g.cells[c.Assessment][c.Metric], c)
	}
	return g
}

func (g *grid) cell(metric models.MetricName, assessment string) []summary.Curve {
	return g.cells[assessment][metric]
}
