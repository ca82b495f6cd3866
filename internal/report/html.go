package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/summary"
	"go-focus-evaluator/pkg/models"
)

// WriteROCHTML renders the same grid as WriteROCGrid as interactive charts
// on one page, followed by a bar chart of the median TPR per metric.
func WriteROCHTML(w io.Writer, curves []summary.Curve, medians []models.SummaryRow) error {
	if len(curves) == 0 {
		return apperrors.NewValidationError("no curves to plot", nil)
	}
	g := newGrid(curves)
	colors := modalityColors()

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	for _, metric := range g.metrics {
		for _, assessment := range g.assessments {
			line := charts.NewLine()
			line.SetGlobalOptions(
				charts.WithInitializationOpts(opts.Initialization{PageTitle: "ROC curves", Width: "420px", Height: "420px"}),
				charts.WithTitleOpts(opts.Title{Title: cellTitle(assessment, metric)}),
				charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
				charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
				charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: 1, Name: "FPR", NameLocation: "middle", NameGap: 25}),
				charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 1, Name: "TPR", NameLocation: "middle", NameGap: 30}),
			)

			line.AddSeries("chance", []opts.LineData{{Value: []interface{}{0, 0}}, {Value: []interface{}{1, 1}}},
				charts.WithLineStyleOpts(opts.LineStyle{Color: "#a0a0a0", Type: "dashed"}),
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			)
			for _, curve := range g.cell(metric, assessment) {
				data := make([]opts.LineData, len(curve.Points))
				for i, pt := range curve.Points {
					data[i] = opts.LineData{Value: []interface{}{pt.FPR, pt.TPR}}
				}
				hex := colors[curve.Modality].Hex()
				line.AddSeries(string(curve.Modality), data,
					charts.WithLineStyleOpts(opts.LineStyle{Color: hex, Width: 2}),
					charts.WithItemStyleOpts(opts.ItemStyle{Color: hex}),
					charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				)
			}
			page.AddCharts(line)
		}
	}

	if len(medians) > 0 {
		page.AddCharts(medianChart(medians, len(g.assessments)))
	}

	if err := page.Render(w); err != nil {
		return apperrors.NewInternalError("failed to render ROC report", err)
	}
	return nil
}

func medianChart(rows []models.SummaryRow, assessments int) *charts.Bar {
	colors := modalityColors()

	var metrics []string
	seen := make(map[models.MetricName]bool)
	tpr := make(map[models.Modality]map[models.MetricName]float64)
	for _, r := range rows {
		if !seen[r.Metric] {
			seen[r.Metric] = true
			metrics = append(metrics, string(r.Metric))
		}
		if tpr[r.Modality] == nil {
			tpr[r.Modality] = make(map[models.MetricName]float64)
		}
		tpr[r.Modality][r.Metric] = r.TPR
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "860px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Median TPR", Subtitle: fmt.Sprintf("%d assessments pooled per bar", assessments)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(metrics)
	for _, m := range models.AllModalities() {
		values, ok := tpr[m]
		if !ok {
			continue
		}
		data := make([]opts.BarData, len(metrics))
		for i, name := range metrics {
			data[i] = opts.BarData{Value: values[models.MetricName(name)]}
		}
		bar.AddSeries(string(m), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[m].Hex()}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{c}"}),
		)
	}
	return bar
}
