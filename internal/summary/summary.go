// Package summary reduces ROC curves to the TPR reached at a fixed FPR and
// aggregates that figure across independent human assessments.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/modality"
	"go-focus-evaluator/internal/roc"
	"go-focus-evaluator/pkg/models"
)

// Params controls per-assessment evaluation.
type Params struct {
	Boundary     int
	FPRThreshold float64
}

// DefaultParams returns boundary 90 and an FPR threshold of 0.05.
func DefaultParams() Params {
	return Params{Boundary: modality.DefaultBoundary, FPRThreshold: 0.05}
}

// Validate rejects thresholds outside [0, 1] and negative boundaries.
func (p Params) Validate() error {
	if p.Boundary < 0 {
		return apperrors.NewValidationError(fmt.Sprintf("boundary must be >= 0 (got %d)", p.Boundary), nil)
	}
	if p.FPRThreshold < 0 || p.FPRThreshold > 1 {
		return apperrors.NewValidationError(fmt.Sprintf("fpr threshold must be within [0, 1] (got %g)", p.FPRThreshold), nil)
	}
	return nil
}

// Curve is the ROC curve of one (assessment, metric, modality) triple.
type Curve struct {
	Assessment string
	Metric     models.MetricName
	Modality   models.Modality
	Points     roc.Curve
}

// Evaluation holds everything computed for one assessment.
type Evaluation struct {
	Rows   []models.SummaryRow
	Curves []Curve
}

// EvaluateAssessment partitions table by modality and, for every metric,
// builds the ROC curve of each subset and records the point nearest the FPR
// threshold. Rows are ordered metric-major, Brightfield before DIC.
func EvaluateAssessment(id string, table *models.AnnotationTable, metrics []models.MetricName, params Params) (*Evaluation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("assessment %s has no annotation table", id), nil)
	}
	if len(metrics) == 0 {
		metrics = table.Metrics
	}
	if len(metrics) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("assessment %s: no metrics to evaluate", id), nil)
	}

	subsets := make(map[models.Modality]*models.AnnotationTable, 2)
	for _, m := range models.AllModalities() {
		subset, err := modality.Filter(table, m, params.Boundary)
		if err != nil {
			return nil, err
		}
		subsets[m] = subset
	}

	eval := &Evaluation{}
	for _, metric := range metrics {
		if !metric.Valid() {
			return nil, apperrors.NewUnknownMetricError(string(metric))
		}
		for _, m := range models.AllModalities() {
			curve, err := roc.CalcROC(subsets[m].SortedLabels(metric))
			if err != nil {
				return nil, fmt.Errorf("assessment %s, %s, %s: %w", id, metric, m, err)
			}
			_, pt := curve.NearestFPR(params.FPRThreshold)

			eval.Curves = append(eval.Curves, Curve{Assessment: id, Metric: metric, Modality: m, Points: curve})
			eval.Rows = append(eval.Rows, models.SummaryRow{
				Assessment: id,
				Modality:   m,
				Metric:     metric,
				FPR:        pt.FPR,
				TPR:        pt.TPR,
			})
		}
	}
	return eval, nil
}

type groupKey struct {
	modality models.Modality
	metric   models.MetricName
}

// Aggregate groups rows by (modality, metric) and takes the median FPR and
// TPR of each group. Output follows modality order, then the order in which
// metrics first appear.
func Aggregate(rows []models.SummaryRow) []models.SummaryRow {
	var metricOrder []models.MetricName
	seenMetric := make(map[models.MetricName]bool)
	groups := make(map[groupKey][]models.SummaryRow)
	for _, r := range rows {
		if !seenMetric[r.Metric] {
			seenMetric[r.Metric] = true
			metricOrder = append(metricOrder, r.Metric)
		}
		k := groupKey{r.Modality, r.Metric}
		groups[k] = append(groups[k], r)
	}

	modalities := models.AllModalities()
	for _, r := range rows {
		known := false
		for _, m := range modalities {
			if r.Modality == m {
				known = true
				break
			}
		}
		if !known {
			modalities = append(modalities, r.Modality)
		}
	}

	var out []models.SummaryRow
	for _, m := range modalities {
		for _, metric := range metricOrder {
			group, ok := groups[groupKey{m, metric}]
			if !ok {
				continue
			}
			fprs := make([]float64, len(group))
			tprs := make([]float64, len(group))
			for i, r := range group {
				fprs[i] = r.FPR
				tprs[i] = r.TPR
			}
			out = append(out, models.SummaryRow{
				Modality: m,
				Metric:   metric,
				FPR:      Median(fprs),
				TPR:      Median(tprs),
			})
		}
	}
	return out
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. The input is not modified. An empty slice yields NaN.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return stat.Mean(sorted[mid-1:mid+1], nil)
}
