// Package annotation joins human focus judgments with focus metric scores.
package annotation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"go-focus-evaluator/internal/analyzer"
	"go-focus-evaluator/internal/config"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/pkg/models"
)

// Loader scores the frames referenced by ground-truth rows.
type Loader struct {
	engine           analyzer.FocusAnalyzer
	degeneratePolicy string
}

// NewLoader returns a loader. policy is config.DegeneratePolicyFail or
// config.DegeneratePolicyZero; anything else behaves like fail.
func NewLoader(engine analyzer.FocusAnalyzer, policy string) *Loader {
	return &Loader{engine: engine, degeneratePolicy: policy}
}

// LoadAnnotationsAndCalcMetrics computes every metric on the frame at each
// row's ordinal and stores the values on the row. The stack may be longer
// than the ground truth but not shorter.
func (l *Loader) LoadAnnotationsAndCalcMetrics(ctx context.Context, stack *models.Stack, rows []models.GroundTruthRow, metrics []models.MetricName) (*models.AnnotationTable, error) {
	if len(metrics) == 0 {
		metrics = l.engine.Metrics()
	}
	if len(rows) > stack.Len() {
		return nil, apperrors.NewShapeMismatchError(
			fmt.Sprintf("ground truth has %d rows but stack %s has %d frames", len(rows), stack.ID, stack.Len()), nil)
	}

	table := &models.AnnotationTable{
		Metrics: append([]models.MetricName(nil), metrics...),
		Rows:    make([]models.Annotation, len(rows)),
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewTimeoutError("annotation loading cancelled", err)
		}
		values := make(map[models.MetricName]float64, len(metrics))
		for _, name := range metrics {
			res, err := l.engine.ComputeFocusMetric(stack.Frames[i].Image, name)
			if err != nil {
				if !(res.Degenerate && l.degeneratePolicy == config.DegeneratePolicyZero) {
					return nil, fmt.Errorf("frame %d, %s: %w", i, name, err)
				}
				logger.WithFields(logrus.Fields{
					"stack_id": stack.ID,
					"frame":    i,
					"metric":   name,
				}).Warn("Degenerate frame stored as zero")
			}
			values[name] = res.Value
			logger.WithFields(logrus.Fields{
				"stack_id": stack.ID,
				"frame":    i,
				"metric":   name,
				"value":    res.Value,
			}).Debug("Annotation scored")
		}
		table.Rows[i] = models.Annotation{FrameNum: i, InFocus: row.InFocus, Values: values}
	}
	return table, nil
}

// JoinMeasurements builds the same table as LoadAnnotationsAndCalcMetrics
// from values computed earlier. Every row needs a measurement for every
// metric.
func JoinMeasurements(rows []models.GroundTruthRow, measurements []models.Measurement, metrics []models.MetricName) (*models.AnnotationTable, error) {
	byFrame := make(map[uint32]map[models.MetricName]float64)
	for _, m := range measurements {
		if byFrame[m.FrameNum] == nil {
			byFrame[m.FrameNum] = make(map[models.MetricName]float64)
		}
		byFrame[m.FrameNum][m.MetricName] = m.MetricValue
	}

	table := &models.AnnotationTable{
		Metrics: append([]models.MetricName(nil), metrics...),
		Rows:    make([]models.Annotation, len(rows)),
	}
	for i, row := range rows {
		frame := byFrame[uint32(i)]
		values := make(map[models.MetricName]float64, len(metrics))
		for _, name := range metrics {
			v, ok := frame[name]
			if !ok {
				return nil, apperrors.NewShapeMismatchError(
					fmt.Sprintf("no %s measurement for frame %d", name, i), nil)
			}
			values[name] = v
		}
		table.Rows[i] = models.Annotation{FrameNum: i, InFocus: row.InFocus, Values: values}
	}
	return table, nil
}
