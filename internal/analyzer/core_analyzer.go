package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/filters"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/strategy"
	"go-focus-evaluator/pkg/models"
)

// coreAnalyzer implements FocusAnalyzer on top of a filter kit and one
// strategy per metric
type coreAnalyzer struct {
	options    AnalysisOptions
	kit        filters.Kit
	strategies map[models.MetricName]strategy.FocusStrategy
	active     []models.MetricName
}

// NewFocusAnalyzer creates a new analyzer with all metric strategies
func NewFocusAnalyzer(options AnalysisOptions) (FocusAnalyzer, error) {
	kit, err := filters.New(options.FilterKit)
	if err != nil {
		return nil, err
	}
	return NewFocusAnalyzerWithKit(kit, options)
}

// NewFocusAnalyzerWithKit creates an analyzer around an existing kit
func NewFocusAnalyzerWithKit(kit filters.Kit, options AnalysisOptions) (FocusAnalyzer, error) {
	if options.BlurSigma <= 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("blur sigma must be > 0 (got %g)", options.BlurSigma), nil)
	}

	strategies := make(map[models.MetricName]strategy.FocusStrategy)
	for _, name := range models.AllMetrics() {
		s, err := strategy.NewStrategy(name, kit, options.BlurSigma)
		if err != nil {
			return nil, err
		}
		strategies[name] = s
	}

	active := options.Metrics
	if len(active) == 0 {
		active = models.AllMetrics()
	}
	for _, name := range active {
		if _, ok := strategies[name]; !ok {
			return nil, apperrors.NewUnknownMetricError(string(name))
		}
	}

	return &coreAnalyzer{
		options:    options,
		kit:        kit,
		strategies: strategies,
		active:     append([]models.MetricName(nil), active...),
	}, nil
}

// ComputeFocusMetric runs the named metric on one frame
func (ca *coreAnalyzer) ComputeFocusMetric(frame *models.Raster, name models.MetricName) (models.MetricResult, error) {
	s, ok := ca.strategies[name]
	if !ok {
		return models.MetricResult{}, apperrors.NewUnknownMetricError(string(name))
	}
	if frame == nil || frame.Width == 0 || frame.Height == 0 {
		return models.MetricResult{}, apperrors.NewValidationError("frame is empty", nil)
	}
	if len(frame.Pix) != frame.Width*frame.Height {
		return models.MetricResult{}, apperrors.NewValidationError(
			fmt.Sprintf("frame has %d pixels, want %dx%d", len(frame.Pix), frame.Width, frame.Height), nil)
	}
	return s.Compute(frame)
}

// MeasureStack scores every frame of stack with each metric
func (ca *coreAnalyzer) MeasureStack(ctx context.Context, stack *models.Stack, metrics []models.MetricName) ([]FrameResult, error) {
	if len(metrics) == 0 {
		metrics = ca.active
	}
	for _, name := range metrics {
		if _, ok := ca.strategies[name]; !ok {
			return nil, apperrors.NewUnknownMetricError(string(name))
		}
	}

	start := time.Now()
	n := stack.Len()
	results := make([]FrameResult, len(metrics)*n)

	err := RunIndexed(ca.options.workers(), n, func(f int) error {
		if err := ctx.Err(); err != nil {
			return apperrors.NewTimeoutError("stack measurement cancelled", err)
		}
		frame := stack.Frames[f]
		for m, name := range metrics {
			res, err := ca.ComputeFocusMetric(frame.Image, name)
			if err != nil {
				if !(ca.options.TolerateDegenerate && res.Degenerate) {
					return fmt.Errorf("frame %d, %s: %w", frame.Num, name, err)
				}
				logger.WithFields(logrus.Fields{
					"stack_id": stack.ID,
					"frame":    frame.Num,
					"metric":   name,
				}).Warn("Degenerate frame scored as zero")
			}
			results[m*n+f] = FrameResult{
				StackID:  stack.ID,
				FrameNum: frame.Num,
				Metric:   name,
				Result:   res,
			}
			logger.WithFields(logrus.Fields{
				"stack_id": stack.ID,
				"frame":    frame.Num,
				"metric":   name,
				"value":    res.Value,
			}).Debug("Frame measured")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"stack_id":    stack.ID,
		"frames":      n,
		"metrics":     len(metrics),
		"kit":         ca.kit.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Stack measured")
	return results, nil
}

// Metrics returns the active metric set
func (ca *coreAnalyzer) Metrics() []models.MetricName {
	return append([]models.MetricName(nil), ca.active...)
}

// KitName returns the filter kit in use
func (ca *coreAnalyzer) KitName() string {
	return ca.kit.Name()
}

// Close releases analyzer resources
func (ca *coreAnalyzer) Close() error {
	return nil
}
