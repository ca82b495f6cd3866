package analyzer

import (
	"context"

	"go-focus-evaluator/pkg/models"
)

// FocusAnalyzer defines the main interface for focus measurement
type FocusAnalyzer interface {
	// ComputeFocusMetric scores one frame. It performs no I/O.
	ComputeFocusMetric(frame *models.Raster, name models.MetricName) (models.MetricResult, error)

	// MeasureStack scores every frame with every metric. Results are
	// metric-major with frames ascending.
	MeasureStack(ctx context.Context, stack *models.Stack, metrics []models.MetricName) ([]FrameResult, error)

	// Metrics returns the active metric set
	Metrics() []models.MetricName

	// KitName returns the filter kit in use
	KitName() string

	// Lifecycle management
	Close() error
}
