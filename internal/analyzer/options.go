package analyzer

import (
	"go-focus-evaluator/internal/filters"
	"go-focus-evaluator/pkg/models"
)

// AnalysisOptions provides flexible configuration for focus measurement
type AnalysisOptions struct {
	// Filters
	FilterKit string
	BlurSigma float64

	// Metrics measured by MeasureStack when the caller passes none
	Metrics []models.MetricName

	// Keep degenerate results (value 0) instead of failing the stack
	TolerateDegenerate bool

	// Performance options
	UseWorkerPool bool
	MaxWorkers    int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		FilterKit:          filters.DefaultKit,
		BlurSigma:          1.0,
		Metrics:            models.AllMetrics(),
		TolerateDegenerate: false,
		UseWorkerPool:      false,
		MaxWorkers:         0, // Use default CPU count
	}
}

// ParallelOptions returns default options measuring frames concurrently
func ParallelOptions(workers int) AnalysisOptions {
	return DefaultOptions().WithWorkers(workers)
}

// WithKit selects the filter kit by name
func (opts AnalysisOptions) WithKit(name string) AnalysisOptions {
	opts.FilterKit = name
	return opts
}

// WithBlurSigma sets the Gaussian standard deviation
func (opts AnalysisOptions) WithBlurSigma(sigma float64) AnalysisOptions {
	opts.BlurSigma = sigma
	return opts
}

// WithMetrics replaces the active metric set
func (opts AnalysisOptions) WithMetrics(metrics ...models.MetricName) AnalysisOptions {
	opts.Metrics = metrics
	return opts
}

// WithWorkers enables the worker pool when workers > 1
func (opts AnalysisOptions) WithWorkers(workers int) AnalysisOptions {
	opts.UseWorkerPool = workers > 1
	opts.MaxWorkers = workers
	return opts
}

// WithDegenerateTolerance keeps going on constant frames
func (opts AnalysisOptions) WithDegenerateTolerance() AnalysisOptions {
	opts.TolerateDegenerate = true
	return opts
}

func (opts AnalysisOptions) workers() int {
	if !opts.UseWorkerPool {
		return 1
	}
	if opts.MaxWorkers <= 0 {
		return NewWorkerPool(0).Workers()
	}
	return opts.MaxWorkers
}
