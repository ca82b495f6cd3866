package service

import (
	"go-focus-evaluator/internal/config"
	"go-focus-evaluator/internal/summary"
	"go-focus-evaluator/pkg/models"
)

// Options controls an evaluation service.
type Options struct {
	StackID           string
	Metrics           []models.MetricName
	Params            summary.Params
	DegeneratePolicy  string
	Workers           int
	SaveDerivedImages bool
}

// DefaultOptions evaluates every metric with the default summary parameters.
func DefaultOptions() Options {
	return Options{
		Metrics:          models.AllMetrics(),
		Params:           summary.DefaultParams(),
		DegeneratePolicy: config.DegeneratePolicyFail,
		Workers:          1,
	}
}

// OptionsFromConfig maps configuration onto service options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	metrics, err := models.ParseMetricNames(cfg.Metrics)
	if err != nil {
		return Options{}, err
	}
	if len(metrics) == 0 {
		metrics = models.AllMetrics()
	}
	opts := Options{
		StackID: cfg.StackID,
		Metrics: metrics,
		Params: summary.Params{
			Boundary:     cfg.BoundaryIndex,
			FPRThreshold: cfg.FPRThreshold,
		},
		DegeneratePolicy:  cfg.DegeneratePolicy,
		Workers:           cfg.Workers,
		SaveDerivedImages: cfg.SaveDerivedImages,
	}
	return opts, opts.Params.Validate()
}
