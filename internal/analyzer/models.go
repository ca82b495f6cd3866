package analyzer

import (
	"go-focus-evaluator/pkg/models"
)

// FrameResult is one metric outcome for one frame of a stack
type FrameResult struct {
	StackID  string
	FrameNum int
	Metric   models.MetricName
	Result   models.MetricResult
}

// Measurement converts the result to its CSV row form
func (r FrameResult) Measurement() models.Measurement {
	return models.Measurement{
		StackID:     r.StackID,
		FrameNum:    uint32(r.FrameNum),
		MetricName:  r.Metric,
		MetricValue: r.Result.Value,
	}
}

// Measurements converts a batch of results in order
func Measurements(results []FrameResult) []models.Measurement {
	out := make([]models.Measurement, len(results))
	for i, r := range results {
		out[i] = r.Measurement()
	}
	return out
}
