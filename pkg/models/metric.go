package models

import (
	"strings"

	apperrors "go-focus-evaluator/internal/errors"
)

// MetricName identifies a focus metric.
type MetricName string

const (
	VarianceOfIntensity         MetricName = "variance_of_intensity"
	VarianceOfIntensityWithBlur MetricName = "variance_of_intensity_with_blur"
	VarianceOfSobelMagnitude    MetricName = "variance_of_sobel_magnitude"
	VarianceOfLaplacian         MetricName = "variance_of_laplacian"
)

// Names found in older measurement files and configs.
var metricAliases = map[string]MetricName{
	"variance_of_intensity_without_blur": VarianceOfIntensity,
	"std_dev_of_intensity_without_blur":  VarianceOfIntensity,
	"std_dev_of_intensity_with_blur":     VarianceOfIntensityWithBlur,
	"sobel_magnitude":                    VarianceOfSobelMagnitude,
	"sobel_method":                       VarianceOfSobelMagnitude,
}

// AllMetrics returns the supported metrics in their canonical order.
func AllMetrics() []MetricName {
	return []MetricName{
		VarianceOfIntensity,
		VarianceOfIntensityWithBlur,
		VarianceOfSobelMagnitude,
		VarianceOfLaplacian,
	}
}

func (m MetricName) String() string {
	return string(m)
}

// Valid reports whether m is one of the canonical names.
func (m MetricName) Valid() bool {
	for _, known := range AllMetrics() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMetricName resolves a canonical name or legacy alias.
func ParseMetricName(s string) (MetricName, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if m := MetricName(name); m.Valid() {
		return m, nil
	}
	if m, ok := metricAliases[name]; ok {
		return m, nil
	}
	return "", apperrors.NewUnknownMetricError(s)
}

// ParseMetricNames parses each name and drops duplicates, keeping first
// occurrence order.
func ParseMetricNames(names []string) ([]MetricName, error) {
	seen := make(map[MetricName]bool, len(names))
	out := make([]MetricName, 0, len(names))
	for _, n := range names {
		m, err := ParseMetricName(n)
		if err != nil {
			return nil, err
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out, nil
}

// MetricResult is the outcome of one metric on one frame. Image is nil when
// the metric has no natural visualisation.
type MetricResult struct {
	Image      *Raster
	Value      float64
	Degenerate bool
}
