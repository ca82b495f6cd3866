package strategy

import (
	"gonum.org/v1/gonum/stat"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/filters"
	"go-focus-evaluator/pkg/models"
)

// FocusStrategy scores the sharpness of a single frame
type FocusStrategy interface {
	Compute(frame *models.Raster) (models.MetricResult, error)
	GetStrategyName() models.MetricName
}

// NewStrategy returns the strategy implementing name on top of kit
func NewStrategy(name models.MetricName, kit filters.Kit, sigma float64) (FocusStrategy, error) {
	switch name {
	case models.VarianceOfIntensity:
		return NewIntensityVarianceStrategy(), nil
	case models.VarianceOfIntensityWithBlur:
		return NewBlurredIntensityVarianceStrategy(kit, sigma), nil
	case models.VarianceOfSobelMagnitude:
		return NewSobelVarianceStrategy(kit, sigma), nil
	case models.VarianceOfLaplacian:
		return NewLaplacianVarianceStrategy(kit, sigma), nil
	default:
		return nil, apperrors.NewUnknownMetricError(string(name))
	}
}

// IntensityVarianceStrategy scores the raw frame
type IntensityVarianceStrategy struct{}

// NewIntensityVarianceStrategy creates a new intensity variance strategy
func NewIntensityVarianceStrategy() FocusStrategy {
	return &IntensityVarianceStrategy{}
}

// Compute returns the population variance of the frame with no image
func (s *IntensityVarianceStrategy) Compute(frame *models.Raster) (models.MetricResult, error) {
	return models.MetricResult{Value: popVariance(frame)}, nil
}

// GetStrategyName returns the strategy name
func (s *IntensityVarianceStrategy) GetStrategyName() models.MetricName {
	return models.VarianceOfIntensity
}

// BlurredIntensityVarianceStrategy scores the frame after a Gaussian blur
type BlurredIntensityVarianceStrategy struct {
	kit   filters.Kit
	sigma float64
}

// NewBlurredIntensityVarianceStrategy creates a new blurred intensity strategy
func NewBlurredIntensityVarianceStrategy(kit filters.Kit, sigma float64) FocusStrategy {
	return &BlurredIntensityVarianceStrategy{kit: kit, sigma: sigma}
}

// Compute returns the blurred frame and its variance
func (s *BlurredIntensityVarianceStrategy) Compute(frame *models.Raster) (models.MetricResult, error) {
	blurred, err := s.kit.Blur(frame, s.sigma)
	if err != nil {
		return models.MetricResult{}, err
	}
	return models.MetricResult{Image: blurred, Value: popVariance(blurred)}, nil
}

// GetStrategyName returns the strategy name
func (s *BlurredIntensityVarianceStrategy) GetStrategyName() models.MetricName {
	return models.VarianceOfIntensityWithBlur
}

// SobelVarianceStrategy scores the normalized gradient magnitude
type SobelVarianceStrategy struct {
	kit   filters.Kit
	sigma float64
}

// NewSobelVarianceStrategy creates a new Sobel magnitude strategy
func NewSobelVarianceStrategy(kit filters.Kit, sigma float64) FocusStrategy {
	return &SobelVarianceStrategy{kit: kit, sigma: sigma}
}

// Compute blurs, takes the Sobel magnitude and normalizes it
func (s *SobelVarianceStrategy) Compute(frame *models.Raster) (models.MetricResult, error) {
	blurred, err := s.kit.Blur(frame, s.sigma)
	if err != nil {
		return models.MetricResult{}, err
	}
	mag, err := s.kit.Sobel(blurred)
	if err != nil {
		return models.MetricResult{}, err
	}
	return normalized(s.kit, mag)
}

// GetStrategyName returns the strategy name
func (s *SobelVarianceStrategy) GetStrategyName() models.MetricName {
	return models.VarianceOfSobelMagnitude
}

// LaplacianVarianceStrategy scores the normalized Laplacian response
type LaplacianVarianceStrategy struct {
	kit   filters.Kit
	sigma float64
}

// NewLaplacianVarianceStrategy creates a new Laplacian strategy
func NewLaplacianVarianceStrategy(kit filters.Kit, sigma float64) FocusStrategy {
	return &LaplacianVarianceStrategy{kit: kit, sigma: sigma}
}

// Compute blurs, applies the Laplacian and normalizes the response
func (s *LaplacianVarianceStrategy) Compute(frame *models.Raster) (models.MetricResult, error) {
	blurred, err := s.kit.Blur(frame, s.sigma)
	if err != nil {
		return models.MetricResult{}, err
	}
	lap, err := s.kit.Laplacian(blurred)
	if err != nil {
		return models.MetricResult{}, err
	}
	return normalized(s.kit, lap)
}

// GetStrategyName returns the strategy name
func (s *LaplacianVarianceStrategy) GetStrategyName() models.MetricName {
	return models.VarianceOfLaplacian
}

// normalized finishes the edge-based metrics. A degenerate normalization
// still yields a zero-valued result alongside the error so callers can
// choose to keep going.
func normalized(kit filters.Kit, r *models.Raster) (models.MetricResult, error) {
	norm, err := kit.Normalize(r)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeDegenerateImage) {
			return models.MetricResult{Image: norm, Value: 0, Degenerate: true}, err
		}
		return models.MetricResult{}, err
	}
	return models.MetricResult{Image: norm, Value: popVariance(norm)}, nil
}

func popVariance(r *models.Raster) float64 {
	if len(r.Pix) == 0 {
		return 0
	}
	return stat.PopVariance(r.Pix, nil)
}
