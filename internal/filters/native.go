package filters

import (
	"math"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// Gaussian kernels extend this many standard deviations each side.
const gaussianTruncate = 4.0

func init() {
	Register("native", func() Kit { return NewNativeKit() })
}

// nativeKit implements Kit in float64 without external dependencies.
type nativeKit struct{}

// NewNativeKit returns the pure Go kit.
func NewNativeKit() Kit {
	return nativeKit{}
}

func (nativeKit) Name() string { return "native" }

// Blur runs a separable Gaussian with nearest-edge padding.
func (nativeKit) Blur(r *models.Raster, sigma float64) (*models.Raster, error) {
	if sigma <= 0 {
		return nil, apperrors.NewValidationError("blur sigma must be > 0", nil)
	}
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	tmp := models.NewRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		row := r.Pix[y*r.Width : (y+1)*r.Width]
		for x := 0; x < r.Width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * row[clamp(x+k-radius, r.Width)]
			}
			tmp.Pix[y*r.Width+x] = sum
		}
	}

	out := models.NewRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * tmp.Pix[clamp(y+k-radius, r.Height)*r.Width+x]
			}
			out.Pix[y*r.Width+x] = sum
		}
	}
	return out, nil
}

// Sobel uses the 1-2-1 kernels scaled by 1/4 with mirrored borders.
func (nativeKit) Sobel(r *models.Raster) (*models.Raster, error) {
	out := models.NewRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			p := func(dx, dy int) float64 {
				return r.Pix[reflect(y+dy, r.Height)*r.Width+reflect(x+dx, r.Width)]
			}
			gh := (p(-1, -1) + 2*p(0, -1) + p(1, -1) - p(-1, 1) - 2*p(0, 1) - p(1, 1)) / 4
			gv := (p(-1, -1) + 2*p(-1, 0) + p(-1, 1) - p(1, -1) - 2*p(1, 0) - p(1, 1)) / 4
			out.Pix[y*r.Width+x] = math.Hypot(gh, gv)
		}
	}
	return out, nil
}

// Laplacian applies [[0,1,0],[1,-4,1],[0,1,0]] with mirrored borders.
func (nativeKit) Laplacian(r *models.Raster) (*models.Raster, error) {
	out := models.NewRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		up, down := reflect(y-1, r.Height), reflect(y+1, r.Height)
		for x := 0; x < r.Width; x++ {
			left, right := reflect(x-1, r.Width), reflect(x+1, r.Width)
			out.Pix[y*r.Width+x] = r.Pix[up*r.Width+x] +
				r.Pix[down*r.Width+x] +
				r.Pix[y*r.Width+left] +
				r.Pix[y*r.Width+right] -
				4*r.Pix[y*r.Width+x]
		}
	}
	return out, nil
}

func (nativeKit) Normalize(r *models.Raster) (*models.Raster, error) {
	return Normalize(r)
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// clamp maps i into [0, n) by repeating the edge sample.
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// reflect maps i into [0, n) by mirroring about the edge (d c b a | a b c d).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
