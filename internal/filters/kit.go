// Package filters provides the image-processing primitives focus metrics are
// built from. Implementations are registered by name so the engine can run
// on pure Go, on bild, or on OpenCV when built with the gocv tag.
package filters

import (
	"fmt"
	"math"
	"sort"
	"sync"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// DefaultKit is the kit used when none is configured.
const DefaultKit = "native"

// Kit is a set of 2-D filters operating on float rasters. Implementations
// must not modify their input.
type Kit interface {
	Name() string
	// Blur applies a Gaussian filter with standard deviation sigma.
	Blur(r *models.Raster, sigma float64) (*models.Raster, error)
	// Sobel returns the gradient magnitude sqrt(gx² + gy²).
	Sobel(r *models.Raster) (*models.Raster, error)
	// Laplacian applies the 3x3 4-neighbour Laplacian.
	Laplacian(r *models.Raster) (*models.Raster, error)
	// Normalize rescales to [0, 1]; see Normalize.
	Normalize(r *models.Raster) (*models.Raster, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Kit{}
)

// Register makes a kit constructor available under name.
func Register(name string, ctor func() Kit) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// New returns the kit registered under name.
func New(name string) (Kit, error) {
	if name == "" {
		name = DefaultKit
	}
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown filter kit %q (available: %v)", name, Available()), nil)
	}
	return ctor(), nil
}

// Available lists registered kit names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize subtracts the minimum, clamps negatives to zero and divides by
// the resulting maximum. A constant image has nothing to divide by: the
// result is all zeros together with a degenerate_image error. A raster
// holding NaN is rejected with a processing error.
func Normalize(r *models.Raster) (*models.Raster, error) {
	for i, v := range r.Pix {
		if math.IsNaN(v) {
			return nil, apperrors.NewProcessingError(
				fmt.Sprintf("cannot normalize %dx%d image: NaN at pixel (%d, %d)", r.Width, r.Height, i%r.Width, i/r.Width), nil)
		}
	}

	out := models.NewRaster(r.Width, r.Height)
	lo, _ := r.MinMax()

	hi := 0.0
	for i, v := range r.Pix {
		v -= lo
		if v < 0 {
			v = 0
		}
		out.Pix[i] = v
		if v > hi {
			hi = v
		}
	}

	if hi == 0 {
		for i := range out.Pix {
			out.Pix[i] = 0
		}
		return out, apperrors.NewDegenerateImageError(
			fmt.Sprintf("cannot normalize constant %dx%d image", r.Width, r.Height))
	}

	for i := range out.Pix {
		out.Pix[i] /= hi
	}
	return out, nil
}
