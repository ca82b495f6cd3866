package filters

import (
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

func init() {
	Register("bild", func() Kit { return NewBildKit() })
}

// bildKit runs blur and Sobel through bild. Inputs are quantised to 8 bits
// on the way in, so it trades precision for speed on large frames.
// Laplacian and Normalize come from the native kit.
type bildKit struct {
	native Kit
}

// NewBildKit returns a kit backed by github.com/anthonynsimon/bild.
func NewBildKit() Kit {
	return &bildKit{native: NewNativeKit()}
}

func (k *bildKit) Name() string { return "bild" }

func (k *bildKit) Blur(r *models.Raster, sigma float64) (*models.Raster, error) {
	if sigma <= 0 {
		return nil, apperrors.NewValidationError("blur sigma must be > 0", nil)
	}
	return models.RasterFromImage(blur.Gaussian(r.ToGray(), sigma)), nil
}

func (k *bildKit) Sobel(r *models.Raster) (*models.Raster, error) {
	return models.RasterFromImage(effect.Sobel(r.ToGray())), nil
}

func (k *bildKit) Laplacian(r *models.Raster) (*models.Raster, error) {
	return k.native.Laplacian(r)
}

func (k *bildKit) Normalize(r *models.Raster) (*models.Raster, error) {
	return k.native.Normalize(r)
}
