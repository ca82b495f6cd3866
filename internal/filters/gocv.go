//go:build gocv

package filters

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

func init() {
	Register("gocv", func() Kit { return NewGocvKit() })
}

// gocvKit runs the filters through OpenCV on CV_64F mats.
type gocvKit struct{}

// NewGocvKit returns a kit backed by gocv.io/x/gocv.
func NewGocvKit() Kit {
	return gocvKit{}
}

func (gocvKit) Name() string { return "gocv" }

func (gocvKit) Blur(r *models.Raster, sigma float64) (*models.Raster, error) {
	if sigma <= 0 {
		return nil, apperrors.NewValidationError("blur sigma must be > 0", nil)
	}
	src, err := toMat(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	// Same support as the native kit: 4 sigma each side.
	ksize := 2*int(gaussianTruncate*sigma+0.5) + 1
	gocv.GaussianBlur(src, &dst, image.Pt(ksize, ksize), sigma, sigma, gocv.BorderReplicate)
	return fromMat(dst, r.Width, r.Height)
}

func (gocvKit) Sobel(r *models.Raster) (*models.Raster, error) {
	src, err := toMat(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	gx := gocv.NewMat()
	defer gx.Close()
	gy := gocv.NewMat()
	defer gy.Close()
	mag := gocv.NewMat()
	defer mag.Close()

	gocv.Sobel(src, &gx, gocv.MatTypeCV64F, 1, 0, 3, 0.25, 0, gocv.BorderReflect)
	gocv.Sobel(src, &gy, gocv.MatTypeCV64F, 0, 1, 3, 0.25, 0, gocv.BorderReflect)
	gocv.Magnitude(gx, gy, &mag)
	return fromMat(mag, r.Width, r.Height)
}

func (gocvKit) Laplacian(r *models.Raster) (*models.Raster, error) {
	src, err := toMat(r)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	// ksize 1 selects the 3x3 4-neighbour aperture.
	gocv.Laplacian(src, &dst, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderReflect)
	return fromMat(dst, r.Width, r.Height)
}

func (gocvKit) Normalize(r *models.Raster) (*models.Raster, error) {
	return Normalize(r)
}

func toMat(r *models.Raster) (gocv.Mat, error) {
	buf := make([]byte, 8*len(r.Pix))
	for i, v := range r.Pix {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	mat, err := gocv.NewMatFromBytes(r.Height, r.Width, gocv.MatTypeCV64F, buf)
	if err != nil {
		return gocv.Mat{}, apperrors.NewProcessingError("failed to build OpenCV matrix", err)
	}
	return mat, nil
}

func fromMat(m gocv.Mat, width, height int) (*models.Raster, error) {
	if m.Rows() != height || m.Cols() != width {
		return nil, apperrors.NewProcessingError(
			fmt.Sprintf("OpenCV returned %dx%d, want %dx%d", m.Cols(), m.Rows(), width, height), nil)
	}
	data, err := m.DataPtrFloat64()
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to read OpenCV matrix", err)
	}
	out := models.NewRaster(width, height)
	copy(out.Pix, data)
	return out, nil
}
