package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// DerivedImagePath is <dir>/<metric>/<stack_id>/<stack_id>_<frame>.tif.
func DerivedImagePath(dir string, metric models.MetricName, stackID string, frame int) string {
	return filepath.Join(dir, string(metric), stackID, fmt.Sprintf("%s_%d.tif", stackID, frame))
}

// SaveDerivedImage writes img as a 16-bit grayscale TIFF and returns the
// path. A nil image writes nothing and returns "".
func SaveDerivedImage(dir string, metric models.MetricName, stackID string, frame int, img *models.Raster) (string, error) {
	if img == nil {
		return "", nil
	}
	path := DerivedImagePath(dir, metric, stackID, frame)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperrors.NewInternalError("failed to create derived image directory", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewInternalError("failed to create derived image", err)
	}
	defer f.Close()

	if err := tiff.Encode(f, img.ToGray16(), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return "", apperrors.NewInternalError(fmt.Sprintf("failed to encode %s", path), err)
	}
	return path, f.Close()
}
