package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/storage"
	"go-focus-evaluator/pkg/models"
)

// fileResultRepository writes pipeline outputs under local directories
type fileResultRepository struct {
	processedImagesDir string
	resultsDir         string
}

// NewFileResultRepository creates a result repository
func NewFileResultRepository(processedImagesDir, resultsDir string) ResultRepository {
	return &fileResultRepository{
		processedImagesDir: processedImagesDir,
		resultsDir:         resultsDir,
	}
}

func (r *fileResultRepository) SaveMeasurements(ctx context.Context, path string, measurements []models.Measurement) error {
	return writeFile(path, func(w io.Writer) error {
		return storage.WriteMeasurements(w, measurements)
	})
}

func (r *fileResultRepository) LoadMeasurements(ctx context.Context, path string) ([]models.Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("measurements %s not found", path), err)
		}
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return storage.ReadMeasurements(f)
}

func (r *fileResultRepository) SaveDerivedImage(ctx context.Context, metric models.MetricName, stackID string, frame int, img *models.Raster) (string, error) {
	return storage.SaveDerivedImage(r.processedImagesDir, metric, stackID, frame, img)
}

func (r *fileResultRepository) SaveSummary(ctx context.Context, name string, rows []models.SummaryRow, perAssessment bool) (string, error) {
	path, err := r.ResultPath(name)
	if err != nil {
		return "", err
	}
	err = writeFile(path, func(w io.Writer) error {
		if perAssessment {
			return storage.WriteAssessmentSummary(w, rows)
		}
		return storage.WriteSummary(w, rows)
	})
	return path, err
}

func (r *fileResultRepository) ResultPath(name string) (string, error) {
	if err := os.MkdirAll(r.resultsDir, 0o755); err != nil {
		return "", apperrors.NewInternalError("failed to create results directory", err)
	}
	return filepath.Join(r.resultsDir, name), nil
}

// writeFile creates path and its parent directory and hands the file to fn.
func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewInternalError("failed to create output directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return apperrors.NewInternalError(fmt.Sprintf("failed to write %s", path), err)
	}
	return f.Close()
}
