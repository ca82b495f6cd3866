package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-focus-evaluator/internal/annotation"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// assessmentFilePrefix is stripped from file names to form assessment ids.
const assessmentFilePrefix = "focus_results_"

// fileAssessmentRepository reads one CSV per annotator from a directory
type fileAssessmentRepository struct {
	dir string
}

// NewFileAssessmentRepository creates an assessment repository over dir
func NewFileAssessmentRepository(dir string) AssessmentRepository {
	return &fileAssessmentRepository{dir: dir}
}

// AssessmentID derives an id from an assessment file path.
func AssessmentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimPrefix(strings.TrimSuffix(base, filepath.Ext(base)), assessmentFilePrefix)
}

func (r *fileAssessmentRepository) ListAssessments(ctx context.Context) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*.csv"))
	if err != nil {
		return nil, apperrors.NewValidationError("bad assessments directory", err)
	}
	if len(paths) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s in %s", ErrNoAssessments, r.dir), ErrNoAssessments)
	}
	sort.Strings(paths)
	return paths, nil
}

func (r *fileAssessmentRepository) LoadAssessment(ctx context.Context, path string) (*models.Assessment, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("assessment %s not found", path), err)
		}
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	rows, err := annotation.ReadGroundTruth(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &models.Assessment{ID: AssessmentID(path), Rows: rows}, nil
}
