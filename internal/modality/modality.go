// Package modality splits frame-indexed annotation tables into the
// Brightfield and DIC parts of a stack that was acquired in two runs.
package modality

import (
	"fmt"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// DefaultBoundary is the first DIC frame of the reference stack.
const DefaultBoundary = 90

// Filter returns the rows belonging to modality. Brightfield rows are the
// positions below boundary and DIC rows the rest. A boundary past the end
// of the table puts every row in Brightfield.
func Filter(table *models.AnnotationTable, modality models.Modality, boundary int) (*models.AnnotationTable, error) {
	if boundary < 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("modality boundary must be >= 0 (got %d)", boundary), nil)
	}
	if boundary > table.Len() {
		boundary = table.Len()
	}

	switch modality {
	case models.Brightfield:
		return table.Slice(0, boundary), nil
	case models.DIC:
		return table.Slice(boundary, table.Len()), nil
	default:
		return nil, apperrors.NewUnknownModalityError(string(modality))
	}
}

// FilterByName parses name before filtering.
func FilterByName(table *models.AnnotationTable, name string, boundary int) (*models.AnnotationTable, error) {
	m, err := models.ParseModality(name)
	if err != nil {
		return nil, err
	}
	return Filter(table, m, boundary)
}

// Split returns both subsets.
func Split(table *models.AnnotationTable, boundary int) (bf, dic *models.AnnotationTable, err error) {
	if bf, err = Filter(table, models.Brightfield, boundary); err != nil {
		return nil, nil, err
	}
	if dic, err = Filter(table, models.DIC, boundary); err != nil {
		return nil, nil, err
	}
	return bf, dic, nil
}
