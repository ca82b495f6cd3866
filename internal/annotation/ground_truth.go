package annotation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// Accepted spellings of the ground-truth column.
var inFocusColumns = []string{"InFocus", "in_focus"}

// ReadGroundTruth parses an assessment CSV. Each data row is one frame in
// stack order; only the InFocus column is read. Values go through
// strconv.ParseBool so True/False/1/0 are all accepted.
func ReadGroundTruth(r io.Reader) ([]models.GroundTruthRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewValidationError("ground truth file is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read ground truth header", err)
	}

	col := -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, want := range inFocusColumns {
			if name == want {
				col = i
			}
		}
	}
	if col < 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("ground truth header %v has no InFocus column", header), nil)
	}

	var rows []models.GroundTruthRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("failed to read ground truth row %d", len(rows)+1), err)
		}
		if col >= len(record) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("ground truth row %d has no InFocus value", len(rows)+1), nil)
		}
		value, err := strconv.ParseBool(strings.TrimSpace(record[col]))
		if err != nil {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("ground truth row %d: invalid InFocus value %q", len(rows)+1, record[col]), err)
		}
		rows = append(rows, models.GroundTruthRow{FrameNum: len(rows), InFocus: value})
	}
	return rows, nil
}
