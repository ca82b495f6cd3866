package storage

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

// MeasurementHeader is the canonical measurement CSV header.
var MeasurementHeader = []string{"stack_id", "frame_num", "metric_name", "metric_value"}

// legacy column names seen in older measurement files
var measurementColumnAliases = map[string]string{
	"stack_id":      "stack_id",
	"frame_num":     "frame_num",
	"frame":         "frame_num",
	"metric_name":   "metric_name",
	"method":        "metric_name",
	"metric_value":  "metric_value",
	"focus_measure": "metric_value",
}

// WriteMeasurements writes measurements with the canonical header.
func WriteMeasurements(w io.Writer, measurements []models.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MeasurementHeader); err != nil {
		return err
	}
	for _, m := range measurements {
		record := []string{
			m.StackID,
			strconv.FormatUint(uint64(m.FrameNum), 10),
			string(m.MetricName),
			strconv.FormatFloat(m.MetricValue, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMeasurements parses a measurement CSV. Legacy headers and metric
// names are mapped to their canonical form; stack_id may be absent.
func ReadMeasurements(r io.Reader) ([]models.Measurement, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewValidationError("measurement CSV is empty", nil)
		}
		return nil, apperrors.NewValidationError("failed to read measurement header", err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := measurementColumnAliases[h]; ok {
			cols[canonical] = i
		}
	}
	for _, required := range []string{"frame_num", "metric_name", "metric_value"} {
		if _, ok := cols[required]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("measurement CSV missing column %q", required), nil)
		}
	}

	var out []models.Measurement
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d", line), err)
		}

		frame, err := strconv.ParseUint(strings.TrimSpace(record[cols["frame_num"]]), 10, 32)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d: bad frame number", line), err)
		}
		metric, err := models.ParseMetricName(record[cols["metric_name"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[cols["metric_value"]]), 64)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d: bad metric value", line), err)
		}

		m := models.Measurement{FrameNum: uint32(frame), MetricName: metric, MetricValue: value}
		if i, ok := cols["stack_id"]; ok {
			m.StackID = record[i]
		}
		out = append(out, m)
	}
	return out, nil
}

// WriteSummary writes the aggregated summary as modality,metric,fpr,tpr.
func WriteSummary(w io.Writer, rows []models.SummaryRow) error {
	return writeSummary(w, rows, false)
}

// WriteAssessmentSummary writes per-assessment rows with a leading
// assessment column.
func WriteAssessmentSummary(w io.Writer, rows []models.SummaryRow) error {
	return writeSummary(w, rows, true)
}

func writeSummary(w io.Writer, rows []models.SummaryRow, withAssessment bool) error {
	cw := csv.NewWriter(w)
	header := []string{"modality", "metric", "fpr", "tpr"}
	if withAssessment {
		header = append([]string{"assessment"}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			string(row.Modality),
			string(row.Metric),
			fmt.Sprintf("%.3f", row.FPR),
			fmt.Sprintf("%.3f", row.TPR),
		}
		if withAssessment {
			record = append([]string{row.Assessment}, record...)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
