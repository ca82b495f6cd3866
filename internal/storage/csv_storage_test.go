package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

func TestWriteReadMeasurements(t *testing.T) {
	in := []models.Measurement{
		{StackID: "plate1", FrameNum: 0, MetricName: models.VarianceOfIntensity, MetricValue: 0.0123},
		{StackID: "plate1", FrameNum: 1, MetricName: models.VarianceOfLaplacian, MetricValue: 1e-7},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMeasurements(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "stack_id,frame_num,metric_name,metric_value\n"))

	out, err := ReadMeasurements(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("measurements mismatch (-want +got):\n%s", diff)
	}
}

func TestReadMeasurements_LegacyHeaders(t *testing.T) {
	in := "frame,method,focus_measure\n" +
		"0,sobel_method,0.5\n" +
		"1,std_dev_of_intensity_with_blur,0.25\n" +
		"2,variance_of_intensity_without_blur,0.125\n"

	out, err := ReadMeasurements(strings.NewReader(in))
	require.NoError(t, err)

	want := []models.Measurement{
		{FrameNum: 0, MetricName: models.VarianceOfSobelMagnitude, MetricValue: 0.5},
		{FrameNum: 1, MetricName: models.VarianceOfIntensityWithBlur, MetricValue: 0.25},
		{FrameNum: 2, MetricName: models.VarianceOfIntensity, MetricValue: 0.125},
	}
	assert.Equal(t, want, out)
}

func TestReadMeasurements_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantType apperrors.ErrorType
	}{
		{"empty", "", apperrors.ErrorTypeValidation},
		{"missing column", "frame_num,metric_name\n0,variance_of_intensity\n", apperrors.ErrorTypeValidation},
		{"bad frame", "frame_num,metric_name,metric_value\n-1,variance_of_intensity,1\n", apperrors.ErrorTypeValidation},
		{"bad value", "frame_num,metric_name,metric_value\n0,variance_of_intensity,abc\n", apperrors.ErrorTypeValidation},
		{"unknown metric", "frame_num,metric_name,metric_value\n0,tenengrad,1\n", apperrors.ErrorTypeUnknownMetric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMeasurements(strings.NewReader(tt.in))
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestWriteSummary(t *testing.T) {
	rows := []models.SummaryRow{
		{Assessment: "alice", Modality: models.Brightfield, Metric: models.VarianceOfIntensity, FPR: 0.05, TPR: 0.8},
		{Assessment: "alice", Modality: models.DIC, Metric: models.VarianceOfLaplacian, FPR: 1.0 / 3, TPR: 2.0 / 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, rows))
	assert.Equal(t,
		"modality,metric,fpr,tpr\n"+
			"Brightfield,variance_of_intensity,0.050,0.800\n"+
			"DIC,variance_of_laplacian,0.333,0.667\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteAssessmentSummary(&buf, rows[:1]))
	assert.Equal(t,
		"assessment,modality,metric,fpr,tpr\n"+
			"alice,Brightfield,variance_of_intensity,0.050,0.800\n",
		buf.String())
}
