package analyzer

import (
	"context"
	"testing"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// createTestRaster creates a constant raster for testing purposes
func createTestRaster(width, height int, value float64) *models.Raster {
	r := models.NewRaster(width, height)
	for i := range r.Pix {
		r.Pix[i] = value
	}
	return r
}

// createStripedRaster creates a sharp pattern of vertical stripes
func createStripedRaster(width, height, period int) *models.Raster {
	r := models.NewRaster(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/period)%2 == 0 {
				r.Set(x, y, 0.9)
			} else {
				r.Set(x, y, 0.1)
			}
		}
	}
	return r
}

func createTestStack(frames ...*models.Raster) *models.Stack {
	stack := &models.Stack{ID: "stack_01"}
	for i, f := range frames {
		stack.Frames = append(stack.Frames, models.Frame{StackID: stack.ID, Num: i, Image: f})
	}
	return stack
}

func newTestAnalyzer(t *testing.T, opts AnalysisOptions) FocusAnalyzer {
	t.Helper()
	a, err := NewFocusAnalyzer(opts)
	if err != nil {
		t.Fatalf("Failed to create focus analyzer: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewFocusAnalyzer(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions())
	if a.KitName() != "native" {
		t.Errorf("Expected native kit, got %s", a.KitName())
	}
	if len(a.Metrics()) != 4 {
		t.Errorf("Expected 4 active metrics, got %d", len(a.Metrics()))
	}
}

func TestNewFocusAnalyzer_InvalidOptions(t *testing.T) {
	if _, err := NewFocusAnalyzer(DefaultOptions().WithKit("nope")); err == nil {
		t.Error("Expected error for unknown kit")
	}
	if _, err := NewFocusAnalyzer(DefaultOptions().WithBlurSigma(0)); err == nil {
		t.Error("Expected error for zero sigma")
	}
	_, err := NewFocusAnalyzer(DefaultOptions().WithMetrics("entropy"))
	if !apperrors.IsType(err, apperrors.ErrorTypeUnknownMetric) {
		t.Errorf("Expected unknown_metric error, got %v", err)
	}
}

func TestComputeFocusMetric_UnknownMetric(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions())
	_, err := a.ComputeFocusMetric(createTestRaster(4, 4, 0.5), "brenner")
	if !apperrors.IsType(err, apperrors.ErrorTypeUnknownMetric) {
		t.Errorf("Expected unknown_metric error, got %v", err)
	}
}

func TestComputeFocusMetric_EmptyFrame(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions())
	if _, err := a.ComputeFocusMetric(models.NewRaster(0, 0), models.VarianceOfIntensity); err == nil {
		t.Error("Expected error for empty frame")
	}
	if _, err := a.ComputeFocusMetric(nil, models.VarianceOfIntensity); err == nil {
		t.Error("Expected error for nil frame")
	}
}

func TestComputeFocusMetric_SharpBeatsBlurred(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions().WithBlurSigma(1))

	sharp := createStripedRaster(64, 64, 3)
	kitBlurred, err := a.ComputeFocusMetric(sharp, models.VarianceOfIntensityWithBlur)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, name := range []models.MetricName{models.VarianceOfIntensity, models.VarianceOfIntensityWithBlur} {
		sharpRes, err := a.ComputeFocusMetric(sharp, name)
		if err != nil {
			t.Fatalf("%s on sharp frame: %v", name, err)
		}
		blurRes, err := a.ComputeFocusMetric(kitBlurred.Image, name)
		if err != nil {
			t.Fatalf("%s on blurred frame: %v", name, err)
		}
		if sharpRes.Value <= blurRes.Value {
			t.Errorf("%s: expected sharp (%f) > blurred (%f)", name, sharpRes.Value, blurRes.Value)
		}
	}
}

func TestComputeFocusMetric_ImagePresence(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions())
	frame := createStripedRaster(16, 16, 2)

	res, err := a.ComputeFocusMetric(frame, models.VarianceOfIntensity)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Image != nil {
		t.Error("Expected no derived image for variance_of_intensity")
	}

	for _, name := range []models.MetricName{
		models.VarianceOfIntensityWithBlur,
		models.VarianceOfSobelMagnitude,
		models.VarianceOfLaplacian,
	} {
		res, err := a.ComputeFocusMetric(frame, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if res.Image == nil || !res.Image.SameShape(frame) {
			t.Errorf("%s: expected derived image with frame shape", name)
		}
	}
}

func TestMeasureStack_Order(t *testing.T) {
	stack := createTestStack(
		createStripedRaster(16, 16, 1),
		createStripedRaster(16, 16, 2),
		createStripedRaster(16, 16, 4),
	)
	metrics := []models.MetricName{models.VarianceOfLaplacian, models.VarianceOfIntensity}

	for _, workers := range []int{1, 3} {
		a := newTestAnalyzer(t, ParallelOptions(workers))
		results, err := a.MeasureStack(context.Background(), stack, metrics)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if len(results) != 6 {
			t.Fatalf("Expected 6 results, got %d", len(results))
		}
		for i, r := range results {
			wantMetric := metrics[i/3]
			wantFrame := i % 3
			if r.Metric != wantMetric || r.FrameNum != wantFrame || r.StackID != "stack_01" {
				t.Errorf("workers=%d result %d: got (%s, %d), want (%s, %d)",
					workers, i, r.Metric, r.FrameNum, wantMetric, wantFrame)
			}
		}
	}
}

func TestMeasureStack_Degenerate(t *testing.T) {
	stack := createTestStack(createStripedRaster(8, 8, 2), createTestRaster(8, 8, 0.3))
	metrics := []models.MetricName{models.VarianceOfSobelMagnitude}

	strict := newTestAnalyzer(t, DefaultOptions())
	_, err := strict.MeasureStack(context.Background(), stack, metrics)
	if !apperrors.IsType(err, apperrors.ErrorTypeDegenerateImage) {
		t.Errorf("Expected degenerate_image error, got %v", err)
	}

	tolerant := newTestAnalyzer(t, DefaultOptions().WithDegenerateTolerance())
	results, err := tolerant.MeasureStack(context.Background(), stack, metrics)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !results[1].Result.Degenerate || results[1].Result.Value != 0 {
		t.Errorf("Expected degenerate zero result for constant frame, got %+v", results[1].Result)
	}
}

func TestMeasureStack_Cancelled(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.MeasureStack(ctx, createTestStack(createTestRaster(4, 4, 0.1)), nil)
	if !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestMeasurements(t *testing.T) {
	results := []FrameResult{
		{StackID: "s", FrameNum: 2, Metric: models.VarianceOfLaplacian, Result: models.MetricResult{Value: 0.5}},
	}
	m := Measurements(results)
	if len(m) != 1 || m[0].FrameNum != 2 || m[0].MetricValue != 0.5 || m[0].MetricName != models.VarianceOfLaplacian {
		t.Errorf("Unexpected measurement: %+v", m)
	}
}
