package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-focus-evaluator/internal/analyzer"
	"go-focus-evaluator/internal/annotation"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/observer"
	"go-focus-evaluator/internal/repository"
	"go-focus-evaluator/internal/storage"
	"go-focus-evaluator/internal/summary"
	"go-focus-evaluator/pkg/models"
	"go-focus-evaluator/pkg/validation"
)

type localProvider struct{}

func (localProvider) FetcherFor(uri string) (storage.Fetcher, error) {
	return storage.NewLocalFetcher(), nil
}

type fixture struct {
	root     string
	stackDir string
	metrics  *observer.MetricsObserver
	service  EvaluationService
}

// noisy draws a seeded random frame whose contrast sets its focus scores.
func noisy(seed int64, amp int) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(100 + rng.Intn(amp))
	}
	return img
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()

	stackDir := filepath.Join(root, "plate1")
	require.NoError(t, os.MkdirAll(stackDir, 0o755))
	for i, amp := range []int{150, 20, 90, 60, 120, 40} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, noisy(int64(i+1), amp)))
		require.NoError(t, os.WriteFile(filepath.Join(stackDir, fmt.Sprintf("frame_%02d.png", i)), buf.Bytes(), 0o644))
	}

	assessDir := filepath.Join(root, "assessments")
	require.NoError(t, os.MkdirAll(assessDir, 0o755))
	for name, labels := range map[string]string{
		"focus_results_alice.csv": "True\nFalse\nTrue\nFalse\nTrue\nFalse\n",
		"focus_results_bob.csv":   "False\nTrue\nTrue\nTrue\nFalse\nFalse\n",
		"focus_results_carol.csv": "True\nTrue\nFalse\nFalse\nFalse\nTrue\n",
	} {
		body := "frame,InFocus\n"
		for i, l := range strings.Fields(labels) {
			body += fmt.Sprintf("%d,%s\n", i, l)
		}
		require.NoError(t, os.WriteFile(filepath.Join(assessDir, name), []byte(body), 0o644))
	}

	engine, err := analyzer.NewFocusAnalyzer(analyzer.DefaultOptions())
	require.NoError(t, err)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	svc := NewEvaluationService(
		repository.NewStackRepository(localProvider{}, validation.NewURIValidator(), validation.NewStackValidator()),
		repository.NewFileAssessmentRepository(assessDir),
		repository.NewFileResultRepository(filepath.Join(root, "processed"), filepath.Join(root, "results")),
		engine,
		events,
		opts,
	)
	return &fixture{root: root, stackDir: stackDir, metrics: metrics, service: svc}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Params = summary.Params{Boundary: 3, FPRThreshold: 0.05}
	return opts
}

func TestMeasure(t *testing.T) {
	f := newFixture(t, testOptions())
	out := filepath.Join(f.root, "measurements", "focus_measures.csv")

	res, err := f.service.Measure(context.Background(), MeasureRequest{
		StackURI:          f.stackDir,
		OutPath:           out,
		SaveDerivedImages: true,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "plate1", res.StackID)
	assert.Len(t, res.Measurements, 6*len(models.AllMetrics()))
	assert.Equal(t, out, res.MeasurementsPath)
	assert.FileExists(t, out)

	// metric-major, frames ascending
	assert.Equal(t, models.AllMetrics()[0], res.Measurements[0].MetricName)
	assert.Equal(t, uint32(5), res.Measurements[5].FrameNum)
	assert.Equal(t, models.AllMetrics()[1], res.Measurements[6].MetricName)

	// raw intensity variance has no derived image
	assert.Equal(t, 6*(len(models.AllMetrics())-1), res.DerivedImages)
	assert.FileExists(t, storage.DerivedImagePath(filepath.Join(f.root, "processed"), models.VarianceOfLaplacian, "plate1", 5))
	assert.NoFileExists(t, storage.DerivedImagePath(filepath.Join(f.root, "processed"), models.VarianceOfIntensity, "plate1", 0))

	assert.Equal(t, int64(1), f.metrics.GetMetrics()["stacks_loaded"])
}

func TestEvaluate_FromStack(t *testing.T) {
	f := newFixture(t, testOptions())

	res, err := f.service.Evaluate(context.Background(), EvaluateRequest{StackURI: f.stackDir})
	require.NoError(t, err)

	nMetrics := len(models.AllMetrics())
	assert.Equal(t, []string{"alice", "bob", "carol"}, res.Assessments)
	assert.Len(t, res.PerAssessment, 3*nMetrics*2)
	assert.Len(t, res.Curves, 3*nMetrics*2)
	assert.Len(t, res.Summary, nMetrics*2)
	assert.Equal(t, summary.Aggregate(res.PerAssessment), res.Summary)

	for _, row := range res.Summary {
		assert.Empty(t, row.Assessment)
	}
	for _, c := range res.Curves {
		require.Len(t, c.Points, 4, "3 frames per modality")
		assert.Equal(t, 0.0, c.Points[0].FPR)
		assert.Equal(t, 1.0, c.Points[3].TPR)
	}

	for _, name := range []string{SummaryFile, AssessmentSummaryFile, ROCGridFile, ROCReportFile} {
		require.Contains(t, res.Outputs, name)
		assert.FileExists(t, res.Outputs[name])
	}
	data, err := os.ReadFile(res.Outputs[SummaryFile])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "modality,metric,fpr,tpr\nBrightfield,"))

	got := f.metrics.GetMetrics()
	assert.Equal(t, int64(3), got["assessments_loaded"])
	assert.Equal(t, int64(3*nMetrics*2), got["curves_built"])
	assert.Equal(t, int64(1), got["runs_completed"])
}

func TestEvaluate_MeasurementsMatchStack(t *testing.T) {
	opts := testOptions()
	opts.Workers = 3
	f := newFixture(t, opts)
	ctx := context.Background()

	out := filepath.Join(f.root, "focus_measures.csv")
	_, err := f.service.Measure(ctx, MeasureRequest{StackURI: f.stackDir, OutPath: out})
	require.NoError(t, err)

	fromCSV, err := f.service.Evaluate(ctx, EvaluateRequest{MeasurementsPath: out, DryRun: true})
	require.NoError(t, err)
	fromStack, err := f.service.Evaluate(ctx, EvaluateRequest{StackURI: f.stackDir, DryRun: true})
	require.NoError(t, err)

	// CSV round trip keeps every digit, so both paths agree exactly
	if diff := cmp.Diff(fromStack.PerAssessment, fromCSV.PerAssessment, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("per-assessment mismatch (-stack +csv):\n%s", diff)
	}
	assert.Empty(t, fromCSV.Outputs)
}

func TestEvaluate_NoAssessments(t *testing.T) {
	f := newFixture(t, testOptions())
	require.NoError(t, os.RemoveAll(filepath.Join(f.root, "assessments")))

	_, err := f.service.Evaluate(context.Background(), EvaluateRequest{StackURI: f.stackDir})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, int64(1), f.metrics.GetMetrics()["failures"])
}

func TestEvaluate_EmptyClass(t *testing.T) {
	f := newFixture(t, testOptions())
	path := filepath.Join(f.root, "assessments", "focus_results_zed.csv")
	require.NoError(t, os.WriteFile(path, []byte("InFocus\nTrue\nTrue\nTrue\nFalse\nTrue\nFalse\n"), 0o644))

	_, err := f.service.Evaluate(context.Background(), EvaluateRequest{StackURI: f.stackDir, DryRun: true})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmptyClass), "got %v", err)
}

func TestCalcMedianTPR(t *testing.T) {
	f := newFixture(t, testOptions())
	files, err := repository.NewFileAssessmentRepository(filepath.Join(f.root, "assessments")).ListAssessments(context.Background())
	require.NoError(t, err)

	// value = frame number, so sorting keeps file order
	build := func(ctx context.Context, a *models.Assessment) (*models.AnnotationTable, error) {
		var ms []models.Measurement
		for i := range a.Rows {
			ms = append(ms, models.Measurement{FrameNum: uint32(i), MetricName: models.VarianceOfIntensity, MetricValue: float64(i)})
		}
		return annotation.JoinMeasurements(a.Rows, ms, []models.MetricName{models.VarianceOfIntensity})
	}

	opts := testOptions()
	opts.Metrics = []models.MetricName{models.VarianceOfIntensity}
	svc := f.service.(*evaluationService)
	svc.opts = opts

	res, err := svc.CalcMedianTPR(context.Background(), files, build, 0.5)
	require.NoError(t, err)
	require.Len(t, res.Summary, 2)
	assert.Equal(t, models.Brightfield, res.Summary[0].Modality)
	assert.Equal(t, models.DIC, res.Summary[1].Modality)

	_, err = svc.CalcMedianTPR(context.Background(), files, build, 1.5)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = svc.CalcMedianTPR(context.Background(), nil, build, 0.05)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestFilterStack(t *testing.T) {
	ms := []models.Measurement{{StackID: "a"}, {StackID: "b"}, {}}
	assert.Len(t, filterStack(ms, ""), 3)
	assert.Equal(t, []models.Measurement{{StackID: "a"}, {}}, filterStack(ms, "a"))
}
