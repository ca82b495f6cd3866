package service

import (
	"context"
	"fmt"
	"time"

	"go-focus-evaluator/internal/analyzer"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/repository"
	"go-focus-evaluator/internal/roc"
	"go-focus-evaluator/pkg/models"
)

// StackService defines the on-demand operations behind the HTTP API
type StackService interface {
	// AnalyzeStack fetches the stack at req.URL and scores every frame
	AnalyzeStack(ctx context.Context, req models.FocusMetricsRequest) (*models.FocusMetricsResponse, error)

	// AnalyzeUpload scores a stack received as bytes
	AnalyzeUpload(ctx context.Context, name string, data []byte, metrics []string) (*models.FocusMetricsResponse, error)

	// BuildROC sorts labels by value and returns the curve, the point
	// nearest the FPR threshold and the area under the curve
	BuildROC(req models.ROCRequest) (*models.ROCResponse, error)

	// ValidateStackURI validates the stack location
	ValidateStackURI(uri string) error
}

type stackService struct {
	stackRepo    repository.StackRepository
	engine       analyzer.FocusAnalyzer
	fprThreshold float64
}

// NewStackService creates the HTTP-facing service
func NewStackService(stackRepo repository.StackRepository, engine analyzer.FocusAnalyzer, fprThreshold float64) StackService {
	return &stackService{
		stackRepo:    stackRepo,
		engine:       engine,
		fprThreshold: fprThreshold,
	}
}

func (s *stackService) ValidateStackURI(uri string) error {
	return s.stackRepo.ValidateStackURI(uri)
}

func (s *stackService) AnalyzeStack(ctx context.Context, req models.FocusMetricsRequest) (*models.FocusMetricsResponse, error) {
	metrics, err := s.metrics(req.Metrics)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stack, meta, err := s.stackRepo.LoadStack(ctx, req.URL, "")
	if err != nil {
		return nil, err
	}
	return s.score(ctx, stack, meta, metrics, start)
}

func (s *stackService) AnalyzeUpload(ctx context.Context, name string, data []byte, metrics []string) (*models.FocusMetricsResponse, error) {
	names, err := s.metrics(metrics)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stack, meta, err := s.stackRepo.DecodeUpload(ctx, name, data, "")
	if err != nil {
		return nil, err
	}
	return s.score(ctx, stack, meta, names, start)
}

func (s *stackService) score(ctx context.Context, stack *models.Stack, meta *models.StackMetadata, metrics []models.MetricName, start time.Time) (*models.FocusMetricsResponse, error) {
	results, err := s.engine.MeasureStack(ctx, stack, metrics)
	if err != nil {
		return nil, err
	}

	frames := make([]models.FrameScores, stack.Len())
	for i, f := range stack.Frames {
		frames[i] = models.FrameScores{FrameNum: f.Num, Values: make(map[models.MetricName]float64, len(metrics))}
	}
	n := stack.Len()
	for i, r := range results {
		fs := &frames[i%n]
		fs.Values[r.Metric] = r.Result.Value
		if r.Result.Degenerate {
			fs.Degenerate = append(fs.Degenerate, r.Metric)
		}
	}

	return &models.FocusMetricsResponse{
		StackID:           stack.ID,
		Source:            meta.Source,
		Timestamp:         time.Now().Format("2006-01-02T15:04:05Z07:00"),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Metrics:           metrics,
		Frames:            frames,
	}, nil
}

func (s *stackService) metrics(names []string) ([]models.MetricName, error) {
	if len(names) == 0 {
		return s.engine.Metrics(), nil
	}
	return models.ParseMetricNames(names)
}

func (s *stackService) BuildROC(req models.ROCRequest) (*models.ROCResponse, error) {
	if len(req.Labels) != len(req.Values) {
		return nil, apperrors.NewShapeMismatchError(
			fmt.Sprintf("%d labels but %d values", len(req.Labels), len(req.Values)), nil)
	}
	threshold := s.fprThreshold
	if req.FPRThreshold != nil {
		threshold = *req.FPRThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("fpr_threshold must be within [0, 1] (got %g)", threshold), nil)
	}

	curve, err := roc.CalcROC(models.SortLabels(req.Labels, req.Values))
	if err != nil {
		return nil, err
	}
	idx, nearest := curve.NearestFPR(threshold)

	return &models.ROCResponse{
		Points:       curve.Models(),
		FPRThreshold: threshold,
		Nearest:      models.ROCPoint{FPR: nearest.FPR, TPR: nearest.TPR},
		NearestIndex: idx,
		AUC:          curve.AUC(),
	}, nil
}
