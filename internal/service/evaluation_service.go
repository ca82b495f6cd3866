package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-focus-evaluator/internal/analyzer"
	"go-focus-evaluator/internal/annotation"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/observer"
	"go-focus-evaluator/internal/report"
	"go-focus-evaluator/internal/repository"
	"go-focus-evaluator/internal/summary"
	"go-focus-evaluator/pkg/models"
)

// Output file names inside the results directory.
const (
	SummaryFile           = "summary.csv"
	AssessmentSummaryFile = "assessment_summary.csv"
	ROCGridFile           = "roc_curves.svg"
	ROCReportFile         = "roc_curves.html"
)

// EvaluationService defines the offline measure and evaluate pipeline
type EvaluationService interface {
	// Measure scores every frame of a stack and writes the measurement CSV
	Measure(ctx context.Context, req MeasureRequest) (*MeasureResult, error)

	// Evaluate scores every assessment file against the stack and writes
	// the summaries and ROC plots
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluationResult, error)

	// CalcMedianTPR builds a table per assessment file with build, takes
	// the curve point nearest fprThreshold for every metric and modality,
	// then the median across files
	CalcMedianTPR(ctx context.Context, files []string, build TableBuilder, fprThreshold float64) (*EvaluationResult, error)
}

// TableBuilder turns one assessment into an annotation table.
type TableBuilder func(ctx context.Context, a *models.Assessment) (*models.AnnotationTable, error)

// MeasureRequest names the stack to measure and where to write.
type MeasureRequest struct {
	StackURI string
	StackID  string
	// Measurement CSV path; empty skips writing
	OutPath           string
	SaveDerivedImages bool
}

// MeasureResult is the outcome of Measure.
type MeasureResult struct {
	RunID            string
	StackID          string
	Metadata         *models.StackMetadata
	Measurements     []models.Measurement
	MeasurementsPath string
	DerivedImages    int
}

// EvaluateRequest names the evaluation inputs. When MeasurementsPath is
// set the stack is not read and scores come from that file instead.
type EvaluateRequest struct {
	StackURI         string
	StackID          string
	MeasurementsPath string
	// Skip the CSV and plot outputs
	DryRun bool
}

// EvaluationResult holds per-assessment rows, medians and curves.
type EvaluationResult struct {
	RunID         string
	StackID       string
	Assessments   []string
	PerAssessment []models.SummaryRow
	Summary       []models.SummaryRow
	Curves        []summary.Curve
	// Written files keyed by their name in the results directory
	Outputs map[string]string
}

type evaluationService struct {
	stackRepo      repository.StackRepository
	assessmentRepo repository.AssessmentRepository
	resultRepo     repository.ResultRepository
	engine         analyzer.FocusAnalyzer
	events         observer.Subject
	opts           Options
}

// NewEvaluationService creates the pipeline service
func NewEvaluationService(
	stackRepo repository.StackRepository,
	assessmentRepo repository.AssessmentRepository,
	resultRepo repository.ResultRepository,
	engine analyzer.FocusAnalyzer,
	events observer.Subject,
	opts Options,
) EvaluationService {
	if len(opts.Metrics) == 0 {
		opts.Metrics = engine.Metrics()
	}
	return &evaluationService{
		stackRepo:      stackRepo,
		assessmentRepo: assessmentRepo,
		resultRepo:     resultRepo,
		engine:         engine,
		events:         events,
		opts:           opts,
	}
}

func (s *evaluationService) Measure(ctx context.Context, req MeasureRequest) (*MeasureResult, error) {
	runID := uuid.NewString()
	start := time.Now()

	stack, meta, err := s.loadStack(ctx, runID, req.StackURI, s.stackID(req.StackID))
	if err != nil {
		return nil, err
	}

	results, err := s.engine.MeasureStack(ctx, stack, s.opts.Metrics)
	if err != nil {
		return nil, s.fail(ctx, runID, stack.ID, "", "measure", err)
	}
	s.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:      observer.StackMeasured,
		RunID:          runID,
		StackID:        stack.ID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"results": len(results), "kit": s.engine.KitName()},
	})

	res := &MeasureResult{
		RunID:        runID,
		StackID:      stack.ID,
		Metadata:     meta,
		Measurements: analyzer.Measurements(results),
	}

	if req.SaveDerivedImages || s.opts.SaveDerivedImages {
		for _, r := range results {
			path, err := s.resultRepo.SaveDerivedImage(ctx, r.Metric, r.StackID, r.FrameNum, r.Result.Image)
			if err != nil {
				return nil, s.fail(ctx, runID, stack.ID, "", "save derived image", err)
			}
			if path != "" {
				res.DerivedImages++
			}
		}
	}

	if req.OutPath != "" {
		if err := s.resultRepo.SaveMeasurements(ctx, req.OutPath, res.Measurements); err != nil {
			return nil, s.fail(ctx, runID, stack.ID, "", "save measurements", err)
		}
		res.MeasurementsPath = req.OutPath
	}

	logger.WithFields(logrus.Fields{
		"run_id":         runID,
		"stack_id":       stack.ID,
		"measurements":   len(res.Measurements),
		"derived_images": res.DerivedImages,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("Processing complete")
	return res, nil
}

func (s *evaluationService) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluationResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	ctx = withRunID(ctx, runID)

	files, err := s.assessmentRepo.ListAssessments(ctx)
	if err != nil {
		return nil, s.fail(ctx, runID, "", "", "list assessments", err)
	}

	var (
		build   TableBuilder
		stackID = s.stackID(req.StackID)
	)
	if req.MeasurementsPath != "" {
		measurements, err := s.resultRepo.LoadMeasurements(ctx, req.MeasurementsPath)
		if err != nil {
			return nil, s.fail(ctx, runID, stackID, "", "load measurements", err)
		}
		build = s.fromMeasurements(filterStack(measurements, stackID))
	} else {
		stack, _, err := s.loadStack(ctx, runID, req.StackURI, stackID)
		if err != nil {
			return nil, err
		}
		stackID = stack.ID
		build = s.fromStack(stack)
	}

	res, err := s.CalcMedianTPR(ctx, files, build, s.opts.Params.FPRThreshold)
	if err != nil {
		return nil, err
	}
	res.StackID = stackID

	if !req.DryRun {
		if err := s.writeOutputs(ctx, res); err != nil {
			return nil, s.fail(ctx, runID, stackID, "", "write outputs", err)
		}
	}

	s.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:      observer.SummaryCompleted,
		RunID:          runID,
		StackID:        stackID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"assessments":   len(res.Assessments),
			"summary_rows":  len(res.Summary),
			"fpr_threshold": s.opts.Params.FPRThreshold,
		},
	})
	return res, nil
}

func (s *evaluationService) CalcMedianTPR(ctx context.Context, files []string, build TableBuilder, fprThreshold float64) (*EvaluationResult, error) {
	runID := runIDFrom(ctx)
	params := s.opts.Params
	params.FPRThreshold = fprThreshold
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewValidationError("no assessment files", repository.ErrNoAssessments)
	}

	evals := make([]*summary.Evaluation, len(files))
	ids := make([]string, len(files))
	err := analyzer.RunIndexed(s.opts.Workers, len(files), func(i int) error {
		a, err := s.assessmentRepo.LoadAssessment(ctx, files[i])
		if err != nil {
			return err
		}
		ids[i] = a.ID
		s.events.NotifyObservers(ctx, observer.PipelineEvent{
			EventType:  observer.AssessmentLoaded,
			RunID:      runID,
			Assessment: a.ID,
			Success:    true,
			Metadata:   map[string]interface{}{"rows": len(a.Rows)},
		})

		table, err := build(ctx, a)
		if err != nil {
			return fmt.Errorf("assessment %s: %w", a.ID, err)
		}
		eval, err := summary.EvaluateAssessment(a.ID, table, s.opts.Metrics, params)
		if err != nil {
			return err
		}
		for _, c := range eval.Curves {
			s.events.NotifyObservers(ctx, observer.PipelineEvent{
				EventType:  observer.CurveBuilt,
				RunID:      runID,
				Assessment: c.Assessment,
				Success:    true,
				Metadata: map[string]interface{}{
					"metric":   c.Metric,
					"modality": c.Modality,
					"auc":      c.Points.AUC(),
				},
			})
		}
		evals[i] = eval
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, runID, "", "", "evaluate assessments", err)
	}

	res := &EvaluationResult{RunID: runID, Assessments: ids, Outputs: make(map[string]string)}
	for _, eval := range evals {
		res.PerAssessment = append(res.PerAssessment, eval.Rows...)
		res.Curves = append(res.Curves, eval.Curves...)
	}
	res.Summary = summary.Aggregate(res.PerAssessment)
	return res, nil
}

// fromStack scores annotated frames directly from the stack.
func (s *evaluationService) fromStack(stack *models.Stack) TableBuilder {
	loader := annotation.NewLoader(s.engine, s.opts.DegeneratePolicy)
	return func(ctx context.Context, a *models.Assessment) (*models.AnnotationTable, error) {
		return loader.LoadAnnotationsAndCalcMetrics(ctx, stack, a.Rows, s.opts.Metrics)
	}
}

// fromMeasurements joins annotations with previously written scores.
func (s *evaluationService) fromMeasurements(measurements []models.Measurement) TableBuilder {
	return func(ctx context.Context, a *models.Assessment) (*models.AnnotationTable, error) {
		return annotation.JoinMeasurements(a.Rows, measurements, s.opts.Metrics)
	}
}

func (s *evaluationService) writeOutputs(ctx context.Context, res *EvaluationResult) error {
	path, err := s.resultRepo.SaveSummary(ctx, AssessmentSummaryFile, res.PerAssessment, true)
	if err != nil {
		return err
	}
	res.Outputs[AssessmentSummaryFile] = path

	if path, err = s.resultRepo.SaveSummary(ctx, SummaryFile, res.Summary, false); err != nil {
		return err
	}
	res.Outputs[SummaryFile] = path

	if err := s.writeResult(res, ROCGridFile, func(w io.Writer) error {
		return report.WriteROCGrid(w, res.Curves)
	}); err != nil {
		return err
	}
	return s.writeResult(res, ROCReportFile, func(w io.Writer) error {
		return report.WriteROCHTML(w, res.Curves, res.Summary)
	})
}

func (s *evaluationService) writeResult(res *EvaluationResult, name string, fn func(io.Writer) error) error {
	path, err := s.resultRepo.ResultPath(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to create %s", path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to write %s", path), err)
	}
	res.Outputs[name] = path
	return nil
}

func (s *evaluationService) loadStack(ctx context.Context, runID, uri, stackID string) (*models.Stack, *models.StackMetadata, error) {
	start := time.Now()
	stack, meta, err := s.stackRepo.LoadStack(ctx, uri, stackID)
	if err != nil {
		return nil, nil, s.fail(ctx, runID, stackID, "", "load stack", err)
	}
	s.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:      observer.StackLoaded,
		RunID:          runID,
		StackID:        stack.ID,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"frames": stack.Len(),
			"source": meta.Source,
			"format": meta.Format,
		},
	})
	return stack, meta, nil
}

func (s *evaluationService) stackID(requested string) string {
	if requested != "" {
		return requested
	}
	return s.opts.StackID
}

// fail publishes a StageFailed event and returns err unchanged.
func (s *evaluationService) fail(ctx context.Context, runID, stackID, assessment, stage string, err error) error {
	s.events.NotifyObservers(ctx, observer.PipelineEvent{
		EventType:    observer.StageFailed,
		RunID:        runID,
		StackID:      stackID,
		Assessment:   assessment,
		ErrorMessage: err.Error(),
		Metadata:     map[string]interface{}{"stage": stage},
	})
	return err
}

// filterStack keeps measurements of stackID; rows without a stack id always
// match, as does everything when stackID is empty.
func filterStack(measurements []models.Measurement, stackID string) []models.Measurement {
	if stackID == "" {
		return measurements
	}
	out := make([]models.Measurement, 0, len(measurements))
	for _, m := range measurements {
		if m.StackID == "" || m.StackID == stackID {
			out = append(out, m)
		}
	}
	return out
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// runIDFrom returns the run id stored by Evaluate or a fresh one for
// direct CalcMedianTPR calls.
func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return uuid.NewString()
}
