package container

import (
	"fmt"
	"net/http"

	"go-focus-evaluator/internal/analyzer"
	"go-focus-evaluator/internal/config"
	"go-focus-evaluator/internal/factory"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/observer"
	"go-focus-evaluator/internal/repository"
	"go-focus-evaluator/internal/service"
	"go-focus-evaluator/internal/transport"
	"go-focus-evaluator/pkg/validation"
)

// remoteSchemes are the stack sources the HTTP API may read. Local paths
// are reserved for the CLI.
var remoteSchemes = []string{"http", "https", "az"}

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	focusAnalyzer     analyzer.FocusAnalyzer
	metrics           *observer.MetricsObserver
	evaluationService service.EvaluationService
	stackService      service.StackService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	components := factory.NewComponentFactory(cfg)
	focusAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid evaluation options: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	stackValidator := validation.NewStackValidator()
	stackRepo := repository.NewStackRepository(components.StorageFactory, validation.NewURIValidator(), stackValidator)
	remoteStackRepo := repository.NewStackRepository(
		components.StorageFactory,
		validation.NewURIValidatorWithOptions(remoteSchemes, nil),
		stackValidator,
	)

	evaluationService := service.NewEvaluationService(
		stackRepo,
		repository.NewFileAssessmentRepository(cfg.AssessmentsDir),
		repository.NewFileResultRepository(cfg.ProcessedImagesDir, cfg.ResultsDir),
		focusAnalyzer,
		events,
		opts,
	)
	stackService := service.NewStackService(remoteStackRepo, focusAnalyzer, cfg.FPRThreshold)

	return &Container{
		config:            cfg,
		focusAnalyzer:     focusAnalyzer,
		metrics:           metrics,
		evaluationService: evaluationService,
		stackService:      stackService,
		handler:           transport.NewHandler(stackService, cfg),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// EvaluationService returns the measure and evaluate pipeline
func (c *Container) EvaluationService() service.EvaluationService {
	return c.evaluationService
}

// StackService returns the on-demand scoring service
func (c *Container) StackService() service.StackService {
	return c.stackService
}

// Metrics returns the pipeline counters collected so far
func (c *Container) Metrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}

// Close releases the analyzer
func (c *Container) Close() error {
	return c.focusAnalyzer.Close()
}
