package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineEvent represents one step of an evaluation run
type PipelineEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RunID          string                 `json:"run_id,omitempty"`
	StackID        string                 `json:"stack_id,omitempty"`
	Assessment     string                 `json:"assessment,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// StackLoaded when a stack is fetched and decoded
	StackLoaded EventType = "stack_loaded"
	// StackMeasured when every metric has been computed on every frame
	StackMeasured EventType = "stack_measured"
	// AssessmentLoaded when an assessment file is read
	AssessmentLoaded EventType = "assessment_loaded"
	// CurveBuilt when one ROC curve is complete
	CurveBuilt EventType = "curve_built"
	// SummaryCompleted when the median summary is ready
	SummaryCompleted EventType = "summary_completed"
	// StageFailed when any step returns an error
	StageFailed EventType = "stage_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.RunID != "" {
		fields["run_id"] = event.RunID
	}
	if event.StackID != "" {
		fields["stack_id"] = event.StackID
	}
	if event.Assessment != "" {
		fields["assessment"] = event.Assessment
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case StackLoaded:
		o.logger.WithFields(fields).Info("Stack loaded")
	case StackMeasured:
		o.logger.WithFields(fields).Info("Stack measured")
	case AssessmentLoaded:
		o.logger.WithFields(fields).Info("Assessment loaded")
	case CurveBuilt:
		o.logger.WithFields(fields).Debug("ROC curve built")
	case SummaryCompleted:
		o.logger.WithFields(fields).Info("Processing complete")
	case StageFailed:
		o.logger.WithFields(fields).Error("Pipeline stage failed")
	default:
		o.logger.WithFields(fields).Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	stacksLoaded        int64
	assessmentsLoaded   int64
	curvesBuilt         int64
	runsCompleted       int64
	failures            int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case StackLoaded:
		o.stacksLoaded++
	case AssessmentLoaded:
		o.assessmentsLoaded++
	case CurveBuilt:
		o.curvesBuilt++
	case SummaryCompleted:
		o.runsCompleted++
		o.totalProcessingTime += event.ProcessingTime
	case StageFailed:
		o.failures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.runsCompleted > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.runsCompleted)
	}

	return map[string]interface{}{
		"stacks_loaded":         o.stacksLoaded,
		"assessments_loaded":    o.assessmentsLoaded,
		"curves_built":          o.curvesBuilt,
		"runs_completed":        o.runsCompleted,
		"failures":              o.failures,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription order
// before returning, so a CLI run logs its events before it exits.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event PipelineEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
