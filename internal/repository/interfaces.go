package repository

import (
	"context"

	"go-focus-evaluator/pkg/models"
)

// StackRepository defines the interface for loading image stacks
type StackRepository interface {
	// LoadStack fetches and decodes the stack at uri. An empty stackID is
	// derived from the source name.
	LoadStack(ctx context.Context, uri string, stackID string) (*models.Stack, *models.StackMetadata, error)

	// DecodeUpload decodes stack bytes received directly from a client
	DecodeUpload(ctx context.Context, name string, data []byte, stackID string) (*models.Stack, *models.StackMetadata, error)

	// ValidateStackURI validates if the provided URI is acceptable
	ValidateStackURI(uri string) error
}

// AssessmentRepository defines the interface for ground-truth files
type AssessmentRepository interface {
	// ListAssessments returns the assessment files in name order
	ListAssessments(ctx context.Context) ([]string, error)

	// LoadAssessment reads one assessment file
	LoadAssessment(ctx context.Context, path string) (*models.Assessment, error)
}

// ResultRepository defines the interface for pipeline outputs
type ResultRepository interface {
	// SaveMeasurements writes the measurement CSV
	SaveMeasurements(ctx context.Context, path string, measurements []models.Measurement) error

	// LoadMeasurements reads a measurement CSV written earlier
	LoadMeasurements(ctx context.Context, path string) ([]models.Measurement, error)

	// SaveDerivedImage stores the visualisation of one metric on one frame
	SaveDerivedImage(ctx context.Context, metric models.MetricName, stackID string, frame int, img *models.Raster) (string, error)

	// SaveSummary writes summary rows as name in the results directory
	SaveSummary(ctx context.Context, name string, rows []models.SummaryRow, perAssessment bool) (string, error)

	// ResultPath joins name onto the results directory, creating it
	ResultPath(name string) (string, error)
}
