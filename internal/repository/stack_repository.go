package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/storage"
	"go-focus-evaluator/pkg/models"
	"go-focus-evaluator/pkg/validation"
)

// FetcherProvider picks the fetcher for a stack URI
type FetcherProvider interface {
	FetcherFor(uri string) (storage.Fetcher, error)
}

// stackRepository implements StackRepository over the storage fetchers
type stackRepository struct {
	fetchers       FetcherProvider
	uriValidator   *validation.URIValidator
	stackValidator *validation.StackValidator
}

// NewStackRepository creates a stack repository
func NewStackRepository(fetchers FetcherProvider, uriValidator *validation.URIValidator, stackValidator *validation.StackValidator) StackRepository {
	return &stackRepository{
		fetchers:       fetchers,
		uriValidator:   uriValidator,
		stackValidator: stackValidator,
	}
}

func (r *stackRepository) ValidateStackURI(uri string) error {
	if err := r.uriValidator.ValidateStackURI(uri); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStackURI, err)
	}
	return nil
}

func (r *stackRepository) LoadStack(ctx context.Context, uri string, stackID string) (*models.Stack, *models.StackMetadata, error) {
	if err := r.ValidateStackURI(uri); err != nil {
		return nil, nil, err
	}

	logger.WithField("source", uri).Info("Processing TIF stack")

	var (
		stack *models.Stack
		meta  *models.StackMetadata
		err   error
	)
	if storage.Scheme(uri) == "file" && isDir(storage.LocalPath(uri)) {
		stack, meta, err = storage.LoadFrameDir(stackID, storage.LocalPath(uri))
	} else {
		stack, meta, err = r.fetchAndDecode(ctx, uri, stackID)
	}
	if err != nil {
		return nil, nil, err
	}

	if stack.Len() == 0 {
		return nil, nil, apperrors.NewValidationError(ErrEmptyStack.Error(), ErrEmptyStack)
	}
	if err := r.stackValidator.ValidateStack(stack); err != nil {
		return nil, nil, err
	}
	meta.Source = uri

	logger.WithFields(logrus.Fields{
		"stack_id": stack.ID,
		"frames":   stack.Len(),
		"width":    meta.Width,
		"height":   meta.Height,
	}).Info(fmt.Sprintf("Read TIF stack with %d frames", stack.Len()))

	return stack, meta, nil
}

func (r *stackRepository) DecodeUpload(ctx context.Context, name string, data []byte, stackID string) (*models.Stack, *models.StackMetadata, error) {
	stack, meta, err := storage.DecodeStack(stackID, &storage.Object{Name: name, Data: data})
	if err != nil {
		return nil, nil, err
	}
	if err := r.stackValidator.ValidateStack(stack); err != nil {
		return nil, nil, err
	}
	meta.Source = name
	return stack, meta, nil
}

func (r *stackRepository) fetchAndDecode(ctx context.Context, uri string, stackID string) (*models.Stack, *models.StackMetadata, error) {
	fetcher, err := r.fetchers.FetcherFor(uri)
	if err != nil {
		return nil, nil, err
	}
	obj, err := fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	return storage.DecodeStack(stackID, obj)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
