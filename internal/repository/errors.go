package repository

import "errors"

var (
	// ErrInvalidStackURI indicates an unusable stack location
	ErrInvalidStackURI = errors.New("invalid stack URI")

	// ErrNoAssessments indicates the assessments directory has no CSV files
	ErrNoAssessments = errors.New("no assessment files found")

	// ErrEmptyStack indicates a stack decoded to zero frames
	ErrEmptyStack = errors.New("stack has no frames")
)
