package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	apperrors "go-focus-evaluator/internal/errors"
)

// Object is the raw content of a fetched stack or frame file.
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Fetcher retrieves raw stack bytes from one kind of location.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (*Object, error)
}

// Scheme returns the lower-cased URI scheme, or "file" for plain paths.
func Scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) <= 1 {
		// Windows drive letters parse as one-letter schemes
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// LocalPath strips a file:// prefix.
func LocalPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}

// LocalFetcher reads files from the local filesystem.
type LocalFetcher struct{}

// NewLocalFetcher creates a local file fetcher
func NewLocalFetcher() Fetcher {
	return &LocalFetcher{}
}

func (l *LocalFetcher) Fetch(ctx context.Context, uri string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("fetch cancelled", err)
	}
	path := LocalPath(uri)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("stack file %s not found", path), err)
		}
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to read %s", path), err)
	}
	return &Object{Name: filepath.Base(path), Data: data}, nil
}
