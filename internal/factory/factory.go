package factory

import (
	"fmt"
	"sync"

	"go-focus-evaluator/internal/analyzer"
	"go-focus-evaluator/internal/config"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/filters"
	"go-focus-evaluator/internal/storage"
	"go-focus-evaluator/pkg/models"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for http and https URLs
	HTTPStorage StorageType = "http"
	// AzureStorage for az://container/blob URIs
	AzureStorage StorageType = "azure"
	// LocalStorage for local files
	LocalStorage StorageType = "local"
)

// StorageTypeFor maps a URI scheme to its storage backend
func StorageTypeFor(uri string) (StorageType, error) {
	switch scheme := storage.Scheme(uri); scheme {
	case "file":
		return LocalStorage, nil
	case "http", "https":
		return HTTPStorage, nil
	case "az":
		return AzureStorage, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported storage scheme: %s", scheme), nil)
	}
}

// AnalyzerFactory creates focus analyzers
type AnalyzerFactory interface {
	CreateAnalyzer() (analyzer.FocusAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.Fetcher, error)
	// FetcherFor picks the backend from the URI scheme
	FetcherFor(uri string) (storage.Fetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// AnalysisOptions maps configuration onto analyzer options
func AnalysisOptions(cfg *config.Config) (analyzer.AnalysisOptions, error) {
	metrics, err := models.ParseMetricNames(cfg.Metrics)
	if err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	opts := analyzer.DefaultOptions().
		WithKit(cfg.FilterKit).
		WithBlurSigma(cfg.BlurSigma).
		WithWorkers(cfg.Workers)
	if len(metrics) > 0 {
		opts = opts.WithMetrics(metrics...)
	}
	if cfg.DegeneratePolicy == config.DegeneratePolicyZero {
		opts = opts.WithDegenerateTolerance()
	}
	return opts, nil
}

// CreateAnalyzer creates an analyzer backed by the configured filter kit
func (f *analyzerFactory) CreateAnalyzer() (analyzer.FocusAnalyzer, error) {
	options, err := AnalysisOptions(f.cfg)
	if err != nil {
		return nil, err
	}
	kit, err := filters.New(options.FilterKit)
	if err != nil {
		return nil, err
	}
	return analyzer.NewFocusAnalyzerWithKit(kit, options)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg   *config.Config
	local storage.Fetcher
	http  *storage.HTTPFetcher

	azureOnce sync.Once
	azure     *storage.AzureFetcher
	azureErr  error
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{
		cfg:   cfg,
		local: storage.NewLocalFetcher(),
		http:  storage.NewHTTPFetcher(cfg.StackFetchTimeout),
	}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.Fetcher, error) {
	switch storageType {
	case HTTPStorage:
		return f.http, nil
	case AzureStorage:
		f.azureOnce.Do(func() {
			f.azure, f.azureErr = f.newAzure()
		})
		if f.azureErr != nil {
			return nil, f.azureErr
		}
		return f.azure, nil
	case LocalStorage:
		return f.local, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) FetcherFor(uri string) (storage.Fetcher, error) {
	storageType, err := StorageTypeFor(uri)
	if err != nil {
		return nil, err
	}
	return f.CreateStorage(storageType)
}

func (f *storageFactory) newAzure() (*storage.AzureFetcher, error) {
	switch {
	case f.cfg.AzureConnectionString != "":
		return storage.NewAzureFetcherFromConnectionString(f.cfg.AzureConnectionString)
	case f.cfg.AzureAccountName != "" && f.cfg.AzureAccountKey != "":
		return storage.NewAzureFetcher(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
	default:
		return nil, apperrors.NewValidationError(
			"azure storage requires azure_connection_string or azure_account_name with azure_account_key", nil)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
