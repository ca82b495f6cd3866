package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-focus-evaluator/internal/config"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/storage"
	"go-focus-evaluator/pkg/models"
)

func TestStorageTypeFor(t *testing.T) {
	tests := []struct {
		uri  string
		want StorageType
	}{
		{"./data/stack.tif", LocalStorage},
		{"file:///data/stack.tif", LocalStorage},
		{"http://host/stack.tif", HTTPStorage},
		{"https://host/stack.tif", HTTPStorage},
		{"az://plates/p1.tif", AzureStorage},
	}
	for _, tt := range tests {
		got, err := StorageTypeFor(tt.uri)
		require.NoError(t, err, tt.uri)
		if got != tt.want {
			t.Errorf("StorageTypeFor(%q) = %s, want %s", tt.uri, got, tt.want)
		}
	}

	_, err := StorageTypeFor("ftp://host/stack.tif")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestStorageFactory(t *testing.T) {
	f := NewStorageFactory(config.Default())

	local, err := f.FetcherFor("./stack.tif")
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalFetcher{}, local)

	remote, err := f.FetcherFor("https://host/stack.tif")
	require.NoError(t, err)
	assert.IsType(t, &storage.HTTPFetcher{}, remote)

	// no Azure credentials configured
	_, err = f.FetcherFor("az://plates/p1.tif")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	_, err = f.CreateStorage(AzureStorage)
	assert.Error(t, err)

	_, err = f.CreateStorage("s3")
	assert.Error(t, err)
}

func TestStorageFactory_AzureSharedKey(t *testing.T) {
	cfg := config.Default()
	cfg.AzureAccountName = "focusdata"
	cfg.AzureAccountKey = "c2VjcmV0"

	fetcher, err := NewStorageFactory(cfg).CreateStorage(AzureStorage)
	require.NoError(t, err)
	assert.IsType(t, &storage.AzureFetcher{}, fetcher)
}

func TestAnalyzerFactory(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics = []string{"variance_of_laplacian"}
	cfg.DegeneratePolicy = config.DegeneratePolicyZero

	opts, err := AnalysisOptions(cfg)
	require.NoError(t, err)
	assert.True(t, opts.TolerateDegenerate)
	assert.Equal(t, []models.MetricName{models.VarianceOfLaplacian}, opts.Metrics)

	a, err := NewComponentFactory(cfg).AnalyzerFactory.CreateAnalyzer()
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, "native", a.KitName())
	assert.Equal(t, []models.MetricName{models.VarianceOfLaplacian}, a.Metrics())

	cfg.Metrics = []string{"brenner"}
	_, err = NewAnalyzerFactory(cfg).CreateAnalyzer()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownMetric))

	cfg.Metrics = nil
	cfg.FilterKit = "missing"
	_, err = NewAnalyzerFactory(cfg).CreateAnalyzer()
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
