package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when neither -config nor FOCUSEVAL_CONFIG is set.
const DefaultConfigPath = "focuseval.yaml"

const envPrefix = "FOCUSEVAL_"

// DefaultMeasurementsPath is where measure writes when measurements_path is
// unset. evaluate only reads measurements when the path is set.
const DefaultMeasurementsPath = "./analysis/measurements/focus_measures.csv"

// Degenerate image policies for the annotation loader.
const (
	DegeneratePolicyFail = "fail"
	DegeneratePolicyZero = "zero"
)

type Config struct {
	// Inputs
	StackPath        string `yaml:"stack_path"`
	StackID          string `yaml:"stack_id"`
	AssessmentsDir   string `yaml:"assessments_dir"`
	MeasurementsPath string `yaml:"measurements_path"`

	// Outputs
	ProcessedImagesDir string `yaml:"processed_images_dir"`
	ResultsDir         string `yaml:"results_dir"`
	SaveDerivedImages  bool   `yaml:"save_derived_images"`

	// Evaluation
	Metrics          []string `yaml:"metrics"`
	FilterKit        string   `yaml:"filter_kit"`
	BlurSigma        float64  `yaml:"blur_sigma"`
	BoundaryIndex    int      `yaml:"boundary_index"`
	FPRThreshold     float64  `yaml:"fpr_threshold"`
	DegeneratePolicy string   `yaml:"degenerate_policy"`
	Workers          int      `yaml:"workers"`

	// Logging
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// HTTP server
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	StackFetchTimeout  time.Duration `yaml:"stack_fetch_timeout"`
	AnalysisTimeout    time.Duration `yaml:"analysis_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`

	// Azure Blob Storage
	AzureAccountName      string `yaml:"azure_account_name"`
	AzureAccountKey       string `yaml:"azure_account_key"`
	AzureConnectionString string `yaml:"azure_connection_string"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		StackPath:          "./data/stack.tif",
		AssessmentsDir:     "./data/assessments",
		ProcessedImagesDir: "./analysis/processed_images",
		ResultsDir:         "./analysis/results",
		Metrics: []string{
			"variance_of_intensity",
			"variance_of_intensity_with_blur",
			"variance_of_sobel_magnitude",
			"variance_of_laplacian",
		},
		FilterKit:          "native",
		BlurSigma:          1.0,
		BoundaryIndex:      90,
		FPRThreshold:       0.05,
		DegeneratePolicy:   DegeneratePolicyFail,
		Workers:            1,
		LogFile:            "focus-filter.log",
		LogLevel:           "info",
		Host:               "0.0.0.0",
		Port:               "8080",
		RequestTimeout:     30 * time.Second,
		StackFetchTimeout:  15 * time.Second,
		AnalysisTimeout:    120 * time.Second,
		MaxRequestBodySize: 64 * 1024 * 1024, // 64MB
	}
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ResolvePath picks the config file path: explicit flag, then
// FOCUSEVAL_CONFIG, then DefaultConfigPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return getEnvOrDefault(envPrefix+"CONFIG", DefaultConfigPath)
}

// Load builds the configuration from defaults, the YAML file at path and
// FOCUSEVAL_* environment variables, then validates it. A missing file is
// only an error when the path was given explicitly.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv returns defaults overlaid with environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("", false)
}

func applyEnv(cfg *Config) error {
	envOverride(&cfg.StackPath, "STACK_PATH")
	envOverride(&cfg.StackID, "STACK_ID")
	envOverride(&cfg.AssessmentsDir, "ASSESSMENTS_DIR")
	envOverride(&cfg.MeasurementsPath, "MEASUREMENTS_PATH")
	envOverride(&cfg.ProcessedImagesDir, "PROCESSED_IMAGES_DIR")
	envOverride(&cfg.ResultsDir, "RESULTS_DIR")
	envOverride(&cfg.FilterKit, "FILTER_KIT")
	envOverride(&cfg.DegeneratePolicy, "DEGENERATE_POLICY")
	envOverride(&cfg.LogFile, "LOG_FILE")
	envOverride(&cfg.LogLevel, "LOG_LEVEL")
	envOverride(&cfg.Host, "HOST")
	envOverride(&cfg.Port, "PORT")
	envOverride(&cfg.AzureAccountName, "AZURE_ACCOUNT_NAME")
	envOverride(&cfg.AzureAccountKey, "AZURE_ACCOUNT_KEY")
	envOverride(&cfg.AzureConnectionString, "AZURE_CONNECTION_STRING")

	if names := os.Getenv(envPrefix + "METRICS"); names != "" {
		cfg.Metrics = nil
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.Metrics = append(cfg.Metrics, name)
			}
		}
	}

	var errs []error
	errs = append(errs,
		envOverrideBool(&cfg.SaveDerivedImages, "SAVE_DERIVED_IMAGES"),
		envOverrideFloat(&cfg.BlurSigma, "BLUR_SIGMA"),
		envOverrideInt(&cfg.BoundaryIndex, "BOUNDARY_INDEX"),
		envOverrideFloat(&cfg.FPRThreshold, "FPR_THRESHOLD"),
		envOverrideInt(&cfg.Workers, "WORKERS"),
		envOverrideDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT"),
		envOverrideDuration(&cfg.StackFetchTimeout, "STACK_FETCH_TIMEOUT"),
		envOverrideDuration(&cfg.AnalysisTimeout, "ANALYSIS_TIMEOUT"),
		envOverrideInt64(&cfg.MaxRequestBodySize, "MAX_REQUEST_BODY_SIZE"),
	)
	return errors.Join(errs...)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("max_request_body_size must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.StackFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.StackFetchTimeout, c.AnalysisTimeout)
	}
	if c.BoundaryIndex < 0 {
		return fmt.Errorf("boundary_index must be >= 0 (got %d)", c.BoundaryIndex)
	}
	if c.FPRThreshold < 0 || c.FPRThreshold > 1 {
		return fmt.Errorf("fpr_threshold must be within [0, 1] (got %g)", c.FPRThreshold)
	}
	if c.BlurSigma <= 0 {
		return fmt.Errorf("blur_sigma must be > 0 (got %g)", c.BlurSigma)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", c.Workers)
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("at least one metric must be configured")
	}
	switch c.DegeneratePolicy {
	case DegeneratePolicyFail, DegeneratePolicyZero:
	default:
		return fmt.Errorf("degenerate_policy must be %q or %q (got %q)",
			DegeneratePolicyFail, DegeneratePolicyZero, c.DegeneratePolicy)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envOverride(field *string, key string) {
	*field = getEnvOrDefault(envPrefix+key, *field)
}

func envOverrideInt(field *int, key string) error {
	if value := os.Getenv(envPrefix + key); value != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, value, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideInt64(field *int64, key string) error {
	if value := os.Getenv(envPrefix + key); value != "" {
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, value, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, key string) error {
	if value := os.Getenv(envPrefix + key); value != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, value, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, key string) error {
	if value := os.Getenv(envPrefix + key); value != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, value, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideDuration(field *time.Duration, key string) error {
	if value := os.Getenv(envPrefix + key); value != "" {
		duration, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, key, value, err)
		}
		*field = duration
	}
	return nil
}
