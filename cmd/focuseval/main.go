package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"go-focus-evaluator/internal/config"
	"go-focus-evaluator/internal/container"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/service"
	"go-focus-evaluator/internal/transport"
	"go-focus-evaluator/pkg/models"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `usage: focuseval <command> [flags]

commands:
  measure    score every frame of a stack and write the measurement CSV
  evaluate   compare metrics against the annotator assessments
  serve      run the HTTP API
  version    print the version

run "focuseval <command> -h" for the flags of a command`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.WithError(err).Error("focuseval failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	transport.Version = version

	switch cmd, rest := args[0], args[1:]; cmd {
	case "measure":
		return runMeasure(rest, stdout)
	case "evaluate":
		return runEvaluate(rest, stdout)
	case "serve":
		return runServe(rest)
	case "version":
		fmt.Fprintf(stdout, "focuseval %s\n", version)
		return nil
	case "-h", "-help", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// commandFlags are shared by every subcommand.
type commandFlags struct {
	fs         *flag.FlagSet
	configPath string
}

func newCommandFlags(name string) *commandFlags {
	cf := &commandFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	cf.fs.StringVar(&cf.configPath, "config", "", "YAML config file (default $FOCUSEVAL_CONFIG or "+config.DefaultConfigPath+")")
	return cf
}

// load parses args, reads the configuration, lets apply override it with
// the flags that were set and validates the result.
func (cf *commandFlags) load(args []string, apply func(cfg *config.Config, name string)) (*config.Config, error) {
	if err := cf.fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.ResolvePath(cf.configPath), cf.configPath != "")
	if err != nil {
		return nil, err
	}
	cf.fs.Visit(func(f *flag.Flag) {
		apply(cfg, f.Name)
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMeasure(args []string, stdout io.Writer) error {
	cf := newCommandFlags("measure")
	stack := cf.fs.String("stack", "", "stack path or URI")
	stackID := cf.fs.String("stack-id", "", "stack identifier (default: file name)")
	out := cf.fs.String("out", "", "measurement CSV (default "+config.DefaultMeasurementsPath+")")
	saveImages := cf.fs.Bool("save-images", false, "write derived images")
	workers := cf.fs.Int("workers", 0, "frames measured concurrently")

	cfg, err := cf.load(args, func(cfg *config.Config, name string) {
		switch name {
		case "stack":
			cfg.StackPath = *stack
		case "stack-id":
			cfg.StackID = *stackID
		case "out":
			cfg.MeasurementsPath = *out
		case "save-images":
			cfg.SaveDerivedImages = *saveImages
		case "workers":
			cfg.Workers = *workers
		}
	})
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	outPath := cfg.MeasurementsPath
	if outPath == "" {
		outPath = config.DefaultMeasurementsPath
	}
	res, err := c.EvaluationService().Measure(context.Background(), service.MeasureRequest{
		StackURI: cfg.StackPath,
		OutPath:  outPath,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "stack %s: %d frames, %d measurements written to %s\n",
		res.StackID, res.Metadata.Frames, len(res.Measurements), res.MeasurementsPath)
	if res.DerivedImages > 0 {
		fmt.Fprintf(stdout, "%d derived images written under %s\n", res.DerivedImages, cfg.ProcessedImagesDir)
	}
	return nil
}

func runEvaluate(args []string, stdout io.Writer) error {
	cf := newCommandFlags("evaluate")
	stack := cf.fs.String("stack", "", "stack path or URI")
	stackID := cf.fs.String("stack-id", "", "stack identifier")
	assessments := cf.fs.String("assessments", "", "directory of assessment CSV files")
	measurements := cf.fs.String("measurements", "", "read scores from this measurement CSV instead of the stack")
	fpr := cf.fs.Float64("fpr", 0, "FPR threshold")
	boundary := cf.fs.Int("boundary", 0, "first DIC frame index")
	results := cf.fs.String("results", "", "results directory")
	workers := cf.fs.Int("workers", 0, "assessment files evaluated concurrently")
	dryRun := cf.fs.Bool("dry-run", false, "print the summary without writing files")

	cfg, err := cf.load(args, func(cfg *config.Config, name string) {
		switch name {
		case "stack":
			cfg.StackPath = *stack
		case "stack-id":
			cfg.StackID = *stackID
		case "assessments":
			cfg.AssessmentsDir = *assessments
		case "measurements":
			cfg.MeasurementsPath = *measurements
		case "fpr":
			cfg.FPRThreshold = *fpr
		case "boundary":
			cfg.BoundaryIndex = *boundary
		case "results":
			cfg.ResultsDir = *results
		case "workers":
			cfg.Workers = *workers
		}
	})
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.EvaluationService().Evaluate(context.Background(), service.EvaluateRequest{
		StackURI:         cfg.StackPath,
		MeasurementsPath: cfg.MeasurementsPath,
		DryRun:           *dryRun,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "stack %s, %d assessments, FPR threshold %.3f\n",
		res.StackID, len(res.Assessments), cfg.FPRThreshold)
	if err := printSummary(stdout, res.Summary); err != nil {
		return err
	}
	for _, name := range []string{service.SummaryFile, service.AssessmentSummaryFile, service.ROCGridFile, service.ROCReportFile} {
		if path, ok := res.Outputs[name]; ok {
			fmt.Fprintf(stdout, "wrote %s\n", path)
		}
	}
	return nil
}

func printSummary(w io.Writer, rows []models.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "modality\tmetric\tfpr\ttpr")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\n", r.Modality, r.Metric, r.FPR, r.TPR)
	}
	return tw.Flush()
}

func runServe(args []string) error {
	cf := newCommandFlags("serve")
	port := cf.fs.String("port", "", "listen port")

	cfg, err := cf.load(args, func(cfg *config.Config, name string) {
		if name == "port" {
			cfg.Port = *port
		}
	})
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	// Create HTTP server with configurable timeouts
	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.Handler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.AnalysisTimeout + cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout,
			"version": version,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.WithFields(logrus.Fields(c.Metrics())).Info("Server exited")
	return nil
}
