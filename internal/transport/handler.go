package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-focus-evaluator/internal/config"
	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/logger"
	"go-focus-evaluator/internal/service"
	"go-focus-evaluator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health check.
var Version = "dev"

// uploadField is the multipart form field carrying a stack file.
const uploadField = "image"

func NewHandler(svc service.StackService, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	api := r.Group("/api/v1")
	api.POST("/focus-metrics", focusMetrics(svc, cfg))
	api.POST("/roc", buildROC(svc))

	return r
}

func focusMetrics(svc service.StackService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		var (
			res    *models.FocusMetricsResponse
			err    error
			source string
		)
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			var (
				name string
				data []byte
			)
			name, data, err = readUpload(c)
			if err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid upload", err)
				return
			}
			source = name
			res, err = svc.AnalyzeUpload(ctx, name, data, splitMetrics(c.PostFormArray("metrics")))
		} else {
			var req models.FocusMetricsRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "invalid request format", err)
				return
			}
			if err := svc.ValidateStackURI(req.URL); err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid stack URI", err)
				return
			}
			source = req.URL
			res, err = svc.AnalyzeStack(ctx, req)
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
				err = apperrors.NewTimeoutError("stack analysis timeout", err)
			}
			respondError(c, apperrors.GetStatusCode(err), "failed to score stack", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"source":             source,
			"stack_id":           res.StackID,
			"frames":             len(res.Frames),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Stack scored")

		c.JSON(http.StatusOK, res)
	}
}

func buildROC(svc service.StackService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ROCRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		res, err := svc.BuildROC(req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to build ROC curve", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func readUpload(c *gin.Context) (string, []byte, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return "", nil, apperrors.NewValidationError(fmt.Sprintf("multipart field %q is required", uploadField), err)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, apperrors.NewValidationError("cannot open upload", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, apperrors.NewValidationError("cannot read upload", err)
	}
	return fh.Filename, data, nil
}

// splitMetrics accepts repeated fields as well as comma separated lists.
func splitMetrics(values []string) []string {
	var out []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		code = http.StatusRequestEntityTooLarge
	}

	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
