package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/internal/logger"
)

// DefaultMaxDownloadSize caps stack downloads.
const DefaultMaxDownloadSize = 1 << 30 // 1GB

// HTTPFetcher implements Fetcher over HTTP(S) with retries
type HTTPFetcher struct {
	client     *http.Client
	maxBytes   int64
	retryDelay time.Duration
}

// NewHTTPFetcher creates an HTTP stack fetcher
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	// Transport tuned for a few large downloads rather than many small ones
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes:   DefaultMaxDownloadSize,
		retryDelay: time.Second,
	}
}

// WithRetryDelay sets the base delay between attempts; attempt n waits n times as long
func (h *HTTPFetcher) WithRetryDelay(d time.Duration) *HTTPFetcher {
	h.retryDelay = d
	return h
}

// WithMaxBytes caps the accepted body size
func (h *HTTPFetcher) WithMaxBytes(n int64) *HTTPFetcher {
	h.maxBytes = n
	return h
}

func (h *HTTPFetcher) Fetch(ctx context.Context, stackURL string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stackURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}

	req.Header.Set("Accept", "image/tiff, image/png, image/jpeg, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Focus-Evaluator/1.0")

	// Retry logic (3 attempts) - only retry on transient errors
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)

		if err != nil {
			lastErr = err
		}

		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err == nil {
			resp.Body.Close()

			// 4xx client errors are non-retryable
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				if resp.StatusCode == http.StatusNotFound {
					return nil, apperrors.NewNotFoundError(fmt.Sprintf("stack not found at %s", stackURL), nil)
				}
				return nil, apperrors.NewNetworkError(
					fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
			}
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}
		resp = nil

		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("stack download cancelled", ctx.Err())
		}

		logger.WithField("attempt", attempt+1).WithError(lastErr).Warn("Stack download failed")

		// Sleep before next retry (not on last attempt)
		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("stack download cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.retryDelay):
			}
		}
	}

	if resp == nil {
		return nil, apperrors.NewNetworkError("failed to fetch stack after 3 attempts", lastErr)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read stack body", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("stack exceeds %d bytes", h.maxBytes), nil)
	}

	return &Object{
		Name:        path.Base(req.URL.Path),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
