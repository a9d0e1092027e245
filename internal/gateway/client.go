// Package gateway is the single HTTP surface to the hosted resume backend.
// Every remote call goes through one client that applies authentication,
// per-call timeouts, retry with backoff, circuit breaking, outbound rate
// limiting, and boundary error classification. Callers above this package
// never see raw HTTP status codes, only the error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rezzy/internal/config"
	rezzyErrors "rezzy/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// MetricsRecorder receives per-operation request measurements. May be nil.
type MetricsRecorder interface {
	RecordGatewayRequest(ctx context.Context, operation string, err error)
}

// Client talks to the backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	shortTimeout time.Duration
	longTimeout  time.Duration
	maxRetries   int

	breaker *APICircuitBreaker
	limiter *LimiterManager
	metrics MetricsRecorder
	logger  *rezzyErrors.Logger
}

// New creates a gateway client from configuration.
func New(cfg *config.APIConfig, metrics MetricsRecorder, logger *rezzyErrors.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, rezzyErrors.NewConfigError(rezzyErrors.ErrCodeInvalidConfig,
			"api.baseURL is required", nil)
	}

	var limiter *LimiterManager
	if cfg.RateLimit.Enabled {
		limiter = NewLimiterManager(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			// Per-call deadlines come from the request context; the
			// transport carries tracing for every outbound call.
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		shortTimeout: cfg.ShortTimeout,
		longTimeout:  cfg.LongTimeout,
		maxRetries:   cfg.MaxRetries,
		breaker:      NewAPICircuitBreaker(&cfg.CircuitBreaker, logger),
		limiter:      limiter,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Close releases client resources.
func (c *Client) Close() {
	c.limiter.Close()
}

// GetCircuitBreakerStats returns breaker state for diagnostics output.
func (c *Client) GetCircuitBreakerStats() map[string]any {
	return c.breaker.GetStats()
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// call runs one logical API operation through the limiter, breaker, and
// retry layers, returning the raw response body on success.
func (c *Client) call(ctx context.Context, operation string, timeout time.Duration, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx, operation); err != nil {
		return nil, rezzyErrors.ClassifyTransport(err)
	}

	tracer := otel.Tracer("rezzy.gateway")
	ctx, span := tracer.Start(ctx, "gateway."+operation)
	defer span.End()
	span.SetAttributes(attribute.String("api.operation", operation))

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.executeWithRetry(ctx, operation, func() ([]byte, error) {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			req, err := build(callCtx)
			if err != nil {
				return nil, err
			}
			return c.doRequest(req)
		})
	})
	if err != nil {
		err = wrapBreakerError(err)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		c.recordRequest(ctx, operation, err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	c.recordRequest(ctx, operation, nil)
	return body, nil
}

func (c *Client) recordRequest(ctx context.Context, operation string, err error) {
	if c.metrics != nil {
		c.metrics.RecordGatewayRequest(ctx, operation, err)
	}
}

// doRequest performs one HTTP exchange and classifies the outcome at the
// boundary: transport failures and non-2xx statuses both come back as
// taxonomy errors.
func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, rezzyErrors.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, rezzyErrors.ClassifyTransport(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	return nil, rezzyErrors.ClassifyStatus(resp.StatusCode, eb.Detail)
}

// executeWithRetry executes an API operation with retry logic and
// exponential backoff.
func (c *Client) executeWithRetry(ctx context.Context, operation string, fn func() ([]byte, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying API operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			// Use crypto/rand for secure random jitter
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, rezzyErrors.ClassifyTransport(ctx.Err())
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				c.logger.Info("API operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on client errors (quota, validation); they repeat.
		if !isRetryableError(err) {
			c.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	c.logger.LogError(lastErr, "API operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", c.maxRetries+1)

	return nil, lastErr
}

// isRetryableError determines if an error should trigger a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch rezzyErrors.KindOf(err) {
	case rezzyErrors.KindBackendUnavailable, rezzyErrors.KindTimeout, rezzyErrors.KindServerFault:
		return true
	}
	return false
}

// postForm sends a form-encoded POST, the backend's native request shape,
// and decodes the JSON response into out when out is non-nil.
func (c *Client) postForm(ctx context.Context, operation, path string, form url.Values, timeout time.Duration, out any) error {
	body, err := c.call(ctx, operation, timeout, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, rezzyErrors.NewInternalError(rezzyErrors.ErrCodeUnexpectedStatus,
				"failed to build request for "+operation, err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(operation, body, out)
}

// get sends a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, operation, path string, query url.Values, timeout time.Duration, out any) error {
	body, err := c.getRaw(ctx, operation, path, query, timeout)
	if err != nil {
		return err
	}
	return decodeResponse(operation, body, out)
}

// getRaw sends a GET request and returns the raw response body, for
// endpoints that serve file content instead of JSON.
func (c *Client) getRaw(ctx context.Context, operation, path string, query url.Values, timeout time.Duration) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return c.call(ctx, operation, timeout, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, rezzyErrors.NewInternalError(rezzyErrors.ErrCodeUnexpectedStatus,
				"failed to build request for "+operation, err)
		}
		return req, nil
	})
}

// putForm sends a form-encoded PUT and decodes the JSON response.
func (c *Client) putForm(ctx context.Context, operation, path string, form url.Values, timeout time.Duration, out any) error {
	body, err := c.call(ctx, operation, timeout, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut,
			c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, rezzyErrors.NewInternalError(rezzyErrors.ErrCodeUnexpectedStatus,
				"failed to build request for "+operation, err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(operation, body, out)
}

// postMultipart sends a multipart POST carrying one file plus form fields.
// The multipart body is rebuilt on every attempt so retries never reuse a
// drained reader.
func (c *Client) postMultipart(ctx context.Context, operation, path string, fields map[string]string, fileField, filename string, file []byte, timeout time.Duration, out any) error {
	body, err := c.call(ctx, operation, timeout, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)

		for k, v := range fields {
			if err := mw.WriteField(k, v); err != nil {
				return nil, rezzyErrors.NewIOError(rezzyErrors.ErrCodeInvalidFormat,
					"failed to encode form field "+k, err)
			}
		}

		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			return nil, rezzyErrors.NewIOError(rezzyErrors.ErrCodeInvalidFormat,
				"failed to create multipart file part", err)
		}
		if _, err := fw.Write(file); err != nil {
			return nil, rezzyErrors.NewIOError(rezzyErrors.ErrCodeInvalidFormat,
				"failed to write multipart file content", err)
		}
		if err := mw.Close(); err != nil {
			return nil, rezzyErrors.NewIOError(rezzyErrors.ErrCodeInvalidFormat,
				"failed to finalize multipart body", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
		if err != nil {
			return nil, rezzyErrors.NewInternalError(rezzyErrors.ErrCodeUnexpectedStatus,
				"failed to build request for "+operation, err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return err
	}
	return decodeResponse(operation, body, out)
}

func decodeResponse(operation string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return rezzyErrors.NewServerFaultError(rezzyErrors.ErrCodeServerFault,
			fmt.Sprintf("Backend returned an unreadable response for %s", operation), err)
	}
	return nil
}
