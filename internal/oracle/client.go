// Package oracle is a client for the external prediction and anomaly service.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/spendburn/internal/logger"
	"github.com/theirongolddev/spendburn/internal/model"
)

const (
	predictPath   = "/api/oracle/predict_params"
	anomaliesPath = "/api/anomalies"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	contentType    = "application/json"
	userAgent      = "spendburn/1.0"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
	// ReportErrors sends failed calls to sentry when a client is initialised.
	ReportErrors bool
}

// Client calls the prediction and anomaly endpoints.
type Client struct {
	baseURL string
	apiKey  string
	retry   *retryablehttp.Client
	log     zerolog.Logger
	report  bool
}

// New creates a client. It returns ErrNotConfigured when BaseURL is empty.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.Timeout > 0 {
		opts.HTTPClient.Timeout = opts.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	retry := retryablehttp.NewClient()
	retry.HTTPClient = opts.HTTPClient
	retry.RetryMax = opts.MaxRetries
	if opts.RetryWaitMin > 0 {
		retry.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retry.RetryWaitMax = opts.RetryWaitMax
	}
	retry.Logger = &retryLogger{log: opts.Logger}
	// Hand the last response back so status codes map to typed errors.
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		retry:   retry,
		log:     opts.Logger.With().Str("component", "oracle").Logger(),
		report:  opts.ReportErrors,
	}, nil
}

// PredictParams requests baseline and scenario-adjusted predictions.
func (c *Client) PredictParams(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	var out PredictResponse
	if err := c.post(ctx, predictPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Anomalies requests high and low spending anomalies for an account window.
func (c *Client) Anomalies(ctx context.Context, req AnomalyRequest) (*model.AnomalyReport, error) {
	var out model.AnomalyReport
	if err := c.post(ctx, anomaliesPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	err := c.do(ctx, path, in, out)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", path).Msg("oracle call failed")
		if c.report {
			logger.Capture(err, map[string]string{"oracle.endpoint": path})
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", contentType)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	retryReq, err := retryablehttp.FromRequest(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	c.log.Debug().Str("endpoint", path).Str("request_id", requestID).Msg("oracle request")
	start := time.Now()
	resp, err := c.retry.Do(retryReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(ctxErr, "oracle request cancelled")
		}
		return errors.Wrapf(ErrUnavailable, "POST %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "reading response: %v", err)
	}
	c.log.Debug().
		Str("endpoint", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("size", len(respBody)).
		Msg("oracle response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleHTTPError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrapf(ErrBadResponse, "decoding %s: %v", path, err)
	}
	return nil
}

// handleHTTPError maps a non-2xx status to a typed error.
func handleHTTPError(statusCode int, body []byte) error {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &errResp)
	msg := errResp.Message
	if msg == "" {
		msg = errResp.Error
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &Error{Code: "UNAUTHORIZED", Message: "api key rejected", StatusCode: statusCode, Err: ErrUnauthorized}
	case statusCode == http.StatusTooManyRequests:
		return &Error{Code: "RATE_LIMITED", Message: "too many requests", StatusCode: statusCode, Err: ErrRateLimited}
	case statusCode >= 500:
		base := fmt.Sprintf("server error: %d", statusCode)
		if msg != "" {
			base += ": " + msg
		}
		return &Error{Code: "SERVER_ERROR", Message: base, StatusCode: statusCode, Err: ErrUnavailable}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error: %d", statusCode)
	}
	return &Error{Code: "HTTP_ERROR", Message: msg, StatusCode: statusCode}
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

// Info maps to debug: retryablehttp logs every attempt at info.
func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
