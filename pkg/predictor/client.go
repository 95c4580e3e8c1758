// Package predictor is the HTTP client for the remote risk prediction
// service.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/genome360-risk-client/internal/domain"
)

const (
	// DefaultBaseURL is used when no base address is configured.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultPredictPath is the fixed path suffix of the predict endpoint.
	DefaultPredictPath = "/api/predict"

	userAgent       = "genome360-risk-client/1.0"
	maxResponseSize = 10 << 20
)

// Client posts request snapshots to the prediction service. One Predict call
// makes at most one HTTP attempt.
type Client struct {
	endpoint   string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a predictor client from configuration. The configured
// base address is captured once and never re-read.
func NewClient(config domain.PredictorConfig, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.PredictPath == "" {
		config.PredictPath = DefaultPredictPath
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	c := &Client{
		endpoint: joinURL(config.BaseURL, config.PredictPath),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logrus.StandardLogger(),
	}
	if config.RateLimit > 0 {
		c.rateLimit = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	if config.CircuitBreaker.Enabled {
		c.breaker = newBreaker(config.CircuitBreaker, c.logger)
	}
	return c
}

// Endpoint returns the resolved predict URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// Predict serializes req and posts it. Every error returned is a
// *domain.PredictionError.
func (c *Client) Predict(ctx context.Context, req *domain.PredictionRequest) (*domain.PredictionResponse, error) {
	if c.rateLimit != nil {
		if err := c.rateLimit.Wait(ctx); err != nil {
			return nil, domain.NewTransportError(fmt.Errorf("rate limit wait failed: %w", err))
		}
	}

	if c.breaker == nil {
		return c.post(ctx, req)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.NewUnavailableError(err)
		}
		return nil, err
	}
	return result.(*domain.PredictionResponse), nil
}

func (c *Client) post(ctx context.Context, req *domain.PredictionRequest) (*domain.PredictionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("failed to create request: %w", err))
	}

	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	log := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"endpoint":   c.endpoint,
	})
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("Prediction request failed")
		return nil, domain.NewTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		log.WithError(err).Warn("Failed to read prediction response")
		return nil, domain.NewTransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	log = log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Prediction service returned non-success status")
		return nil, domain.NewStatusError(resp.StatusCode, string(respBody))
	}

	parsed, err := domain.ParsePredictionResponse(respBody)
	if err != nil {
		log.WithError(err).Warn("Prediction response is not JSON")
		return nil, domain.NewDecodeError(err)
	}

	log.Debug("Prediction response received")
	return parsed, nil
}

func newBreaker(config domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 1
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Predictor",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			var perr *domain.PredictionError
			if errors.As(err, &perr) && perr.Kind == domain.FailureStatus {
				return perr.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
