package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/inputmodel"
)

func newTestClient(t *testing.T, url string, mutate ...func(*domain.PredictorConfig)) *Client {
	t.Helper()
	cfg := domain.PredictorConfig{
		BaseURL: url,
		Timeout: 5 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	logger, _ := test.NewNullLogger()
	return NewClient(cfg, WithLogger(logger))
}

func TestClient_Predict(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectErr    bool
		expectKind   domain.FailureKind
		errContains  string
		expectRaw    string
		expectHigh   bool
		expectProbab float64
	}{
		{
			name:         "successful prediction",
			status:       http.StatusOK,
			body:         `{"prediction": 1, "probability": 0.732, "model": "gbm"}`,
			expectRaw:    `{"prediction": 1, "probability": 0.732, "model": "gbm"}`,
			expectHigh:   true,
			expectProbab: 0.732,
		},
		{
			name:      "created is a success",
			status:    http.StatusCreated,
			body:      `{"prediction": 0}`,
			expectRaw: `{"prediction": 0}`,
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        `internal error`,
			expectErr:   true,
			expectKind:  domain.FailureStatus,
			errContains: "500",
		},
		{
			name:        "validation error from service",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": "field required"}`,
			expectErr:   true,
			expectKind:  domain.FailureStatus,
			errContains: "422",
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        `<html>proxy error</html>`,
			expectErr:   true,
			expectKind:  domain.FailureDecode,
			errContains: "invalid response body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			resp, err := client.Predict(context.Background(), inputmodel.New().Snapshot())

			if tt.expectErr {
				require.Error(t, err)
				var perr *domain.PredictionError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, tt.expectKind, perr.Kind)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectRaw, string(resp.Raw))
			assert.Equal(t, tt.expectHigh, resp.Prediction())
			assert.InDelta(t, tt.expectProbab, resp.Probability(), 1e-9)
		})
	}
}

func TestClient_RequestShape(t *testing.T) {
	var (
		gotMethod, gotPath, gotContentType, gotRequestID string
		gotBody                                          map[string]json.RawMessage
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	model := inputmodel.New()
	require.NoError(t, model.Set(domain.FieldFamilyHistory, "cancer,  diabetes ,,"))

	client := newTestClient(t, server.URL+"/")
	_, err := client.Predict(context.Background(), model.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/predict", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)

	assert.Len(t, gotBody, 4)
	for _, key := range []string{"genomic", "biomarkers", "lifestyle", "pharmacogenomics"} {
		assert.Contains(t, gotBody, key)
	}

	var biomarkers map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(gotBody["biomarkers"], &biomarkers))
	assert.JSONEq(t, `["cancer","diabetes"]`, string(biomarkers["family_history"]))
	assert.JSONEq(t, `null`, string(biomarkers["cholesterol_total"]))
}

func TestClient_CustomPredictPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"prediction": 0}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/v2", func(c *domain.PredictorConfig) {
		c.PredictPath = "risk/predict"
	})
	assert.Equal(t, server.URL+"/v2/risk/predict", client.Endpoint())

	_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "/v2/risk/predict", gotPath)
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())

	require.Error(t, err)
	var perr *domain.PredictionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.FailureTransport, perr.Kind)
	assert.Contains(t, err.Error(), "connect")
}

func TestClient_SingleAttemptPerCall(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_CircuitBreakerFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *domain.PredictorConfig) {
		c.CircuitBreaker = domain.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			Timeout:          time.Minute,
		}
	})
	assert.Equal(t, "closed", client.BreakerState())

	for i := 0; i < 2; i++ {
		_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())
	var perr *domain.PredictionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.FailureUnavailable, perr.Kind)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *domain.PredictorConfig) {
		c.CircuitBreaker = domain.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1}
	})

	for i := 0; i < 3; i++ {
		_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())
		assert.Contains(t, err.Error(), "400")
	}
	assert.Equal(t, "closed", client.BreakerState())
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *domain.PredictorConfig) {
		c.RateLimit = 1
	})

	_, err := client.Predict(context.Background(), inputmodel.New().Snapshot())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = client.Predict(ctx, inputmodel.New().Snapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(domain.PredictorConfig{}, WithLogger(logrus.New()))

	assert.Equal(t, "http://localhost:8000/api/predict", client.Endpoint())
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.rateLimit)
	assert.Equal(t, "disabled", client.BreakerState())
}
