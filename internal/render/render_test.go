package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome360-risk-client/internal/domain"
)

func fulfilled(t *testing.T, body string) domain.Result {
	t.Helper()
	resp, err := domain.ParsePredictionResponse([]byte(body))
	require.NoError(t, err)
	return domain.NewFulfilledResult("sub-1", resp, 0)
}

func TestSummarizeFulfilled(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLabel string
		wantHigh  bool
		wantProb  string
	}{
		{"high risk", `{"prediction":1,"probability":0.732}`, LabelHighRisk, true, "P = 73.2%"},
		{"low risk without probability", `{"prediction":0}`, LabelLowRisk, false, "P = 0.0%"},
		{"boolean prediction", `{"prediction":true,"probability":0.5}`, LabelHighRisk, true, "P = 50.0%"},
		{"string prediction", `{"prediction":"yes","probability":0.05}`, LabelHighRisk, true, "P = 5.0%"},
		{"empty string prediction", `{"prediction":""}`, LabelLowRisk, false, "P = 0.0%"},
		{"null prediction", `{"prediction":null,"probability":"abc"}`, LabelLowRisk, false, "P = 0.0%"},
		{"missing keys", `{"detail":"ok"}`, LabelLowRisk, false, "P = 0.0%"},
		{"non-object payload", `[1,2,3]`, LabelLowRisk, false, "P = 0.0%"},
		{"nested object is truthy", `{"prediction":{"class":0},"probability":1}`, LabelHighRisk, true, "P = 100.0%"},
		{"rounds to one decimal", `{"prediction":1,"probability":0.12345}`, LabelHighRisk, true, "P = 12.3%"},
		{"exact tie rounds up", `{"prediction":0,"probability":0.0025}`, LabelLowRisk, false, "P = 0.3%"},
		{"exact tie above ten rounds up", `{"prediction":1,"probability":0.1225}`, LabelHighRisk, true, "P = 12.3%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(fulfilled(t, tt.body))

			assert.Equal(t, domain.ResultFulfilled, s.Status)
			assert.Equal(t, tt.wantLabel, s.Label)
			assert.Equal(t, tt.wantHigh, s.HighRisk)
			assert.Equal(t, tt.wantProb, s.ProbText)
			assert.Empty(t, s.Error)
		})
	}
}

func TestProbability(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "P = 0.0%"},
		{0.0025, "P = 0.3%"},
		{0.0125, "P = 1.3%"},
		{0.1225, "P = 12.3%"},
		{0.732, "P = 73.2%"},
		{0.99999, "P = 100.0%"},
		{1, "P = 100.0%"},
		{0.0004, "P = 0.0%"},
		{-0.0025, "P = -0.3%"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Probability(tt.p))
		})
	}
}

func TestSummarizeFailed(t *testing.T) {
	r := domain.NewFailedResult("sub-2", domain.NewStatusError(500, ""), 0)

	s := Summarize(r)

	assert.Equal(t, domain.ResultFailed, s.Status)
	assert.Equal(t, "HTTP 500", s.Error)
	assert.Empty(t, s.Label)
	assert.JSONEq(t, `{"error":"HTTP 500"}`, s.Raw)
	assert.Contains(t, s.Text(), "Error: HTTP 500")
}

func TestSummarizeAbsent(t *testing.T) {
	s := Summarize(domain.Result{})

	assert.Equal(t, domain.ResultAbsent, s.Status)
	assert.Empty(t, s.Label)
	assert.Empty(t, s.Raw)
	assert.Empty(t, s.Text())
}

func TestRawPreservesKeyOrderAndNumbers(t *testing.T) {
	raw := Raw([]byte(`{"z":1.50,"a":{"b":1e3},"m":[true]}`))

	assert.Equal(t, "{\n  \"z\": 1.50,\n  \"a\": {\n    \"b\": 1e3\n  },\n  \"m\": [\n    true\n  ]\n}", raw)
}

func TestRawPassesThroughInvalidJSON(t *testing.T) {
	assert.Equal(t, "not json", Raw([]byte("not json")))
	assert.Equal(t, "", Raw(nil))
}

func TestSummaryText(t *testing.T) {
	s := Summarize(fulfilled(t, `{"prediction":1,"probability":0.732}`))

	assert.Equal(t, "High Risk\nP = 73.2%\n{\n  \"prediction\": 1,\n  \"probability\": 0.732\n}\n", s.Text())
}

func TestFailedTransportDescription(t *testing.T) {
	r := domain.NewFailedResult("sub-3", domain.NewTransportError(errors.New("dial tcp: connection refused")), 0)

	assert.Equal(t, "dial tcp: connection refused", Summarize(r).Error)
}
