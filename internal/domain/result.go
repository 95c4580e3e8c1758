package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ResultStatus names which variant of the result slot is populated.
type ResultStatus string

const (
	ResultAbsent    ResultStatus = "absent"
	ResultFulfilled ResultStatus = "fulfilled"
	ResultFailed    ResultStatus = "failed"
)

// PredictionResponse is a successfully decoded service reply. Raw keeps the
// body exactly as received so it can be shown verbatim.
type PredictionResponse struct {
	Raw    json.RawMessage
	fields map[string]any
}

// ParsePredictionResponse validates body as JSON and indexes its top-level
// keys when it is an object.
func ParsePredictionResponse(body []byte) (*PredictionResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	var probe any
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}

	resp := &PredictionResponse{Raw: append(json.RawMessage(nil), trimmed...)}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&resp.fields); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Field returns a top-level key of an object payload.
func (p *PredictionResponse) Field(key string) (any, bool) {
	if p == nil || p.fields == nil {
		return nil, false
	}
	v, ok := p.fields[key]
	return v, ok
}

// Prediction reports the truthiness of the "prediction" key. A missing key
// is falsy.
func (p *PredictionResponse) Prediction() bool {
	v, ok := p.Field("prediction")
	if !ok {
		return false
	}
	return Truthy(v)
}

// Probability returns the "probability" key as a number. Missing or
// non-numeric values yield 0.
func (p *PredictionResponse) Probability() float64 {
	v, ok := p.Field("probability")
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
	}
	return 0
}

// Truthy applies JSON value truthiness: null, false, 0 and "" are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

// Result is the single outcome slot. Exactly one of absent, fulfilled
// (Payload set) or failed (Error set) holds.
type Result struct {
	Status       ResultStatus        `json:"status"`
	Payload      *PredictionResponse `json:"-"`
	Error        string              `json:"error,omitempty"`
	SubmissionID string              `json:"submission_id,omitempty"`
	ResolvedAt   time.Time           `json:"resolved_at,omitempty"`
	Duration     time.Duration       `json:"duration,omitempty"`
}

// NewFulfilledResult wraps a decoded payload.
func NewFulfilledResult(submissionID string, payload *PredictionResponse, took time.Duration) Result {
	return Result{
		Status:       ResultFulfilled,
		Payload:      payload,
		SubmissionID: submissionID,
		ResolvedAt:   time.Now().UTC(),
		Duration:     took,
	}
}

// NewFailedResult records a failure description.
func NewFailedResult(submissionID string, err error, took time.Duration) Result {
	return Result{
		Status:       ResultFailed,
		Error:        err.Error(),
		SubmissionID: submissionID,
		ResolvedAt:   time.Now().UTC(),
		Duration:     took,
	}
}

// IsAbsent reports whether nothing has resolved since the last submission.
func (r Result) IsAbsent() bool {
	return r.Status == "" || r.Status == ResultAbsent
}

// RawJSON is the document shown verbatim next to the summary. Failures show
// the locally built {"error": ...} object.
func (r Result) RawJSON() json.RawMessage {
	switch r.Status {
	case ResultFulfilled:
		if r.Payload != nil {
			return r.Payload.Raw
		}
	case ResultFailed:
		b, _ := json.Marshal(map[string]string{"error": r.Error})
		return b
	}
	return nil
}
