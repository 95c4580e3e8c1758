package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPredictionErrorText(t *testing.T) {
	tests := []struct {
		name     string
		err      *PredictionError
		contains []string
	}{
		{
			name:     "status code only",
			err:      NewStatusError(500, ""),
			contains: []string{"HTTP 500"},
		},
		{
			name:     "status code with body",
			err:      NewStatusError(422, `{"detail":"bad input"}`),
			contains: []string{"HTTP 422", "bad input"},
		},
		{
			name:     "transport",
			err:      NewTransportError(errors.New("dial tcp 127.0.0.1:1: connect: connection refused")),
			contains: []string{"connection refused"},
		},
		{
			name:     "decode",
			err:      NewDecodeError(errors.New("invalid character 'o' in literal null")),
			contains: []string{"invalid response body", "invalid character"},
		},
		{
			name:     "unavailable",
			err:      NewUnavailableError(errors.New("circuit breaker is open")),
			contains: []string{"unavailable", "circuit breaker is open"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Expected %q to contain %q", msg, want)
				}
			}
		})
	}
}

func TestPredictionErrorBodyExcerptIsBounded(t *testing.T) {
	err := NewStatusError(502, strings.Repeat("x", 1000))
	if len(err.Error()) > maxBodyExcerpt+32 {
		t.Errorf("status error text too long: %d", len(err.Error()))
	}
}

func TestPredictionErrorExcerptKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("x", maxBodyExcerpt-1) + "é" + strings.Repeat("y", 50)
	text := NewStatusError(502, body).Error()

	if !utf8.ValidString(text) {
		t.Fatalf("status error text is not valid UTF-8: %q", text)
	}
	if strings.ContainsRune(text, utf8.RuneError) {
		t.Errorf("status error text contains a replacement rune: %q", text)
	}
	want := "HTTP 502: " + strings.Repeat("x", maxBodyExcerpt-1) + "..."
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestPredictionErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := error(NewTransportError(cause))

	if !errors.Is(err, cause) {
		t.Error("Expected transport error to unwrap to its cause")
	}

	var perr *PredictionError
	if !errors.As(err, &perr) || perr.Kind != FailureTransport {
		t.Errorf("Expected transport kind, got %+v", perr)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("hdl", "must be a number", "abc")

	if err.Field != "hdl" || err.Value != "abc" {
		t.Errorf("unexpected fields: %+v", err)
	}

	expected := "validation error for field 'hdl': must be a number"
	if err.Error() != expected {
		t.Errorf("Expected error string %s, got %s", expected, err.Error())
	}
}
