// Package render turns a result slot into the text shown to the user.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/genome360-risk-client/internal/domain"
)

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"
	LabelRunning  = "Running..."
)

// Summary is the presentation of a result.
type Summary struct {
	Status      domain.ResultStatus `json:"status"`
	Label       string              `json:"label,omitempty"`
	HighRisk    bool                `json:"high_risk"`
	Probability float64             `json:"probability"`
	ProbText    string              `json:"probability_text,omitempty"`
	Error       string              `json:"error,omitempty"`
	Raw         string              `json:"raw,omitempty"`
}

// Summarize builds the summary for r. Absent results produce an empty
// summary carrying only the status.
func Summarize(r domain.Result) Summary {
	s := Summary{Status: r.Status}
	if s.Status == "" {
		s.Status = domain.ResultAbsent
	}

	switch r.Status {
	case domain.ResultFulfilled:
		s.HighRisk = r.Payload.Prediction()
		s.Label = Classification(s.HighRisk)
		s.Probability = r.Payload.Probability()
		s.ProbText = Probability(s.Probability)
	case domain.ResultFailed:
		s.Error = r.Error
	default:
		return s
	}
	s.Raw = Raw(r.RawJSON())
	return s
}

// Classification maps a prediction flag to its label.
func Classification(high bool) string {
	if high {
		return LabelHighRisk
	}
	return LabelLowRisk
}

// Probability formats p as a percentage with one decimal, e.g. "P = 73.2%".
// Exact ties round away from zero, so 0.0025 shows as "P = 0.3%".
func Probability(p float64) string {
	return "P = " + fixed(p*100, 1) + "%"
}

// fixed formats x with the given number of decimals. Rounding works on the
// exact binary value of x and breaks ties away from zero.
func fixed(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', decimals, 64)
	}
	sign := ""
	if math.Signbit(x) && x != 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).SetFloat64(math.Abs(x))
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	digits := n.String()
	if decimals == 0 {
		return sign + digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	cut := len(digits) - decimals
	return sign + digits[:cut] + "." + digits[cut:]
}

// Raw indents a JSON document without reordering keys or reformatting
// numbers. Input that is not valid JSON is returned unchanged.
func Raw(doc json.RawMessage) string {
	if len(doc) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return string(doc)
	}
	return buf.String()
}

// Text renders the summary as plain lines for terminals and logs.
func (s Summary) Text() string {
	var b bytes.Buffer
	switch s.Status {
	case domain.ResultFulfilled:
		fmt.Fprintf(&b, "%s\n%s\n", s.Label, s.ProbText)
	case domain.ResultFailed:
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	default:
		return ""
	}
	if s.Raw != "" {
		b.WriteString(s.Raw)
		b.WriteByte('\n')
	}
	return b.String()
}
