package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genome360-risk-client/internal/domain"
)

type fieldUpdate struct {
	Value json.RawMessage `json:"value"`
}

type fieldsUpdate struct {
	Values map[string]json.RawMessage `json:"values" binding:"required"`
}

// rawText turns a JSON value into form text: strings are unquoted, null
// clears the field, arrays of strings become comma separated lists, and
// numbers keep their literal text.
func rawText(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", nil
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[':
		var items []string
		if err := json.Unmarshal(v, &items); err != nil {
			return "", errors.New("list values must be strings")
		}
		return strings.Join(items, ", "), nil
	case '{':
		return "", errors.New("objects are not accepted as field values")
	default:
		return string(v), nil
	}
}

func (s *Server) handleListFields(c *gin.Context) {
	entries := s.model.Entries()
	if d := c.Query("domain"); d != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if string(e.Spec.Domain) == d {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	c.JSON(http.StatusOK, gin.H{"fields": entries})
}

func (s *Server) handleGetField(c *gin.Context) {
	name := domain.FieldName(c.Param("name"))
	spec, ok := domain.LookupField(name)
	if !ok {
		errorResponse(c, http.StatusNotFound, "unknown field", gin.H{"field": name})
		return
	}
	text, _ := s.model.Text(name)
	c.JSON(http.StatusOK, gin.H{"spec": spec, "value": text})
}

func (s *Server) handleSetField(c *gin.Context) {
	name := domain.FieldName(c.Param("name"))
	if _, ok := domain.LookupField(name); !ok {
		errorResponse(c, http.StatusNotFound, "unknown field", gin.H{"field": name})
		return
	}

	var req fieldUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body", gin.H{"details": err.Error()})
		return
	}
	raw, err := rawText(req.Value)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid field value", gin.H{"field": name, "details": err.Error()})
		return
	}

	err = s.model.Set(name, raw)
	if s.metrics != nil {
		s.metrics.FieldUpdated(name, err == nil)
	}
	if err != nil {
		s.validationFailure(c, err)
		return
	}

	text, _ := s.model.Text(name)
	c.JSON(http.StatusOK, gin.H{"field": name, "value": text})
}

func (s *Server) handleApplyFields(c *gin.Context) {
	var req fieldsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body", gin.H{"details": err.Error()})
		return
	}

	values := make(map[domain.FieldName]string, len(req.Values))
	for key, v := range req.Values {
		raw, err := rawText(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid field value", gin.H{"field": key, "details": err.Error()})
			return
		}
		values[domain.FieldName(key)] = raw
	}

	if err := s.model.Apply(values); err != nil {
		s.validationFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": s.model.Entries()})
}

func (s *Server) handleResetFields(c *gin.Context) {
	s.model.Reset()
	s.logger.WithField("correlation_id", c.GetString("correlation_id")).Info("Input fields reset to defaults")
	c.JSON(http.StatusOK, gin.H{"fields": s.model.Entries()})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.model.Snapshot())
}

// validationFailure reports coercion errors. A failure that only names
// unknown fields is a 404; anything else is a 422 listing each problem.
func (s *Server) validationFailure(c *gin.Context, err error) {
	var problems []gin.H
	unknownOnly := true
	for _, e := range flatten(err) {
		var verr *domain.ValidationError
		switch {
		case errors.As(e, &verr):
			unknownOnly = false
			problems = append(problems, gin.H{"field": verr.Field, "message": verr.Message})
		case errors.Is(e, domain.ErrUnknownField):
			problems = append(problems, gin.H{"message": e.Error()})
		default:
			unknownOnly = false
			problems = append(problems, gin.H{"message": e.Error()})
		}
	}

	status := http.StatusUnprocessableEntity
	if unknownOnly {
		status = http.StatusNotFound
	}
	errorResponse(c, status, "field values rejected", gin.H{"problems": problems})
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
