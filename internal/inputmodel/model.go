// Package inputmodel holds the current value of every risk form field and
// turns it into request snapshots for the prediction service.
package inputmodel

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/genome360-risk-client/internal/domain"
)

type genomicInputs struct {
	polygenicRiskScore float64
	cnvCount           int
	snpRs429358        int
	apoeE4             int
	brca1              int
}

type biomarkerInputs struct {
	cholesterolTotal domain.OptionalFloat
	hdl              domain.OptionalFloat
	ldl              domain.OptionalFloat
	triglycerides    domain.OptionalFloat
	glucoseFasting   domain.OptionalFloat
	hba1c            domain.OptionalFloat
	systolicBP       domain.OptionalFloat
	diastolicBP      domain.OptionalFloat
	familyHistory    string
	comorbidities    string
}

type lifestyleInputs struct {
	dietQuality      int
	physicalActivity float64
	smokingStatus    domain.SmokingStatus
	alcoholUnits     int
	stressLevel      int
	sleepHours       float64
	pollutionIndex   int
}

type pharmacoInputs struct {
	cyp2d6    domain.MetabolizerStatus
	cyp2c19   domain.MetabolizerStatus
	cyp3a4    int
	abcb1     int
	egfrL858R int
}

// values is the composite of all four domains. It holds only scalars and
// strings, so a plain struct copy is a deep copy.
type values struct {
	genomic    genomicInputs
	biomarkers biomarkerInputs
	lifestyle  lifestyleInputs
	pharmaco   pharmacoInputs
}

// Model is the live input form. All methods are safe for concurrent use.
type Model struct {
	mu sync.RWMutex
	v  values
}

// Entry pairs a registry spec with the field's current text form.
type Entry struct {
	Spec  domain.FieldSpec `json:"spec"`
	Value string           `json:"value"`
}

// New returns a model populated with every registry default.
func New() *Model {
	m := &Model{}
	m.v = defaults()
	return m
}

func defaults() values {
	var v values
	for _, spec := range domain.Fields() {
		if err := v.set(spec, spec.Default); err != nil {
			panic(fmt.Sprintf("inputmodel: invalid default for %s: %v", spec.Name, err))
		}
	}
	return v
}

// Reset restores every field to its default.
func (m *Model) Reset() {
	d := defaults()
	m.mu.Lock()
	m.v = d
	m.mu.Unlock()
}

// Set coerces raw form text into the field's type. On error the previous
// value is kept.
func (m *Model) Set(name domain.FieldName, raw string) error {
	spec, ok := domain.LookupField(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.v.set(spec, raw)
}

// Apply sets several fields at once. Either every value is applied or, when
// any value fails coercion, none is and the joined errors are returned.
func (m *Model) Apply(raw map[domain.FieldName]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.v
	var errs []error
	for _, spec := range domain.Fields() {
		text, ok := raw[spec.Name]
		if !ok {
			continue
		}
		if err := next.set(spec, text); err != nil {
			errs = append(errs, err)
		}
	}
	for name := range raw {
		if _, ok := domain.LookupField(name); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", domain.ErrUnknownField, name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.v = next
	return nil
}

// Get returns the typed value of a field: int, float64,
// domain.OptionalFloat, string, domain.SmokingStatus or
// domain.MetabolizerStatus.
func (m *Model) Get(name domain.FieldName) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.v.slot(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
	}
	return s.get(), nil
}

// Text returns the field's current value in form text.
func (m *Model) Text(name domain.FieldName) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.v.slot(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
	}
	return s.text(), nil
}

// Entries lists every field with its current text, in registry order.
func (m *Model) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	specs := domain.Fields()
	out := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		s, _ := m.v.slot(spec.Name)
		out = append(out, Entry{Spec: spec, Value: s.text()})
	}
	return out
}

// Values returns the text form of every field keyed by name.
func (m *Model) Values() map[domain.FieldName]string {
	entries := m.Entries()
	out := make(map[domain.FieldName]string, len(entries))
	for _, e := range entries {
		out[e.Spec.Name] = e.Value
	}
	return out
}

// SetInt stores v in an integer field without range checks.
func (m *Model) SetInt(name domain.FieldName, v int) error {
	return m.setTyped(name, domain.KindInt, func(s slot) error {
		*s.i = v
		return nil
	})
}

// SetFloat stores v in a float field without range checks.
func (m *Model) SetFloat(name domain.FieldName, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NewValidationError(string(name), "must be a finite number", v)
	}
	return m.setTyped(name, domain.KindFloat, func(s slot) error {
		*s.f = v
		return nil
	})
}

// SetMeasurement stores an optional biomarker value.
func (m *Model) SetMeasurement(name domain.FieldName, v domain.OptionalFloat) error {
	if f, ok := v.Get(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return domain.NewValidationError(string(name), "must be a finite number", f)
	}
	return m.setTyped(name, domain.KindOptional, func(s slot) error {
		*s.opt = v
		return nil
	})
}

// SetText stores the raw text of a list field.
func (m *Model) SetText(name domain.FieldName, v string) error {
	return m.setTyped(name, domain.KindList, func(s slot) error {
		*s.str = v
		return nil
	})
}

// SetSmokingStatus stores a validated smoking status.
func (m *Model) SetSmokingStatus(v domain.SmokingStatus) error {
	status, err := domain.ParseSmokingStatus(string(v))
	if err != nil {
		return err
	}
	return m.setTyped(domain.FieldSmokingStatus, domain.KindEnum, func(s slot) error {
		*s.smoking = status
		return nil
	})
}

// SetMetabolizer stores a validated metabolizer status.
func (m *Model) SetMetabolizer(name domain.FieldName, v domain.MetabolizerStatus) error {
	status, err := domain.ParseMetabolizerStatus(name, string(v))
	if err != nil {
		return err
	}
	return m.setTyped(name, domain.KindEnum, func(s slot) error {
		if s.metab == nil {
			return domain.NewValidationError(string(name), "is not a metabolizer field", v)
		}
		*s.metab = status
		return nil
	})
}

func (m *Model) setTyped(name domain.FieldName, kind domain.FieldKind, assign func(slot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.v.slot(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
	}
	if s.spec.Kind != kind {
		return domain.NewValidationError(string(name), fmt.Sprintf("is a %s field, not %s", s.spec.Kind, kind), nil)
	}
	return assign(s)
}

// set applies coercion for spec. It is the only path that parses form text.
func (v *values) set(spec domain.FieldSpec, raw string) error {
	s, ok := v.slot(spec.Name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownField, spec.Name)
	}
	field := string(spec.Name)
	trimmed := strings.TrimSpace(raw)

	switch spec.Kind {
	case domain.KindInt:
		n, err := parseInt(trimmed)
		if err != nil {
			return domain.NewValidationError(field, "must be an integer", raw)
		}
		*s.i = n
	case domain.KindFloat:
		f, err := parseFinite(trimmed)
		if err != nil {
			return domain.NewValidationError(field, "must be a number", raw)
		}
		*s.f = f
	case domain.KindOptional:
		if trimmed == "" {
			*s.opt = domain.Absent()
			return nil
		}
		f, err := parseFinite(trimmed)
		if err != nil {
			return domain.NewValidationError(field, "must be a number or empty", raw)
		}
		*s.opt = domain.Present(f)
	case domain.KindList:
		*s.str = raw
	case domain.KindEnum:
		if s.smoking != nil {
			status, err := domain.ParseSmokingStatus(trimmed)
			if err != nil {
				return err
			}
			*s.smoking = status
			return nil
		}
		status, err := domain.ParseMetabolizerStatus(spec.Name, trimmed)
		if err != nil {
			return err
		}
		*s.metab = status
	default:
		return fmt.Errorf("field %s has unsupported kind %s", spec.Name, spec.Kind)
	}
	return nil
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseFinite(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return f, nil
}
