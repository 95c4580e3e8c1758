// Package health runs readiness checks against the prediction service and
// the local orchestrator.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State is the health of one component or of the whole process.
type State string

const (
	StateHealthy   State = "healthy"
	StateWarning   State = "warning"
	StateUnhealthy State = "unhealthy"
)

// Component is the outcome of one check.
type Component struct {
	Name        string         `json:"name"`
	Status      State          `json:"status"`
	Message     string         `json:"message"`
	LastChecked time.Time      `json:"last_checked"`
	DurationMS  int64          `json:"duration_ms"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Status aggregates every component.
type Status struct {
	Overall    State                `json:"status"`
	Timestamp  time.Time            `json:"timestamp"`
	Uptime     string               `json:"uptime"`
	Components map[string]Component `json:"components"`
}

// HTTPStatus maps the overall state to a response code. Warnings still
// report ready.
func (s Status) HTTPStatus() int {
	if s.Overall == StateUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Check is a single readiness probe.
type Check interface {
	Name() string
	Check(ctx context.Context) Component
}

// Checker runs its checks in parallel on demand.
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  *logrus.Logger
	started time.Time

	mu   sync.Mutex
	last State
}

// NewChecker creates a checker bounding each run by timeout.
func NewChecker(logger *logrus.Logger, timeout time.Duration, checks ...Check) *Checker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  checks,
		timeout: timeout,
		logger:  logger,
		started: time.Now(),
		last:    StateHealthy,
	}
}

// Run executes every check and aggregates the result. A check that fails is
// unhealthy; one that degrades is a warning.
func (h *Checker) Run(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	results := make(chan Component, len(h.checks))
	var wg sync.WaitGroup
	for _, check := range h.checks {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			results <- c.Check(ctx)
		}(check)
	}
	wg.Wait()
	close(results)

	status := Status{
		Overall:    StateHealthy,
		Timestamp:  start,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: make(map[string]Component, len(h.checks)),
	}
	var degraded []string
	for c := range results {
		status.Components[c.Name] = c
		switch c.Status {
		case StateUnhealthy:
			status.Overall = StateUnhealthy
			degraded = append(degraded, c.Name)
		case StateWarning:
			if status.Overall == StateHealthy {
				status.Overall = StateWarning
			}
			degraded = append(degraded, c.Name)
		}
	}
	sort.Strings(degraded)

	h.mu.Lock()
	changed := h.last != status.Overall
	h.last = status.Overall
	h.mu.Unlock()

	if changed {
		h.logger.WithFields(logrus.Fields{
			"status":     status.Overall,
			"components": degraded,
		}).Warn("Readiness changed")
	}
	return status
}

// BreakerReporter exposes a circuit breaker state name.
type BreakerReporter interface {
	BreakerState() string
}

// PredictorCheck probes the prediction service's base address. Any HTTP
// response below 500 counts as reachable; an open breaker is a warning.
type PredictorCheck struct {
	baseURL string
	breaker BreakerReporter
	client  *http.Client
}

// NewPredictorCheck creates a reachability probe for baseURL.
func NewPredictorCheck(baseURL string, breaker BreakerReporter) *PredictorCheck {
	return &PredictorCheck{
		baseURL: baseURL,
		breaker: breaker,
		client:  &http.Client{},
	}
}

func (p *PredictorCheck) Name() string {
	return "predictor"
}

func (p *PredictorCheck) Check(ctx context.Context) (c Component) {
	start := time.Now()
	c = Component{
		Name:     p.Name(),
		Status:   StateHealthy,
		Metadata: map[string]any{"base_url": p.baseURL},
	}
	defer func() {
		c.LastChecked = time.Now()
		c.DurationMS = time.Since(start).Milliseconds()
	}()

	if p.breaker != nil {
		state := p.breaker.BreakerState()
		c.Metadata["circuit_breaker"] = state
		if state == "open" {
			c.Status = StateWarning
			c.Message = "circuit breaker is open"
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		c.Status = StateUnhealthy
		c.Message = fmt.Sprintf("invalid address: %v", err)
		return c
	}
	resp, err := p.client.Do(req)
	if err != nil {
		c.Status = StateUnhealthy
		c.Message = fmt.Sprintf("unreachable: %v", err)
		return c
	}
	resp.Body.Close()

	c.Metadata["http_status"] = resp.StatusCode
	if resp.StatusCode >= 500 {
		c.Status = StateWarning
		c.Message = fmt.Sprintf("service responded with HTTP %d", resp.StatusCode)
		return c
	}
	if c.Message == "" {
		c.Message = "reachable"
	}
	return c
}

// InFlightReporter exposes the number of unresolved prediction calls.
type InFlightReporter interface {
	InFlight() int
}

// OrchestratorCheck reports outstanding calls. It never fails.
type OrchestratorCheck struct {
	source InFlightReporter
}

// NewOrchestratorCheck creates a check reporting src's in-flight count.
func NewOrchestratorCheck(src InFlightReporter) *OrchestratorCheck {
	return &OrchestratorCheck{source: src}
}

func (o *OrchestratorCheck) Name() string {
	return "orchestrator"
}

func (o *OrchestratorCheck) Check(ctx context.Context) Component {
	n := o.source.InFlight()
	return Component{
		Name:        o.Name(),
		Status:      StateHealthy,
		Message:     fmt.Sprintf("%d prediction(s) in flight", n),
		LastChecked: time.Now(),
		Metadata:    map[string]any{"in_flight": n},
	}
}
