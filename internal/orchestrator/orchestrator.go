// Package orchestrator runs prediction submissions and owns the single
// result slot shown to the user.
//
// Lifecycle:
//
//	Idle --Submit--> Pending --success--> Fulfilled
//	                         --failure--> Failed
//
// Submit is accepted from every state. Overlapping submissions each make one
// call; whichever resolves last sets the result unless strict ordering is
// enabled, in which case only the most recently issued submission may.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/genome360-risk-client/internal/domain"
)

// State is the orchestrator lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateFulfilled State = "fulfilled"
	StateFailed    State = "failed"
)

// Recorder receives lifecycle measurements. internal/metrics provides the
// Prometheus implementation.
type Recorder interface {
	Submitted()
	Resolved(status domain.ResultStatus, took time.Duration)
	Discarded()
	InFlight(n int)
}

type nopRecorder struct{}

func (nopRecorder) Submitted()                                  {}
func (nopRecorder) Resolved(domain.ResultStatus, time.Duration) {}
func (nopRecorder) Discarded()                                  {}
func (nopRecorder) InFlight(int)                                {}

// Submission is a handle on one in-flight call.
type Submission struct {
	ID      string
	Seq     uint64
	Request *domain.PredictionRequest
	Started time.Time
	done    chan struct{}
}

// Done is closed once the submission has resolved, whether or not its
// outcome was kept.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Status is a consistent view of the orchestrator.
type Status struct {
	State          State         `json:"state"`
	Result         domain.Result `json:"result"`
	InFlight       int           `json:"in_flight"`
	LastSubmission string        `json:"last_submission,omitempty"`
}

// Orchestrator snapshots the input source on Submit, calls the predictor and
// tracks the outcome. It is safe for concurrent use.
type Orchestrator struct {
	source    domain.SnapshotSource
	predictor domain.Predictor
	logger    *logrus.Logger
	recorder  Recorder
	history   *History
	strict    bool
	baseCtx   context.Context

	mu       sync.Mutex
	state    State
	result   domain.Result
	seq      uint64
	lastID   string
	inFlight int
	subs     map[int]chan Event
	nextSub  int
	wg       sync.WaitGroup
}

// Option is a functional option for Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithHistory keeps resolved outcomes in h.
func WithHistory(h *History) Option {
	return func(o *Orchestrator) {
		o.history = h
	}
}

// WithStrictOrdering discards any resolution whose sequence number is not
// the latest issued.
func WithStrictOrdering() Option {
	return func(o *Orchestrator) {
		o.strict = true
	}
}

// WithBaseContext sets the context every call runs under. Calls are not
// cancelled by the caller of Submit.
func WithBaseContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.baseCtx = ctx
		}
	}
}

// New creates an orchestrator in the Idle state.
func New(source domain.SnapshotSource, predictor domain.Predictor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:    source,
		predictor: predictor,
		logger:    logrus.StandardLogger(),
		recorder:  nopRecorder{},
		baseCtx:   context.Background(),
		state:     StateIdle,
		result:    domain.Result{Status: domain.ResultAbsent},
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit snapshots the inputs, clears the current result and starts exactly
// one prediction call. It never blocks on the network.
func (o *Orchestrator) Submit() *Submission {
	req := o.source.Snapshot()

	o.mu.Lock()
	o.seq++
	sub := &Submission{
		ID:      uuid.New().String(),
		Seq:     o.seq,
		Request: req,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	o.state = StatePending
	o.result = domain.Result{Status: domain.ResultAbsent}
	o.lastID = sub.ID
	o.inFlight++
	inFlight := o.inFlight
	o.publishLocked(Event{Type: EventSubmitted, Submission: sub.ID, Seq: sub.Seq})
	o.wg.Add(1)
	o.mu.Unlock()

	o.recorder.Submitted()
	o.recorder.InFlight(inFlight)
	o.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"seq":           sub.Seq,
		"in_flight":     inFlight,
	}).Info("Prediction submitted")

	go o.run(sub)
	return sub
}

func (o *Orchestrator) run(sub *Submission) {
	defer o.wg.Done()
	defer close(sub.done)

	resp, err := o.predictor.Predict(o.baseCtx, sub.Request)
	took := time.Since(sub.Started)

	var outcome domain.Result
	if err != nil {
		outcome = domain.NewFailedResult(sub.ID, err, took)
	} else {
		outcome = domain.NewFulfilledResult(sub.ID, resp, took)
	}
	o.resolve(sub, outcome)
}

func (o *Orchestrator) resolve(sub *Submission, outcome domain.Result) {
	log := o.logger.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"seq":           sub.Seq,
		"status":        outcome.Status,
		"duration_ms":   outcome.Duration.Milliseconds(),
	})

	o.mu.Lock()
	o.inFlight--
	inFlight := o.inFlight
	stale := o.strict && sub.Seq != o.seq
	if stale {
		o.publishLocked(Event{Type: EventDiscarded, Submission: sub.ID, Seq: sub.Seq})
	} else {
		o.result = outcome
		if outcome.Status == domain.ResultFulfilled {
			o.state = StateFulfilled
		} else {
			o.state = StateFailed
		}
		o.publishLocked(Event{Type: EventResolved, Submission: sub.ID, Seq: sub.Seq})
	}
	o.mu.Unlock()

	if o.history != nil {
		o.history.Add(sub, outcome, !stale)
	}
	o.recorder.InFlight(inFlight)
	if stale {
		o.recorder.Discarded()
		log.Info("Discarded out-of-order prediction result")
		return
	}
	o.recorder.Resolved(outcome.Status, outcome.Duration)
	if outcome.Status == domain.ResultFailed {
		log.WithField("error", outcome.Error).Warn("Prediction failed")
	} else {
		log.Info("Prediction fulfilled")
	}
}

// State returns the lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the current result slot.
func (o *Orchestrator) Result() domain.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// InFlight returns the number of calls that have not resolved yet.
func (o *Orchestrator) InFlight() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

// Status returns state, result and in-flight count under one lock.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statusLocked()
}

func (o *Orchestrator) statusLocked() Status {
	return Status{
		State:          o.state,
		Result:         o.result,
		InFlight:       o.inFlight,
		LastSubmission: o.lastID,
	}
}

// History returns the recent outcome store, or nil.
func (o *Orchestrator) History() *History {
	return o.history
}

// Wait blocks until every in-flight call has resolved or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
