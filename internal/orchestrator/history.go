package orchestrator

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/genome360-risk-client/internal/domain"
)

// DefaultHistorySize bounds the outcome store when no size is configured.
const DefaultHistorySize = 50

// Entry is one resolved submission. Kept is false when strict ordering
// discarded the outcome.
type Entry struct {
	SubmissionID string        `json:"submission_id"`
	Seq          uint64        `json:"seq"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	Result       domain.Result `json:"result"`
	Kept         bool          `json:"kept"`
}

// History holds the most recent resolved submissions.
type History struct {
	cache *lru.Cache[string, Entry]
}

// NewHistory creates a store holding up to size entries.
func NewHistory(size int) (*History, error) {
	if size <= 0 {
		size = DefaultHistorySize
	}
	cache, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &History{cache: cache}, nil
}

// Add records the outcome of sub.
func (h *History) Add(sub *Submission, result domain.Result, kept bool) {
	h.cache.Add(sub.ID, Entry{
		SubmissionID: sub.ID,
		Seq:          sub.Seq,
		SubmittedAt:  sub.Started,
		Result:       result,
		Kept:         kept,
	})
}

// Get looks up a submission by id.
func (h *History) Get(id string) (Entry, bool) {
	return h.cache.Peek(id)
}

// Recent returns entries newest first.
func (h *History) Recent() []Entry {
	values := h.cache.Values()
	out := make([]Entry, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		out = append(out, values[i])
	}
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return h.cache.Len()
}

// Purge empties the store.
func (h *History) Purge() {
	h.cache.Purge()
}
