package orchestrator

import "time"

// EventType identifies a lifecycle transition.
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventResolved  EventType = "resolved"
	EventDiscarded EventType = "discarded"
)

// Event is delivered to subscribers on every transition. Status is the
// orchestrator view right after the transition.
type Event struct {
	Type       EventType `json:"type"`
	Submission string    `json:"submission_id"`
	Seq        uint64    `json:"seq"`
	Status     Status    `json:"status"`
	At         time.Time `json:"at"`
}

// Subscribe registers a listener with the given buffer size. Delivery never
// blocks the orchestrator: a full buffer drops the event. The returned
// function unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	o.mu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	o.mu.Unlock()

	var once bool
	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if once {
			return
		}
		once = true
		delete(o.subs, id)
		close(ch)
	}
}

func (o *Orchestrator) publishLocked(ev Event) {
	ev.Status = o.statusLocked()
	ev.At = time.Now().UTC()
	for id, ch := range o.subs {
		select {
		case ch <- ev:
		default:
			o.logger.WithField("subscriber", id).Debug("Dropped orchestrator event for slow subscriber")
		}
	}
}
