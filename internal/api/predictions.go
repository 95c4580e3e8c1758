package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/genome360-risk-client/internal/logging"
	"github.com/genome360-risk-client/internal/orchestrator"
	"github.com/genome360-risk-client/internal/render"
)

const (
	eventBuffer  = 16
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// resultView is the rendered orchestrator state. Running is true while any
// call is outstanding, even when a result from another call is shown.
type resultView struct {
	State        orchestrator.State `json:"state"`
	Running      bool               `json:"running"`
	InFlight     int                `json:"in_flight"`
	SubmissionID string             `json:"submission_id,omitempty"`
	Summary      render.Summary     `json:"summary"`
	Raw          json.RawMessage    `json:"raw,omitempty"`
}

func newResultView(st orchestrator.Status) resultView {
	return resultView{
		State:        st.State,
		Running:      st.InFlight > 0,
		InFlight:     st.InFlight,
		SubmissionID: st.Result.SubmissionID,
		Summary:      render.Summarize(st.Result),
		Raw:          st.Result.RawJSON(),
	}
}

type eventView struct {
	Type         orchestrator.EventType `json:"type"`
	SubmissionID string                 `json:"submission_id"`
	Seq          uint64                 `json:"seq"`
	At           time.Time              `json:"at"`
	Result       resultView             `json:"result"`
}

type historyView struct {
	SubmissionID string         `json:"submission_id"`
	Seq          uint64         `json:"seq"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Kept         bool           `json:"kept"`
	DurationMS   int64          `json:"duration_ms"`
	Summary      render.Summary `json:"summary"`
}

func newHistoryView(e orchestrator.Entry) historyView {
	return historyView{
		SubmissionID: e.SubmissionID,
		Seq:          e.Seq,
		SubmittedAt:  e.SubmittedAt,
		Kept:         e.Kept,
		DurationMS:   e.Result.Duration.Milliseconds(),
		Summary:      render.Summarize(e.Result),
	}
}

// handlePredict starts a submission. With ?wait=true the response is held
// until that submission resolves or the client goes away.
func (s *Server) handlePredict(c *gin.Context) {
	sub := s.orchestrator.Submit()
	logging.FromContext(c.Request.Context(), s.logger).WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"seq":           sub.Seq,
	}).Info("Prediction requested over HTTP")

	wait, _ := strconv.ParseBool(c.Query("wait"))
	if !wait {
		c.JSON(http.StatusAccepted, gin.H{
			"submission_id": sub.ID,
			"seq":           sub.Seq,
			"state":         orchestrator.StatePending,
		})
		return
	}

	select {
	case <-sub.Done():
	case <-c.Request.Context().Done():
		return
	}

	if h := s.orchestrator.History(); h != nil {
		if entry, ok := h.Get(sub.ID); ok {
			c.JSON(http.StatusOK, newHistoryView(entry))
			return
		}
	}
	c.JSON(http.StatusOK, newResultView(s.orchestrator.Status()))
}

func (s *Server) handleResult(c *gin.Context) {
	c.JSON(http.StatusOK, newResultView(s.orchestrator.Status()))
}

func (s *Server) handleHistory(c *gin.Context) {
	h := s.orchestrator.History()
	if h == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []historyView{}})
		return
	}
	recent := h.Recent()
	views := make([]historyView, 0, len(recent))
	for _, e := range recent {
		views = append(views, newHistoryView(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}

func (s *Server) handleHistoryEntry(c *gin.Context) {
	h := s.orchestrator.History()
	if h == nil {
		errorResponse(c, http.StatusNotFound, "history is disabled", nil)
		return
	}
	entry, ok := h.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "submission not found", gin.H{"submission_id": c.Param("id")})
		return
	}
	view := newHistoryView(entry)
	c.JSON(http.StatusOK, gin.H{
		"entry": view,
		"raw":   entry.Result.RawJSON(),
	})
}

// handleEvents streams lifecycle events over a websocket. The current state
// is sent first so late subscribers start consistent.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := s.orchestrator.Subscribe(eventBuffer)
	defer unsubscribe()

	log := s.logger.WithField("correlation_id", c.GetString("correlation_id"))
	log.Debug("Event stream opened")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	st := s.orchestrator.Status()
	if err := s.writeEvent(conn, eventView{
		Type:         "state",
		SubmissionID: st.LastSubmission,
		At:           time.Now().UTC(),
		Result:       newResultView(st),
	}); err != nil {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			view := eventView{
				Type:         ev.Type,
				SubmissionID: ev.Submission,
				Seq:          ev.Seq,
				At:           ev.At,
				Result:       newResultView(ev.Status),
			}
			if err := s.writeEvent(conn, view); err != nil {
				log.WithError(err).Debug("Event stream write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Debug("Event stream closed by client")
			return
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, v eventView) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
