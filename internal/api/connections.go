package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/topiclab/internal/audit"
	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
)

const (
	// maxPressCount caps the repeats a single press may request.
	maxPressCount = 100

	// defaultMultiSendInterval applies when a multi-send button has no
	// interval set.
	defaultMultiSendInterval = time.Second
)

type pressRequest struct {
	// Count is honoured only for buttons with multi-send enabled.
	Count int `json:"count"`
}

type pressResponse struct {
	Topic     string `json:"topic"`
	Payload   string `json:"payload"`
	Requested int    `json:"requested"`
	Sent      int    `json:"sent"`
}

type subscribeSavedRequest struct {
	QoS mqtt.QoS `json:"qos"`
}

// savedConnection loads the connection named by the {id} URL parameter.
func (s *Server) savedConnection(r *http.Request) (profile.Connection, error) {
	data, err := s.store.Load(r.Context())
	if err != nil {
		return profile.Connection{}, err
	}
	return data.Connection(chi.URLParam(r, "id"))
}

// decodeOptional decodes a JSON body into v, treating an empty body as
// all defaults.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pressLimit returns how many publishes a press may make at interval so
// that the last one, including its own publish timeout, finishes within
// writeTimeout. A zero writeTimeout means no deadline.
func pressLimit(interval, writeTimeout time.Duration) int {
	if writeTimeout <= 0 {
		return maxPressCount
	}
	budget := writeTimeout - sessionOpTimeout
	if budget <= 0 || interval <= 0 {
		return 1
	}
	return min(1+int(budget/interval), maxPressCount)
}

// handlePressButton publishes a saved button after substituting the
// connection's variables into its topic and payload.
//
// A multi-send button publishes Count times, MultiSendInterval
// milliseconds apart. Count is capped so the burst ends before the
// server's write deadline. The response reports how many publishes
// were requested and how many completed.
func (s *Server) handlePressButton(w http.ResponseWriter, r *http.Request) {
	var req pressRequest
	if err := decodeOptional(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	conn, err := s.savedConnection(r)
	if err != nil {
		writeProfileError(w, err)
		return
	}
	button, err := conn.Button(chi.URLParam(r, "buttonID"))
	if err != nil {
		writeProfileError(w, err)
		return
	}

	interval := time.Duration(button.MultiSendInterval) * time.Millisecond
	if interval <= 0 {
		interval = defaultMultiSendInterval
	}
	requested, count := 1, 1
	if button.MultiSendEnabled && req.Count > 1 {
		requested = req.Count
		count = min(req.Count, pressLimit(interval, s.writeTimeout()))
	}

	topic, payload := button.Resolve(conn.Variables)
	resp := pressResponse{Topic: topic, Payload: payload, Requested: requested}

	for i := 0; i < count; i++ {
		if i > 0 && !sleepCtx(r.Context(), interval) {
			break
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
		err := s.session.Publish(ctx, topic, []byte(payload), button.QoS, button.Retain)
		cancel()
		if err != nil {
			if resp.Sent == 0 {
				writeSessionError(w, err)
				return
			}
			s.logger.Warn("multi-send stopped early", "button", button.ID, "sent", resp.Sent, "error", err)
			break
		}
		resp.Sent++
	}

	s.auditLog(r, audit.ActionPress, audit.EntityButton, button.ID, map[string]any{
		"connection": conn.ID,
		"topic":      topic,
		"sent":       resp.Sent,
	})
	writeJSON(w, http.StatusOK, resp)
}

// handleSubscribeSaved subscribes to every saved filter of a connection,
// after substitution. It stops at the first failure.
func (s *Server) handleSubscribeSaved(w http.ResponseWriter, r *http.Request) {
	var req subscribeSavedRequest
	if err := decodeOptional(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	conn, err := s.savedConnection(r)
	if err != nil {
		writeProfileError(w, err)
		return
	}

	topics := conn.ResolvedSubscriptions()
	for _, topic := range topics {
		ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
		err := s.session.Subscribe(ctx, topic, req.QoS)
		cancel()
		if err != nil {
			writeSessionError(w, err)
			return
		}
	}
	s.auditLog(r, audit.ActionSubscribe, audit.EntityConnection, conn.ID, map[string]any{"topics": topics})

	writeJSON(w, http.StatusOK, subscriptionsResponse{Subscriptions: s.session.Subscriptions()})
}

// sleepCtx waits for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
