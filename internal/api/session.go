package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nerrad567/topiclab/internal/audit"
	"github.com/nerrad567/topiclab/internal/infrastructure/mqtt"
	"github.com/nerrad567/topiclab/internal/profile"
	"github.com/nerrad567/topiclab/internal/session"
)

// sessionOpTimeout bounds a single publish, subscribe or unsubscribe.
const sessionOpTimeout = 10 * time.Second

type statusResponse struct {
	Status     session.Status          `json:"status"`
	Connection *session.ConnectionInfo `json:"connection"`
}

type publishRequest struct {
	Topic   string   `json:"topic"`
	Payload string   `json:"payload"`
	QoS     mqtt.QoS `json:"qos"`
	Retain  bool     `json:"retain"`
}

type subscribeRequest struct {
	Topic string   `json:"topic"`
	QoS   mqtt.QoS `json:"qos"`
}

type subscriptionsResponse struct {
	Subscriptions []string `json:"subscriptions"`
}

// handleConnect connects the session to the posted connection profile and
// records it as the last used connection when it is a saved profile.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var conn profile.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if err := conn.Validate(); err != nil {
		writeProfileError(w, err)
		return
	}

	cfg := conn.SessionConfig()
	if err := s.session.Connect(r.Context(), cfg); err != nil {
		writeSessionError(w, err)
		return
	}

	s.rememberLastConnection(r.Context(), conn.ID)
	s.auditLog(r, audit.ActionConnect, audit.EntityConnection, conn.ID, map[string]any{
		"broker": cfg.BrokerURL,
		"port":   cfg.Port,
	})

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     s.session.Status(),
		Connection: s.session.Current(),
	})
}

// rememberLastConnection stores id as last_connection_id if it names a
// saved profile. Failures are logged and do not affect the session.
func (s *Server) rememberLastConnection(ctx context.Context, id string) {
	data, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("loading profiles to record last connection", "error", err)
		return
	}
	if _, err := data.Connection(id); err != nil || data.LastConnectionID == id {
		return
	}
	data.LastConnectionID = id
	if err := s.store.Save(ctx, data); err != nil {
		s.logger.Warn("saving last connection", "error", err)
	}
}

// handleDisconnect stops the session. It succeeds when already disconnected.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	info := s.session.Disconnect()
	if info != nil {
		s.auditLog(r, audit.ActionDisconnect, audit.EntitySession, "", map[string]any{"name": info.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       s.session.Status(),
		"disconnected": info,
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:     s.session.Status(),
		Connection: s.session.Current(),
	})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
	defer cancel()

	if err := s.session.Publish(ctx, req.Topic, []byte(req.Payload), req.QoS, req.Retain); err != nil {
		writeSessionError(w, err)
		return
	}
	s.auditLog(r, audit.ActionPublish, audit.EntitySession, "", map[string]any{
		"topic":  req.Topic,
		"qos":    req.QoS,
		"retain": req.Retain,
		"size":   len(req.Payload),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
	defer cancel()

	if err := s.session.Subscribe(ctx, req.Topic, req.QoS); err != nil {
		writeSessionError(w, err)
		return
	}
	s.auditLog(r, audit.ActionSubscribe, audit.EntitySession, "", map[string]any{"topic": req.Topic})
	writeJSON(w, http.StatusOK, subscriptionsResponse{Subscriptions: s.session.Subscriptions()})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionOpTimeout)
	defer cancel()

	if err := s.session.Unsubscribe(ctx, req.Topic); err != nil {
		writeSessionError(w, err)
		return
	}
	s.auditLog(r, audit.ActionUnsubscribe, audit.EntitySession, "", map[string]any{"topic": req.Topic})
	writeJSON(w, http.StatusOK, subscriptionsResponse{Subscriptions: s.session.Subscriptions()})
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, subscriptionsResponse{Subscriptions: s.session.Subscriptions()})
}

func (s *Server) handleListMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": s.session.Messages(),
	})
}

func (s *Server) handleClearMessages(w http.ResponseWriter, _ *http.Request) {
	s.session.ClearMessages()
	w.WriteHeader(http.StatusNoContent)
}
