package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/metrics"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
	"github.com/Kerhoff/listshare/internal/service"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server provides the HTTP API.
type Server struct {
	svc     *service.Service
	live    http.Handler
	health  HealthChecker
	metrics *metrics.Metrics
	logger  *logrus.Logger
	mux     *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it. live
// serves the websocket channel; health may be nil when there is no database.
func NewServer(svc *service.Service, live http.Handler, health HealthChecker, m *metrics.Metrics, logger *logrus.Logger) *Server {
	s := &Server{
		svc:     svc,
		live:    live,
		health:  health,
		metrics: m,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.observe(s.mux)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// Accounts
	s.mux.HandleFunc("POST /auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /auth/token", s.handleLogin)
	s.mux.HandleFunc("GET /users/me", s.authed(s.handleMe))
	s.mux.HandleFunc("GET /users/{id}", s.optional(s.handleProfile))

	// Settings
	s.mux.HandleFunc("PUT /settings/password", s.authed(s.handleChangePassword))
	s.mux.HandleFunc("PUT /settings/email", s.authed(s.handleChangeEmail))
	s.mux.HandleFunc("DELETE /settings/account", s.authed(s.handleDeleteAccount))

	// Lists
	s.mux.HandleFunc("GET /lists", s.authed(s.handleMyLists))
	s.mux.HandleFunc("POST /lists", s.authed(s.handleCreateList))
	s.mux.HandleFunc("GET /lists/{id}", s.optional(s.handleGetList))
	s.mux.HandleFunc("PUT /lists/{id}", s.authed(s.handleUpdateList))
	s.mux.HandleFunc("DELETE /lists/{id}", s.authed(s.handleDeleteList))

	// Public & feeds
	s.mux.HandleFunc("GET /public/lists/{key}", s.optional(s.handleSharedList))
	s.mux.HandleFunc("GET /public/feed", s.handlePublicFeed)
	s.mux.HandleFunc("GET /feed/friends", s.authed(s.handleFriendsFeed))

	// Items
	s.mux.HandleFunc("POST /lists/{id}/items", s.authed(s.handleCreateItem))
	s.mux.HandleFunc("PUT /items/{id}", s.authed(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /items/{id}", s.authed(s.handleDeleteItem))
	s.mux.HandleFunc("POST /items/{id}/copy", s.authed(s.handleCopyItem))

	// Interactions
	s.mux.HandleFunc("POST /items/{id}/like", s.authed(s.handleLike))
	s.mux.HandleFunc("DELETE /items/{id}/like", s.authed(s.handleUnlike))
	s.mux.HandleFunc("POST /items/{id}/comments", s.authed(s.handleComment))
	s.mux.HandleFunc("DELETE /comments/{id}", s.authed(s.handleDeleteComment))
	s.mux.HandleFunc("POST /items/{id}/reserve", s.authed(s.handleReserve))
	s.mux.HandleFunc("DELETE /items/{id}/unreserve", s.authed(s.handleUnreserve))

	// Goals
	s.mux.HandleFunc("POST /items/{id}/goal", s.authed(s.handleCreateGoal))
	s.mux.HandleFunc("PUT /goals/{id}", s.authed(s.handleUpdateGoal))
	s.mux.HandleFunc("POST /goals/{id}/log", s.authed(s.handleLogGoal))
	s.mux.HandleFunc("GET /goals/{id}/logs", s.authed(s.handleGoalLogs))

	// Friends
	s.mux.HandleFunc("GET /friends", s.authed(s.handleFriends))
	s.mux.HandleFunc("POST /friends/request/{user_id}", s.authed(s.handleSendFriendRequest))
	s.mux.HandleFunc("POST /friends/accept/{id}", s.authed(s.handleAcceptFriend))
	s.mux.HandleFunc("POST /friends/decline/{id}", s.authed(s.handleDeclineFriend))
	s.mux.HandleFunc("DELETE /friends/{id}", s.authed(s.handleRemoveFriend))

	// Notifications
	s.mux.HandleFunc("GET /notifications", s.authed(s.handleNotifications))
	s.mux.HandleFunc("POST /notifications/{id}/read", s.authed(s.handleMarkRead))
	s.mux.HandleFunc("POST /notifications/read-all", s.authed(s.handleMarkAllRead))

	// Live channel & health
	if s.live != nil {
		s.mux.Handle("GET /ws", s.live)
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error  string              `json:"error"`
	Reason string              `json:"reason,omitempty"`
	Owner  *models.UserSummary `json:"owner,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorBody{Error: message})
}

// respondErr maps err onto a status code. Anything outside the error
// taxonomy is logged and hidden behind a 500.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	body := errorBody{Error: ae.Message, Reason: ae.Reason, Owner: ae.Owner}
	s.respondJSON(w, statusOf(ae.Kind), body)
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindAuthRequired:
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathInt extracts a numeric path value.
func pathInt(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// pathID extracts the {id} path value and converts it to int64. It writes a
// 400 and returns false when the value is not a number.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := pathInt(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+what+" id")
		return 0, false
	}
	return id, true
}

// pageOf reads the offset and limit query parameters. Bad values are ignored.
func pageOf(r *http.Request) repository.Page {
	q := r.URL.Query()
	var page repository.Page
	if limit := q.Get("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			page.Limit = v
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			page.Offset = v
		}
	}
	return page.Normalize()
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Health(r.Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
