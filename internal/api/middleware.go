package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
)

type contextKey int

const userKey contextKey = iota

// userFrom returns the authenticated user of the request, or nil
func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// viewerOf returns the id of the authenticated user, or nil for anonymous requests
func viewerOf(r *http.Request) *int64 {
	if u := userFrom(r.Context()); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// resolve authenticates the bearer token if one is present. A present but
// invalid token is an error even where authentication is optional.
func (s *Server) resolve(r *http.Request) (*http.Request, error) {
	token := bearerToken(r)
	if token == "" {
		return r, nil
	}
	user, err := s.svc.Authenticate(r.Context(), token)
	if err != nil {
		return r, err
	}
	return r.WithContext(context.WithValue(r.Context(), userKey, user)), nil
}

// authed requires an authenticated user
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, err := s.resolve(r)
		if err != nil {
			s.unauthorized(w, r, err)
			return
		}
		if userFrom(r.Context()) == nil {
			s.unauthorized(w, r, apperr.AuthRequired("not authenticated"))
			return
		}
		next(w, r)
	}
}

// optional serves anonymous and authenticated requests alike
func (s *Server) optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, err := s.resolve(r)
		if err != nil {
			s.unauthorized(w, r, err)
			return
		}
		next(w, r)
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.Is(err, apperr.KindAuthRequired) {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	s.respondErr(w, r, err)
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade take over the connection
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// observe logs every request and records its latency by route pattern
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.ObserveHTTP(r.Method, route, rec.status, elapsed)
		}
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed.String(),
		}).Debug("HTTP request")
	})
}
