package api

import (
	"mime"
	"net/http"

	"github.com/Kerhoff/listshare/internal/service"
)

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.svc.Register(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, user)
}

// handleLogin accepts the OAuth2 password form as well as a JSON body
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	token, err := s.svc.Login(r.Context(), req)
	if err != nil {
		s.unauthorized(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, token)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "user")
	if !ok {
		return
	}

	profile, err := s.svc.Profile(r.Context(), viewerOf(r), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, profile)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.PasswordChange
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.ChangePassword(r.Context(), userFrom(r.Context()).ID, req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req service.EmailChange
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.svc.ChangeEmail(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req service.AccountDeletion
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.DeleteAccount(r.Context(), userFrom(r.Context()).ID, req); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}
