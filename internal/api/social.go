package api

import (
	"net/http"

	"github.com/Kerhoff/listshare/internal/service"
)

// ---------------------------------------------------------------------------
// Interactions
// ---------------------------------------------------------------------------

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}

	state, err := s.svc.Like(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, state)
}

func (s *Server) handleUnlike(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}

	state, err := s.svc.Unlike(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}
	var req service.CommentInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	comment, err := s.svc.Comment(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "comment")
	if !ok {
		return
	}

	if err := s.svc.DeleteComment(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}

	res, err := s.svc.Reserve(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleUnreserve(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}

	if err := s.svc.Unreserve(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Friends
// ---------------------------------------------------------------------------

func (s *Server) handleFriends(w http.ResponseWriter, r *http.Request) {
	overview, err := s.svc.Friends.Overview(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	addresseeID, err := pathInt(r, "user_id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	f, err := s.svc.Friends.SendRequest(r.Context(), userFrom(r.Context()).ID, addresseeID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, f)
}

func (s *Server) handleAcceptFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "request")
	if !ok {
		return
	}

	f, err := s.svc.Friends.Accept(r.Context(), id, userFrom(r.Context()).ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeclineFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "request")
	if !ok {
		return
	}

	if err := s.svc.Friends.Decline(r.Context(), id, userFrom(r.Context()).ID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "friendship")
	if !ok {
		return
	}

	if err := s.svc.Friends.Remove(r.Context(), id, userFrom(r.Context()).ID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	listing, err := s.svc.Inbox.List(r.Context(), userFrom(r.Context()).ID, pageOf(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "notification")
	if !ok {
		return
	}

	changed, err := s.svc.Inbox.MarkRead(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "is_read": true, "changed": changed})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Inbox.MarkAllRead(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
