package api

import (
	"net/http"

	"github.com/Kerhoff/listshare/internal/service"
)

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func (s *Server) handleMyLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.MyLists(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req service.CreateListInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := s.svc.CreateList(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, list)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "list")
	if !ok {
		return
	}

	view, err := s.svc.GetList(r.Context(), viewerOf(r), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "list")
	if !ok {
		return
	}
	var req service.UpdateListInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := s.svc.UpdateList(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "list")
	if !ok {
		return
	}

	if err := s.svc.DeleteList(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Public & feeds
// ---------------------------------------------------------------------------

func (s *Server) handleSharedList(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.GetListByPublicKey(r.Context(), viewerOf(r), r.PathValue("key"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handlePublicFeed(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.PublicFeed(r.Context(), pageOf(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleFriendsFeed(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.FriendsFeed(r.Context(), userFrom(r.Context()).ID, pageOf(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lists)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	listID, ok := s.pathID(w, r, "list")
	if !ok {
		return
	}
	var req service.CreateItemInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CreateItem(r.Context(), userFrom(r.Context()).ID, listID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}
	var req service.UpdateItemInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.UpdateItem(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}

	if err := s.svc.DeleteItem(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCopyItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}
	var req service.CopyItemInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CopyItem(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

// ---------------------------------------------------------------------------
// Goals
// ---------------------------------------------------------------------------

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathID(w, r, "item")
	if !ok {
		return
	}
	var req service.GoalInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := s.svc.CreateGoal(r.Context(), userFrom(r.Context()).ID, itemID, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "goal")
	if !ok {
		return
	}
	var req service.UpdateGoalInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := s.svc.UpdateGoal(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, goal)
}

func (s *Server) handleLogGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "goal")
	if !ok {
		return
	}
	var req service.GoalLogInput
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	progress, err := s.svc.LogGoal(r.Context(), userFrom(r.Context()).ID, id, req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleGoalLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "goal")
	if !ok {
		return
	}

	logs, err := s.svc.GoalLogs(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}
