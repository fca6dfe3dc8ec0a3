package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betline/betline/internal/api/dto"
	"github.com/betline/betline/internal/auth"
	supportrepo "github.com/betline/betline/internal/support/repo"
)

func (s *Server) createThread(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req dto.CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Title == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "title and message are required")
		return
	}

	th, err := s.support.CreateThread(r.Context(), claims.UserID, req.Title, req.Message, claims.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toThreadResponse(*th))
}

// listThreads returns the caller's threads; admins see every thread.
func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	userID := claims.UserID
	if claims.Role == "admin" {
		userID = ""
	}

	threads, err := s.support.ListThreads(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]dto.ThreadResponse, 0, len(threads))
	for _, th := range threads {
		out = append(out, toThreadResponse(th))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	th, msgs, err := s.support.GetThread(r.Context(), id)
	if err != nil {
		if errors.Is(err, supportrepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// users only see their own threads
	if claims.Role != "admin" && th.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	out := dto.ThreadDetailResponse{Thread: toThreadResponse(*th)}
	for _, m := range msgs {
		out.Messages = append(out.Messages, dto.MessageResponse{
			ID:         m.ID,
			ThreadID:   m.ThreadID,
			UserID:     m.UserID,
			SenderRole: m.SenderRole,
			Message:    m.Message,
			CreatedAt:  m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req dto.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	th, _, err := s.support.GetThread(r.Context(), id)
	if err != nil {
		if errors.Is(err, supportrepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if claims.Role != "admin" && th.UserID != claims.UserID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	m, err := s.support.AddMessage(r.Context(), id, claims.UserID, claims.Role, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, dto.MessageResponse{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		UserID:     m.UserID,
		SenderRole: m.SenderRole,
		Message:    m.Message,
		CreatedAt:  m.CreatedAt,
	})
}

func (s *Server) adminSetThreadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateThreadStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Status != supportrepo.StatusOpen && req.Status != supportrepo.StatusClosed {
		writeError(w, http.StatusBadRequest, "status must be open or closed")
		return
	}

	if err := s.support.SetStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, supportrepo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toThreadResponse(th supportrepo.Thread) dto.ThreadResponse {
	return dto.ThreadResponse{
		ID:        th.ID,
		UserID:    th.UserID,
		Title:     th.Title,
		Status:    th.Status,
		CreatedAt: th.CreatedAt,
		UpdatedAt: th.UpdatedAt,
	}
}
