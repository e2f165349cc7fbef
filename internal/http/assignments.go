package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"studentms/internal/db"
	"studentms/internal/model"
)

type createAssignmentRequest struct {
	ClassID     int64     `json:"classId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"dueAt"`
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.ClassID <= 0 || req.Title == "" || req.DueAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.teacherOwnsClass(w, r, req.ClassID) {
		return
	}

	assignment := model.Assignment{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		DueAt:       req.DueAt.UTC(),
	}
	id, err := s.store.CreateAssignment(r.Context(), assignment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	assignment.ID = id

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "assignment_create", req.Title)
	writeJSON(w, http.StatusCreated, assignment)
}

type updateAssignmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"dueAt"`
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	existing, err := s.store.GetAssignment(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.teacherOwnsClass(w, r, existing.ClassID) {
		return
	}

	assignment, err := s.store.UpdateAssignment(r.Context(), id, db.AssignmentUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "assignment_update", assignment.Title)
	writeJSON(w, http.StatusOK, assignment)
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	existing, err := s.store.GetAssignment(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.teacherOwnsClass(w, r, existing.ClassID) {
		return
	}

	if _, err := s.store.DeleteAssignment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "assignment_delete", existing.Title)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	assignment, err := s.store.GetAssignment(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *Server) handleListAssignmentsByClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	assignments, err := s.store.ListAssignmentsByClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}
