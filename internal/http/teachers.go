package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentms/internal/crypto"
	"studentms/internal/db"
	"studentms/internal/docstore"
	"studentms/internal/model"
)

type teacherResponse struct {
	ID         int64  `json:"id"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

func toTeacherResponse(teacher model.Teacher, user model.User) teacherResponse {
	return teacherResponse{
		ID:         teacher.ID,
		UserID:     teacher.UserID,
		Name:       user.Name,
		Email:      user.Email,
		Phone:      teacher.Phone,
		Department: teacher.Department,
		Status:     teacher.Status,
	}
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.store.ListTeachers(r.Context(), queryLimit(r, 200))
	if err != nil {
		s.logger.Error("list teachers failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	userIDs := make([]string, 0, len(teachers))
	for _, teacher := range teachers {
		userIDs = append(userIDs, teacher.UserID)
	}
	users, err := s.docs.GetUsersByIDs(r.Context(), userIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	out := make([]teacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		out = append(out, toTeacherResponse(teacher, users[teacher.UserID]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "teacherID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	teacher, err := s.store.GetTeacher(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	user, err := s.docs.GetUserByID(r.Context(), teacher.UserID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, toTeacherResponse(teacher, user))
}

type createTeacherRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req createTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	user := model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleTeacher,
	}
	if err := s.docs.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, docstore.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	teacher := model.Teacher{
		UserID:     user.ID,
		Phone:      strings.TrimSpace(req.Phone),
		Department: strings.TrimSpace(req.Department),
		Status:     "active",
	}
	id, err := s.store.CreateTeacher(r.Context(), teacher)
	if err != nil {
		if _, delErr := s.docs.DeleteUser(r.Context(), user.ID); delErr != nil {
			s.logger.Error("teacher create rollback failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	teacher.ID = id

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "teacher_create", user.Email)
	writeJSON(w, http.StatusCreated, toTeacherResponse(teacher, user))
}

type updateTeacherRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Status     *string `json:"status"`
}

func (s *Server) handleUpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "teacherID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	teacher, err := s.store.UpdateTeacher(r.Context(), id, db.TeacherUpdate{
		Phone:      req.Phone,
		Department: req.Department,
		Status:     req.Status,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	user, err := s.docs.UpdateUser(r.Context(), teacher.UserID, docstore.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "teacher_update", teacher.UserID)
	writeJSON(w, http.StatusOK, toTeacherResponse(teacher, user))
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "teacherID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	teacher, err := s.store.GetTeacher(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	classes, err := s.store.ListClassesByTeacher(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if len(classes) > 0 {
		writeError(w, http.StatusConflict, "teacher_has_classes")
		return
	}

	if _, err := s.store.DeleteTeacher(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if _, err := s.docs.DeleteUser(r.Context(), teacher.UserID); err != nil {
		s.logger.Error("credential delete failed", zap.String("user_id", teacher.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "teacher_delete", teacher.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
