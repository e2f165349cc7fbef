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

type studentResponse struct {
	ID            int64  `json:"id"`
	UserID        string `json:"userId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	StudentNumber string `json:"studentNumber"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Status        string `json:"status"`
}

func toStudentResponse(student model.Student, user model.User) studentResponse {
	return studentResponse{
		ID:            student.ID,
		UserID:        student.UserID,
		Name:          user.Name,
		Email:         user.Email,
		StudentNumber: student.StudentNumber,
		Phone:         student.Phone,
		Address:       student.Address,
		Status:        student.Status,
	}
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context(), queryLimit(r, 200))
	if err != nil {
		s.logger.Error("list students failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	userIDs := make([]string, 0, len(students))
	for _, student := range students {
		userIDs = append(userIDs, student.UserID)
	}
	users, err := s.docs.GetUsersByIDs(r.Context(), userIDs)
	if err != nil {
		s.logger.Error("student user lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	out := make([]studentResponse, 0, len(students))
	for _, student := range students {
		out = append(out, toStudentResponse(student, users[student.UserID]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "studentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	user, err := s.docs.GetUserByID(r.Context(), student.UserID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(student, user))
}

type createStudentRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	StudentNumber string `json:"studentNumber"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
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
		Role:         model.RoleStudent,
	}
	if err := s.docs.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, docstore.ErrDuplicateEmail) {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	student := model.Student{
		UserID:        user.ID,
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		Status:        "active",
	}
	id, err := s.store.CreateStudent(r.Context(), student)
	if err != nil {
		if _, delErr := s.docs.DeleteUser(r.Context(), user.ID); delErr != nil {
			s.logger.Error("student create rollback failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	student.ID = id

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "student_create", user.Email)
	writeJSON(w, http.StatusCreated, toStudentResponse(student, user))
}

type updateStudentRequest struct {
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	StudentNumber *string `json:"studentNumber"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	Status        *string `json:"status"`
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "studentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	student, err := s.store.UpdateStudent(r.Context(), id, db.StudentUpdate{
		StudentNumber: req.StudentNumber,
		Phone:         req.Phone,
		Address:       req.Address,
		Status:        req.Status,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	user, err := s.docs.UpdateUser(r.Context(), student.UserID, docstore.UserUpdate{
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
	s.logActivity(r.Context(), claims.UserID, claims.Role, "student_update", student.UserID)
	writeJSON(w, http.StatusOK, toStudentResponse(student, user))
}

// handleDeleteStudent removes the profile row and then the credential
// document, so a deleted student can no longer sign in.
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "studentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if _, err := s.store.DeleteStudent(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if _, err := s.docs.DeleteUser(r.Context(), student.UserID); err != nil {
		s.logger.Error("credential delete failed", zap.String("user_id", student.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "student_delete", student.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
