package http

import (
	"errors"
	"net/http"
	"strings"

	"studentms/internal/db"
	"studentms/internal/model"
)

type createGradeRequest struct {
	ClassID   int64   `json:"classId"`
	StudentID int64   `json:"studentId"`
	Term      string  `json:"term"`
	Score     float64 `json:"score"`
	Remark    string  `json:"remark"`
}

func (s *Server) handleCreateGrade(w http.ResponseWriter, r *http.Request) {
	var req createGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Term = strings.TrimSpace(req.Term)
	if req.ClassID <= 0 || req.StudentID <= 0 || req.Term == "" || req.Score < 0 || req.Score > 100 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.teacherOwnsClass(w, r, req.ClassID) {
		return
	}
	enrolled, err := s.store.IsEnrolled(r.Context(), req.ClassID, req.StudentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !enrolled {
		writeError(w, http.StatusConflict, "not_enrolled")
		return
	}

	grade := model.Grade{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Term:      req.Term,
		Score:     req.Score,
		Remark:    strings.TrimSpace(req.Remark),
	}
	id, err := s.store.CreateGrade(r.Context(), grade)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	grade.ID = id

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "grade_create", req.Term)
	writeJSON(w, http.StatusCreated, grade)
}

type updateGradeRequest struct {
	Score  *float64 `json:"score"`
	Remark *string  `json:"remark"`
}

func (s *Server) handleUpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "gradeID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateGradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	existing, err := s.store.GetGrade(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "grade_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.teacherOwnsClass(w, r, existing.ClassID) {
		return
	}

	grade, err := s.store.UpdateGrade(r.Context(), id, db.GradeUpdate{
		Score:  req.Score,
		Remark: req.Remark,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "grade_update", grade.Term)
	writeJSON(w, http.StatusOK, grade)
}

func (s *Server) handleDeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "gradeID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	existing, err := s.store.GetGrade(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "grade_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.teacherOwnsClass(w, r, existing.ClassID) {
		return
	}

	if _, err := s.store.DeleteGrade(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "grade_delete", existing.Term)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListGradesByClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	claims := claimsFromContext(r.Context())
	if claims.Role == model.RoleTeacher {
		if !s.teacherOwnsClass(w, r, classID) {
			return
		}
	}
	grades, err := s.store.ListGradesByClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, grades)
}

func (s *Server) handleListGradesByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := urlID(r, "studentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	grades, err := s.store.ListGradesByStudent(r.Context(), studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, grades)
}

// handleMyGrades lists the calling student's own grades.
func (s *Server) handleMyGrades(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	student, err := s.store.GetStudentByUserID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	grades, err := s.store.ListGradesByStudent(r.Context(), student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, grades)
}
