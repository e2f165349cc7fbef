package http

import (
	"errors"
	"net/http"

	"studentms/internal/db"
	"studentms/internal/model"
)

// handleDashboard returns a role-shaped summary for the landing screen.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	switch claims.Role {
	case model.RoleAdmin:
		counts, err := s.store.GetCounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"role":   claims.Role,
			"counts": counts,
		})
	case model.RoleTeacher:
		teacher, err := s.store.GetTeacherByUserID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusNotFound, "teacher_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		classes, err := s.store.ListClassesByTeacher(r.Context(), teacher.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"role":    claims.Role,
			"classes": len(classes),
		})
	case model.RoleStudent:
		student, err := s.store.GetStudentByUserID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusNotFound, "student_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		classes, err := s.store.ListClassesByStudent(r.Context(), student.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		grades, err := s.store.ListGradesByStudent(r.Context(), student.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"role":    claims.Role,
			"classes": len(classes),
			"grades":  len(grades),
		})
	default:
		writeError(w, http.StatusForbidden, "forbidden")
	}
}
