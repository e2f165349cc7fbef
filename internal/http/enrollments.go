package http

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"studentms/internal/db"
	"studentms/internal/model"
)

type createEnrollmentRequest struct {
	ClassID   int64 `json:"classId"`
	StudentID int64 `json:"studentId"`
}

func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ClassID <= 0 || req.StudentID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if _, err := s.store.GetClass(r.Context(), req.ClassID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if _, err := s.store.GetStudent(r.Context(), req.StudentID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	enrolled, err := s.store.IsEnrolled(r.Context(), req.ClassID, req.StudentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if enrolled {
		writeError(w, http.StatusConflict, "already_enrolled")
		return
	}

	id, err := s.store.CreateEnrollment(r.Context(), req.ClassID, req.StudentID)
	if err != nil {
		s.logger.Error("create enrollment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "enrollment_create", "")
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "enrollmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	enrollment, err := s.store.GetEnrollment(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "enrollment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if _, err := s.store.DeleteEnrollment(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "enrollment_delete",
		fmt.Sprintf("class=%d student=%d", enrollment.ClassID, enrollment.StudentID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type enrollmentResponse struct {
	ID          int64  `json:"id"`
	ClassID     int64  `json:"classId"`
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName,omitempty"`
	EnrolledAt  string `json:"enrolledAt"`
}

func (s *Server) handleListEnrollmentsByClass(w http.ResponseWriter, r *http.Request) {
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

	enrollments, err := s.store.ListEnrollmentsByClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	studentIDs := make([]int64, 0, len(enrollments))
	for _, enrollment := range enrollments {
		studentIDs = append(studentIDs, enrollment.StudentID)
	}
	students, err := s.store.GetStudentsByIDs(r.Context(), studentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	userIDs := make([]string, 0, len(students))
	for _, student := range students {
		userIDs = append(userIDs, student.UserID)
	}
	users, err := s.docs.GetUsersByIDs(r.Context(), userIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	out := make([]enrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		name := ""
		if student, ok := students[enrollment.StudentID]; ok {
			name = users[student.UserID].Name
		}
		out = append(out, enrollmentResponse{
			ID:          enrollment.ID,
			ClassID:     enrollment.ClassID,
			StudentID:   enrollment.StudentID,
			StudentName: name,
			EnrolledAt:  enrollment.EnrolledAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMyEnrollments lists the calling student's classes.
func (s *Server) handleMyEnrollments(w http.ResponseWriter, r *http.Request) {
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
	classes, err := s.store.ListClassesByStudent(r.Context(), student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out, err := s.classResponses(r, classes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// teacherOwnsClass gates teacher access to a class they do not own. It writes
// the error response itself and reports whether the handler may continue.
func (s *Server) teacherOwnsClass(w http.ResponseWriter, r *http.Request, classID int64) bool {
	claims := claimsFromContext(r.Context())
	teacher, err := s.store.GetTeacherByUserID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusForbidden, "forbidden")
			return false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return false
	}
	class, err := s.store.GetClass(r.Context(), classID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return false
	}
	if class.TeacherID != teacher.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
