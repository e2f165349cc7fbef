package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"studentms/internal/db"
	"studentms/internal/model"
)

type attendanceRecord struct {
	StudentID int64  `json:"studentId"`
	Status    string `json:"status"`
}

type markAttendanceRequest struct {
	ClassID int64              `json:"classId"`
	Date    string             `json:"date"`
	Records []attendanceRecord `json:"records"`
}

// handleMarkAttendance upserts one attendance row per student for the given
// class and date, so re-posting the same day overwrites earlier statuses.
func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ClassID <= 0 || len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	if !s.teacherOwnsClass(w, r, req.ClassID) {
		return
	}

	for _, record := range req.Records {
		status, err := normalizeAttendanceStatus(record.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		enrolled, err := s.store.IsEnrolled(r.Context(), req.ClassID, record.StudentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !enrolled {
			writeError(w, http.StatusConflict, "not_enrolled")
			return
		}
		err = s.store.MarkAttendance(r.Context(), model.Attendance{
			ClassID:   req.ClassID,
			StudentID: record.StudentID,
			Date:      date,
			Status:    status,
		})
		if err != nil {
			s.logger.Error("mark attendance failed", zap.Int64("class_id", req.ClassID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "attendance_mark", req.Date)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": len(req.Records),
	})
}

func (s *Server) handleListAttendanceByClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	claims := claimsFromContext(r.Context())
	if claims.Role == model.RoleTeacher {
		if !s.teacherOwnsClass(w, r, classID) {
			return
		}
	}

	records, err := s.store.ListAttendanceByClassDate(r.Context(), classID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMyAttendance(w http.ResponseWriter, r *http.Request) {
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
	records, err := s.store.ListAttendanceByStudent(r.Context(), student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
