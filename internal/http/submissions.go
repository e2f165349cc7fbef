package http

import (
	"errors"
	"net/http"
	"strings"

	"studentms/internal/db"
	"studentms/internal/model"
)

type createSubmissionRequest struct {
	AssignmentID int64  `json:"assignmentId"`
	Content      string `json:"content"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.AssignmentID <= 0 || req.Content == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

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
	assignment, err := s.store.GetAssignment(r.Context(), req.AssignmentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	enrolled, err := s.store.IsEnrolled(r.Context(), assignment.ClassID, student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !enrolled {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return
	}

	submission := model.Submission{
		AssignmentID: req.AssignmentID,
		StudentID:    student.ID,
		Content:      req.Content,
	}
	id, err := s.store.CreateSubmission(r.Context(), submission)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	submission.ID = id

	s.logActivity(r.Context(), claims.UserID, claims.Role, "submission_create", assignment.Title)
	writeJSON(w, http.StatusCreated, submission)
}

func (s *Server) handleMySubmissions(w http.ResponseWriter, r *http.Request) {
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
	submissions, err := s.store.ListSubmissionsByStudent(r.Context(), student.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}

type submissionResponse struct {
	model.Submission
	StudentName string `json:"studentName,omitempty"`
}

func (s *Server) handleListSubmissionsByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := urlID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	assignment, err := s.store.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	claims := claimsFromContext(r.Context())
	if claims.Role == model.RoleTeacher {
		if !s.teacherOwnsClass(w, r, assignment.ClassID) {
			return
		}
	}

	submissions, err := s.store.ListSubmissionsByAssignment(r.Context(), assignmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	studentIDs := make([]int64, 0, len(submissions))
	for _, submission := range submissions {
		studentIDs = append(studentIDs, submission.StudentID)
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

	out := make([]submissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		name := ""
		if student, ok := students[submission.StudentID]; ok {
			name = users[student.UserID].Name
		}
		out = append(out, submissionResponse{Submission: submission, StudentName: name})
	}
	writeJSON(w, http.StatusOK, out)
}

type scoreSubmissionRequest struct {
	Score float64 `json:"score"`
}

func (s *Server) handleScoreSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "submissionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req scoreSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Score < 0 || req.Score > 100 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	existing, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	assignment, err := s.store.GetAssignment(r.Context(), existing.AssignmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !s.teacherOwnsClass(w, r, assignment.ClassID) {
		return
	}

	submission, err := s.store.ScoreSubmission(r.Context(), id, req.Score)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "submission_score", assignment.Title)
	writeJSON(w, http.StatusOK, submission)
}
