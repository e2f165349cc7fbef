package http

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"studentms/internal/db"
	"studentms/internal/model"
)

type classResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	TeacherID   int64  `json:"teacherId"`
	TeacherName string `json:"teacherName,omitempty"`
	Room        string `json:"room"`
}

// classResponses resolves teacher display names in one round trip per store.
func (s *Server) classResponses(r *http.Request, classes []model.Class) ([]classResponse, error) {
	teacherIDs := make([]int64, 0, len(classes))
	seen := make(map[int64]struct{}, len(classes))
	for _, class := range classes {
		if _, ok := seen[class.TeacherID]; !ok {
			seen[class.TeacherID] = struct{}{}
			teacherIDs = append(teacherIDs, class.TeacherID)
		}
	}
	teachers, err := s.store.GetTeachersByIDs(r.Context(), teacherIDs)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(teachers))
	for _, teacher := range teachers {
		userIDs = append(userIDs, teacher.UserID)
	}
	users, err := s.docs.GetUsersByIDs(r.Context(), userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]classResponse, 0, len(classes))
	for _, class := range classes {
		name := ""
		if teacher, ok := teachers[class.TeacherID]; ok {
			name = users[teacher.UserID].Name
		}
		out = append(out, classResponse{
			ID:          class.ID,
			Name:        class.Name,
			Subject:     class.Subject,
			TeacherID:   class.TeacherID,
			TeacherName: name,
			Room:        class.Room,
		})
	}
	return out, nil
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.store.ListClasses(r.Context(), queryLimit(r, 200))
	if err != nil {
		s.logger.Error("list classes failed", zap.Error(err))
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

// handleMyClasses lists the classes owned by the calling teacher.
func (s *Server) handleMyClasses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
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
	out, err := s.classResponses(r, classes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	class, err := s.store.GetClass(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out, err := s.classResponses(r, []model.Class{class})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, out[0])
}

type createClassRequest struct {
	Name      string `json:"name"`
	Subject   string `json:"subject"`
	TeacherID int64  `json:"teacherId"`
	Room      string `json:"room"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.TeacherID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if _, err := s.store.GetTeacher(r.Context(), req.TeacherID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	class := model.Class{
		Name:      req.Name,
		Subject:   strings.TrimSpace(req.Subject),
		TeacherID: req.TeacherID,
		Room:      strings.TrimSpace(req.Room),
	}
	id, err := s.store.CreateClass(r.Context(), class)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	class.ID = id

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "class_create", class.Name)
	writeJSON(w, http.StatusCreated, class)
}

type updateClassRequest struct {
	Name      *string `json:"name"`
	Subject   *string `json:"subject"`
	TeacherID *int64  `json:"teacherId"`
	Room      *string `json:"room"`
}

func (s *Server) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	var req updateClassRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TeacherID != nil {
		if _, err := s.store.GetTeacher(r.Context(), *req.TeacherID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				writeError(w, http.StatusNotFound, "teacher_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	class, err := s.store.UpdateClass(r.Context(), id, db.ClassUpdate{
		Name:      req.Name,
		Subject:   req.Subject,
		TeacherID: req.TeacherID,
		Room:      req.Room,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "class_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "class_update", class.Name)
	writeJSON(w, http.StatusOK, class)
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "classID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	deleted, err := s.store.DeleteClass(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "class_not_found")
		return
	}

	claims := claimsFromContext(r.Context())
	s.logActivity(r.Context(), claims.UserID, claims.Role, "class_delete", "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
