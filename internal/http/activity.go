package http

import (
	"net/http"

	"go.uber.org/zap"

	"studentms/internal/model"
)

type activityResponse struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	UserName  string     `json:"userName,omitempty"`
	Role      model.Role `json:"role"`
	Action    string     `json:"action"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

// handleListUsers lists credential accounts, optionally filtered by role.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	var role *model.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, ok := model.ParseRole(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		role = &parsed
	}
	users, err := s.docs.ListUsers(r.Context(), role, queryLimit(r, 200))
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.docs.ListActivity(r.Context(), queryLimit(r, 100))
	if err != nil {
		s.logger.Error("list activity failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	userIDs := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.UserID]; !ok {
			seen[entry.UserID] = struct{}{}
			userIDs = append(userIDs, entry.UserID)
		}
	}
	users, err := s.docs.GetUsersByIDs(r.Context(), userIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, activityResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			UserName:  users[entry.UserID].Name,
			Role:      entry.Role,
			Action:    entry.Action,
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
