package http

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studentms/internal/auth"
	"studentms/internal/crypto"
	"studentms/internal/docstore"
	"studentms/internal/model"
)

const refreshCookieName = "refresh_token"

type userResponse struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func toUserResponse(user model.User) userResponse {
	return userResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

type registerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	StudentNumber string `json:"studentNumber"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

// handleRegister self-registers a student account. Staff accounts are only
// created through the admin endpoints.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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
		s.logger.Error("create user failed", zap.Error(err))
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
	studentID, err := s.store.CreateStudent(r.Context(), student)
	if err != nil {
		// Roll back the credential so the email is not burned.
		if _, delErr := s.docs.DeleteUser(r.Context(), user.ID); delErr != nil {
			s.logger.Error("register rollback failed", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		s.logger.Error("create student profile failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	student.ID = studentID

	s.logActivity(r.Context(), user.ID, user.Role, "register", user.Email)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":      toUserResponse(user),
		"studentId": studentID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	limiterKey := loginAttemptKey(req.Email, r.RemoteAddr)
	allowed, err := s.limiter.Allow(r.Context(), limiterKey)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		writeError(w, http.StatusTooManyRequests, "too_many_attempts")
		return
	}

	user, err := s.docs.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	accessToken, err := auth.NewToken(s.cfg.JWTAccessSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	refreshToken, err := auth.NewToken(s.cfg.JWTRefreshSecret, s.cfg.JWTIssuer, s.cfg.RefreshTokenTTL, user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.setRefreshCookie(w, refreshToken, s.cfg.RefreshTokenTTL)
	s.limiter.Reset(r.Context(), limiterKey)
	s.logActivity(r.Context(), user.ID, user.Role, "login", user.Email)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": accessToken,
		"user":        toUserResponse(user),
	})
}

// handleRefresh mints a fresh access token from the http-only refresh cookie.
// The refresh token itself is left untouched, so concurrent refreshes from the
// same session all succeed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "missing_refresh_token")
		return
	}
	claims, err := auth.ParseToken(s.cfg.JWTRefreshSecret, cookie.Value)
	if err != nil {
		s.clearRefreshCookie(w)
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	user, err := s.docs.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			s.clearRefreshCookie(w)
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		s.logger.Error("refresh lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	accessToken, err := auth.NewToken(s.cfg.JWTAccessSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	user, err := s.docs.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	response := map[string]interface{}{"user": toUserResponse(user)}
	switch user.Role {
	case model.RoleStudent:
		if student, err := s.store.GetStudentByUserID(r.Context(), user.ID); err == nil {
			response["student"] = student
		}
	case model.RoleTeacher:
		if teacher, err := s.store.GetTeacherByUserID(r.Context(), user.ID); err == nil {
			response["teacher"] = teacher
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// loginAttemptKey throttles per email and client host, not per email alone.
func loginAttemptKey(email, remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return email + "|" + host
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
