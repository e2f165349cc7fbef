package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"studentms/internal/auth"
	"studentms/internal/config"
	"studentms/internal/db"
	"studentms/internal/docstore"
	"studentms/internal/model"
	"studentms/internal/ratelimit"
)

type Server struct {
	cfg     config.Config
	store   *db.Store
	docs    *docstore.Store
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewServer(cfg config.Config, store *db.Store, docs *docstore.Store, limiter *ratelimit.Limiter, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		store:   store,
		docs:    docs,
		limiter: limiter,
		logger:  logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh-token", s.handleRefresh)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.Route("/students", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleAdmin, model.RoleTeacher)).Get("/", s.handleListStudents)
		r.With(s.requireRole(model.RoleAdmin, model.RoleTeacher)).Get("/{studentID}", s.handleGetStudent)
		r.With(s.requireRole(model.RoleAdmin)).Post("/", s.handleCreateStudent)
		r.With(s.requireRole(model.RoleAdmin)).Put("/{studentID}", s.handleUpdateStudent)
		r.With(s.requireRole(model.RoleAdmin)).Delete("/{studentID}", s.handleDeleteStudent)
	})

	r.Route("/teachers", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleAdmin))
		r.Get("/", s.handleListTeachers)
		r.Get("/{teacherID}", s.handleGetTeacher)
		r.Post("/", s.handleCreateTeacher)
		r.Put("/{teacherID}", s.handleUpdateTeacher)
		r.Delete("/{teacherID}", s.handleDeleteTeacher)
	})

	r.Route("/class", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleAdmin)).Get("/", s.handleListClasses)
		r.With(s.requireRole(model.RoleTeacher)).Get("/specific-class", s.handleMyClasses)
		r.With(s.requireRole(model.RoleAdmin, model.RoleTeacher)).Get("/{classID}", s.handleGetClass)
		r.With(s.requireRole(model.RoleAdmin)).Post("/", s.handleCreateClass)
		r.With(s.requireRole(model.RoleAdmin)).Put("/{classID}", s.handleUpdateClass)
		r.With(s.requireRole(model.RoleAdmin)).Delete("/{classID}", s.handleDeleteClass)
	})

	r.Route("/enrollment", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleAdmin)).Post("/", s.handleCreateEnrollment)
		r.With(s.requireRole(model.RoleAdmin)).Delete("/{enrollmentID}", s.handleDeleteEnrollment)
		r.With(s.requireRole(model.RoleAdmin, model.RoleTeacher)).Get("/class/{classID}", s.handleListEnrollmentsByClass)
		r.With(s.requireRole(model.RoleStudent)).Get("/student", s.handleMyEnrollments)
	})

	r.Route("/grades", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleTeacher)).Post("/", s.handleCreateGrade)
		r.With(s.requireRole(model.RoleTeacher)).Put("/{gradeID}", s.handleUpdateGrade)
		r.With(s.requireRole(model.RoleTeacher)).Delete("/{gradeID}", s.handleDeleteGrade)
		r.With(s.requireRole(model.RoleTeacher, model.RoleAdmin)).Get("/class/{classID}", s.handleListGradesByClass)
		r.With(s.requireRole(model.RoleAdmin)).Get("/student/{studentID}", s.handleListGradesByStudent)
		r.With(s.requireRole(model.RoleStudent)).Get("/me", s.handleMyGrades)
	})

	r.Route("/assignment", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleTeacher)).Post("/", s.handleCreateAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Put("/{assignmentID}", s.handleUpdateAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Delete("/{assignmentID}", s.handleDeleteAssignment)
		r.Get("/class/{classID}", s.handleListAssignmentsByClass)
		r.Get("/{assignmentID}", s.handleGetAssignment)
	})

	r.Route("/submissions", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleStudent)).Post("/", s.handleCreateSubmission)
		r.With(s.requireRole(model.RoleStudent)).Get("/mine", s.handleMySubmissions)
		r.With(s.requireRole(model.RoleTeacher, model.RoleAdmin)).Get("/assignment/{assignmentID}", s.handleListSubmissionsByAssignment)
		r.With(s.requireRole(model.RoleTeacher)).Put("/{submissionID}/score", s.handleScoreSubmission)
	})

	r.Route("/attendance", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.With(s.requireRole(model.RoleTeacher)).Post("/", s.handleMarkAttendance)
		r.With(s.requireRole(model.RoleTeacher, model.RoleAdmin)).Get("/class/{classID}", s.handleListAttendanceByClass)
		r.With(s.requireRole(model.RoleStudent)).Get("/me", s.handleMyAttendance)
	})

	r.With(s.authMiddleware, s.requireRole(model.RoleAdmin)).Get("/users", s.handleListUsers)
	r.With(s.authMiddleware, s.requireRole(model.RoleAdmin)).Get("/activity", s.handleListActivity)
	r.With(s.authMiddleware).Get("/dashboard", s.handleDashboard)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTAccessSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole is the role gate: a straight allow-list membership test against
// the identity attached by authMiddleware.
func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "missing_token")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// logActivity writes an audit line; failures are logged, never surfaced.
func (s *Server) logActivity(ctx context.Context, userID string, role model.Role, action, detail string) {
	entry := model.ActivityEntry{
		UserID: userID,
		Role:   role,
		Action: action,
		Detail: detail,
	}
	if err := s.docs.InsertActivity(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed", zap.String("action", action), zap.Error(err))
	}
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func urlID(r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func normalizeAttendanceStatus(value string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "present":
		return "present", nil
	case "absent":
		return "absent", nil
	case "late":
		return "late", nil
	case "excused":
		return "excused", nil
	default:
		return "", errInvalidStatus
	}
}

var errInvalidStatus = errors.New("invalid attendance status")
