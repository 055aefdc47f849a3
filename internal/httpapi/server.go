package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

// SummarySender delivers an on-demand task summary to a user. Satisfied by
// the Telegram notifier; nil when no channel is configured.
type SummarySender interface {
	SendSummary(ctx context.Context, user model.User) error
}

// Server exposes the JSON API: auth, task CRUD, series deletion, CSV
// export and the summary trigger.
type Server struct {
	users        *repository.UserRepository
	tasks        *service.TaskService
	series       *service.SeriesService
	notifier     SummarySender
	jwtSecret    []byte
	tokenTTL     time.Duration
	loginLimiter *RateLimiter
}

func NewServer(
	users *repository.UserRepository,
	tasks *service.TaskService,
	series *service.SeriesService,
	notifier SummarySender,
	jwtSecret string,
	tokenTTL time.Duration,
) *Server {
	return &Server{
		users:        users,
		tasks:        tasks,
		series:       series,
		notifier:     notifier,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		loginLimiter: NewRateLimiter(10, time.Minute),
	}
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// Routes wires every endpoint onto a mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("PATCH /api/auth/me", s.requireAuth(s.handleUpdateMe))

	mux.HandleFunc("POST /api/tasks", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("GET /api/tasks/export/csv", s.requireAuth(s.handleExportCSV))
	mux.HandleFunc("POST /api/tasks/summary", s.requireAuth(s.handleSendSummary))
	mux.HandleFunc("GET /api/tasks/{id}", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireAuth(s.handleDeleteTask))
	mux.HandleFunc("DELETE /api/tasks/{id}/series", s.requireAuth(s.handleDeleteSeries))

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// parseWhen accepts RFC3339 timestamps or bare YYYY-MM-DD dates, the two
// formats the frontend sends.
func parseWhen(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339 or YYYY-MM-DD", raw)
	}
	return t, nil
}
