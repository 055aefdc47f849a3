package httpapi

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/recur"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

const maxPageSize = 100

type taskPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueAt       *string `json:"due_at"`
	Recur       *string `json:"recur"`
	RecurUntil  *string `json:"recur_until"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var input service.TaskInput
	if payload.Title != nil {
		input.Title = *payload.Title
	}
	if payload.Description != nil {
		input.Description = *payload.Description
	}
	if payload.Status != nil {
		input.Status = model.Status(*payload.Status)
	}
	if payload.Priority != nil {
		input.Priority = model.Priority(*payload.Priority)
	}
	if payload.Recur != nil {
		kind, err := recur.ParseKind(*payload.Recur)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		input.Recur = &kind
	}

	var err error
	if input.DueAt, err = parseWhenField(payload.DueAt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.RecurUntil, err = parseWhenField(payload.RecurUntil); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.tasks.Create(r.Context(), userIDFrom(r.Context()), input)
	if err != nil {
		s.writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.Filter{
		Status:     model.Status(q.Get("status")),
		Priority:   model.Priority(q.Get("priority")),
		TitleQuery: q.Get("q"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "offset must not be negative")
			return
		}
		filter.Offset = offset
	}
	if raw := q.Get("on"); raw != "" {
		day, err := parseWhen(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.DueOn = &day
	}

	page, err := s.tasks.List(r.Context(), userIDFrom(r.Context()), filter)
	if err != nil {
		s.writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	task, err := s.tasks.Get(r.Context(), userIDFrom(r.Context()), taskID)
	if err != nil {
		s.writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}

	patch, err := decodeTaskPatch(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.tasks.Update(r.Context(), userIDFrom(r.Context()), taskID, patch)
	if err != nil {
		s.writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	if err := s.tasks.Delete(r.Context(), userIDFrom(r.Context()), taskID); err != nil {
		s.writeTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	taskID, ok := pathTaskID(w, r)
	if !ok {
		return
	}
	onlyFuture := r.URL.Query().Get("futureOnly") == "true"

	deleted, err := s.series.DeleteByTaskID(r.Context(), userIDFrom(r.Context()), taskID, onlyFuture)
	if err != nil {
		s.writeTaskError(w, err)
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "Not found or not a series")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListAll(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeTaskError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="tasks.csv"`)
	w.Header().Set("Content-Type", "text/csv")

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"ID", "Title", "Description", "Status", "Priority",
		"Due At", "Recur", "Recur Until", "Created At", "Updated At",
	})
	for _, task := range tasks {
		_ = writer.Write([]string{
			task.ID.String(),
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			formatOptionalTime(task.DueAt),
			formatOptionalKind(task.Recur),
			formatOptionalTime(task.RecurUntil),
			task.CreatedAt.Format(time.RFC3339),
			task.UpdatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
}

func (s *Server) handleSendSummary(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Summaries are not configured")
		return
	}

	user, err := s.users.FindByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if err := s.notifier.SendSummary(r.Context(), *user); err != nil {
		log.Printf("[error] send summary to %s: %v", user.Email, err)
		writeError(w, http.StatusInternalServerError, "Failed to send summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Task summary sent"})
}

func (s *Server) writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[error] task request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

// decodeTaskPatch reads a JSON patch body. A field set to JSON null clears
// the stored value, a field left out of the body stays untouched.
func decodeTaskPatch(body io.Reader) (service.TaskPatch, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return service.TaskPatch{}, errors.New("invalid JSON body")
	}
	var payload taskPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return service.TaskPatch{}, errors.New("invalid JSON body")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return service.TaskPatch{}, errors.New("invalid JSON body")
	}
	explicitNull := func(key string) bool {
		v, ok := raw[key]
		return ok && string(v) == "null"
	}

	patch := service.TaskPatch{
		Title:           payload.Title,
		Description:     payload.Description,
		ClearDueAt:      explicitNull("due_at"),
		ClearRecur:      explicitNull("recur"),
		ClearRecurUntil: explicitNull("recur_until"),
	}
	if payload.Status != nil {
		status := model.Status(*payload.Status)
		patch.Status = &status
	}
	if payload.Priority != nil {
		priority := model.Priority(*payload.Priority)
		patch.Priority = &priority
	}
	if payload.Recur != nil {
		kind, err := recur.ParseKind(*payload.Recur)
		if err != nil {
			return service.TaskPatch{}, err
		}
		patch.Recur = &kind
	}
	if patch.DueAt, err = parseWhenField(payload.DueAt); err != nil {
		return service.TaskPatch{}, err
	}
	if patch.RecurUntil, err = parseWhenField(payload.RecurUntil); err != nil {
		return service.TaskPatch{}, err
	}
	return patch, nil
}

func pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task id")
		return uuid.Nil, false
	}
	return taskID, true
}

func parseWhenField(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseWhen(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalKind(k *recur.Kind) string {
	if k == nil {
		return ""
	}
	return string(*k)
}
