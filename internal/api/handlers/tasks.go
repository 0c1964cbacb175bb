package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/asgard/sentinel/internal/platform/db"
	"github.com/asgard/sentinel/internal/store"
	"github.com/asgard/sentinel/internal/utils"
)

// TaskHandler handles ad-hoc operator to-do storage, independent of the
// mission lifecycle.
type TaskHandler struct {
	tasks *store.TaskRepository
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(tasks *store.TaskRepository) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "invalid request body", http.StatusUnprocessableEntity))
		return
	}
	if req.Title == "" {
		handleError(w, utils.NewAPIError("VALIDATION_ERROR", "title is required", http.StatusUnprocessableEntity))
		return
	}

	task := &db.Task{Title: req.Title}
	if req.Description != "" {
		task.Description.String = req.Description
		task.Description.Valid = true
	}

	if err := h.tasks.Create(task); err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_CREATE_TASK", "failed to persist task", http.StatusInternalServerError))
		return
	}
	jsonResponse(w, http.StatusCreated, taskResponse(task))
}

// List handles GET /api/v1/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := parsePaginationParams(r)
	tasks, err := h.tasks.List(limit)
	if err != nil {
		handleError(w, utils.WrapAPIError(err, "FAILED_TO_LIST_TASKS", "failed to list tasks", http.StatusInternalServerError))
		return
	}

	out := make([]interface{}, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse(t))
	}
	jsonResponse(w, http.StatusOK, out)
}

func taskResponse(t *db.Task) map[string]interface{} {
	resp := map[string]interface{}{
		"id":         t.ID.String(),
		"title":      t.Title,
		"created_at": t.CreatedAt,
	}
	if t.Description.Valid {
		resp["description"] = t.Description.String
	}
	return resp
}
