package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/vedran77/taskmate/internal/domain"
	"github.com/vedran77/taskmate/internal/service"
	"github.com/vedran77/taskmate/internal/transport/http/middleware"
	"github.com/vedran77/taskmate/pkg/validator"
)

type TaskHandler struct {
	taskService *service.TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid email")
		return
	}

	tasks, err := h.taskService.List(r.Context(), middleware.GetIdentity(r.Context()), owner)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only view your own tasks")
			return
		}
		h.logger.Error("list tasks", "owner", owner, "error", err)
		writeInternal(w)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	task, err := h.taskService.Create(r.Context(), middleware.GetIdentity(r.Context()), input)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeValidationErrors(w, verrs)
			return
		}
		h.logger.Error("create task", "error", err)
		writeInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Replace(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if _, err := service.ParseTaskID(taskID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task ID")
		return
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil || fields == nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	acting := middleware.GetIdentity(r.Context())
	err := h.taskService.Replace(r.Context(), acting, taskID, fields)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeAPIError(w, http.StatusBadRequest, apiError{
				Code:    "INVALID_INPUT",
				Message: "Invalid update",
				Fields:  verrs,
			})
			return
		}
		h.writeTaskError(w, err, "replace task", taskID, acting)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Task updated",
		"taskId":  taskID,
	})
}

func (h *TaskHandler) Patch(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if _, err := service.ParseTaskID(taskID); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task ID")
		return
	}

	var input service.PatchTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	acting := middleware.GetIdentity(r.Context())
	applied, err := h.taskService.Patch(r.Context(), acting, taskID, input)
	if err != nil {
		h.writeTaskError(w, err, "patch task", taskID, acting)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Task updated",
		"taskId":        taskID,
		"updatedFields": applied.Fields(),
	})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	acting := middleware.GetIdentity(r.Context())

	if err := h.taskService.Delete(r.Context(), acting, taskID); err != nil {
		h.writeTaskError(w, err, "delete task", taskID, acting)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

func (h *TaskHandler) writeTaskError(w http.ResponseWriter, err error, op, taskID, acting string) {
	switch {
	case errors.Is(err, service.ErrInvalidTaskID):
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid task ID")
	case errors.Is(err, service.ErrTaskNotFound):
		writeAPIError(w, http.StatusNotFound, apiError{
			Code:    "NOT_FOUND",
			Message: "Task not found",
			Details: fmt.Sprintf("No task found with ID: %s for user: %s", taskID, acting),
		})
	default:
		h.logger.Error(op, "task_id", taskID, "error", err)
		writeInternal(w)
	}
}
