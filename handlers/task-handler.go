package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"
	"foodlink-project/microservices/volunteer-service/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	lifecycle *services.TaskLifecycleService
	store     services.TaskStore
}

func NewTaskHandler(lifecycle *services.TaskLifecycleService, store services.TaskStore) *TaskHandler {
	return &TaskHandler{lifecycle: lifecycle, store: store}
}

func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}

	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

// statusForError maps lifecycle errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AssignTask prima novi zadatak od koordinatora i upisuje ga u status assigned.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"coordinator"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	created, err := h.lifecycle.Assign(r.Context(), &task)
	if err != nil {
		logging.Logger.Warnf("Failed to assign task: %v", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer", "coordinator"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	tasks, err := h.store.GetTasks(r.Context())
	if err != nil {
		logging.Logger.Errorf("Failed to fetch tasks: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tasks)
}

func (h *TaskHandler) AcceptTask(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.lifecycle.Accept)
}

func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.lifecycle.Start)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, h.lifecycle.Complete)
}

// CancelTask otkazuje zadatak; razlog se čuva radi evidencije.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	if taskID == "" {
		http.Error(w, "taskID is required", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.lifecycle.Cancel(r.Context(), taskID, req.Reason)
	if err != nil {
		logging.Logger.Warnf("Failed to cancel task %s: %v", taskID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		logging.Logger.Errorf("Failed to fetch volunteer stats: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func (h *TaskHandler) applyTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, taskID string) (*models.Task, error)) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	if taskID == "" {
		http.Error(w, "taskID is required", http.StatusBadRequest)
		return
	}

	task, err := op(r.Context(), taskID)
	if err != nil {
		logging.Logger.Warnf("Status transition failed for task %s: %v", taskID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(task)
}
