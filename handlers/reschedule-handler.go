package handlers

import (
	"encoding/json"
	"net/http"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"
	"foodlink-project/microservices/volunteer-service/services"

	"github.com/gorilla/mux"
)

type RescheduleHandler struct {
	service *services.RescheduleService
}

func NewRescheduleHandler(service *services.RescheduleService) *RescheduleHandler {
	return &RescheduleHandler{service: service}
}

// CreateRescheduleRequest beleži zahtev za promenu termina preuzimanja.
func (h *RescheduleHandler) CreateRescheduleRequest(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	if taskID == "" {
		http.Error(w, "taskID is required", http.StatusBadRequest)
		return
	}

	var req models.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.TaskID = taskID

	saved, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		logging.Logger.Warnf("Failed to save reschedule request for task %s: %v", taskID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *RescheduleHandler) GetRescheduleRequests(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer", "coordinator"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	if taskID == "" {
		http.Error(w, "taskID is required", http.StatusBadRequest)
		return
	}

	requests, err := h.service.ListForTask(r.Context(), taskID)
	if err != nil {
		logging.Logger.Errorf("Failed to fetch reschedule requests for task %s: %v", taskID, err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	if requests == nil {
		requests = []*models.RescheduleRequest{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requests)
}
