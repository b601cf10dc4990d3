package handlers

import (
	"encoding/json"
	"net/http"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"
	"foodlink-project/microservices/volunteer-service/services"
)

// ViewHandler izlaže izvedene prikaze zadataka (hitni, današnji, kalendar).
type ViewHandler struct {
	views *services.ViewService
}

func NewViewHandler(views *services.ViewService) *ViewHandler {
	return &ViewHandler{views: views}
}

func (h *ViewHandler) GetUrgentTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	tasks, err := h.views.Urgent(r.Context())
	if err != nil {
		logging.Logger.Errorf("Failed to compute urgent tasks: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tasks)
}

func (h *ViewHandler) GetTodayTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	tasks, err := h.views.Today(r.Context())
	if err != nil {
		logging.Logger.Errorf("Failed to compute today's tasks: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(tasks)
}

func (h *ViewHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"volunteer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	days, err := h.views.GroupByDate(r.Context())
	if err != nil {
		logging.Logger.Errorf("Failed to compute calendar view: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []*services.CalendarDay{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(days)
}
