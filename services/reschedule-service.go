package services

import (
	"context"
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/models"

	"github.com/google/uuid"
)

// RescheduleService persists out-of-band pickup-time change requests. The
// requests are a write-only audit trail reviewed by a coordinator; the
// lifecycle engine never consumes them and task times are never changed here.
type RescheduleService struct {
	store     RescheduleStore
	tasks     TaskStore
	reminders *ReminderService
}

func NewRescheduleService(store RescheduleStore, tasks TaskStore, reminders *ReminderService) *RescheduleService {
	return &RescheduleService{store: store, tasks: tasks, reminders: reminders}
}

// Submit validates and records a reschedule request for an existing task, then
// fires a best-effort schedule-change notification.
func (rs *RescheduleService) Submit(ctx context.Context, req *models.RescheduleRequest) (*models.RescheduleRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	task, err := rs.tasks.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	req.ID = uuid.New().String()
	req.CreatedAt = time.Now()
	if err := rs.store.SaveRescheduleRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to save reschedule request for task %s: %v", req.TaskID, err)
	}

	rs.reminders.NotifyNow(task, models.KindScheduleChange,
		fmt.Sprintf("Reschedule to %s requested by %s: %s", req.NewTime.Format(time.RFC3339), req.RequestedBy, req.Reason))
	return req, nil
}

// ListForTask returns the recorded reschedule requests for one task.
func (rs *RescheduleService) ListForTask(ctx context.Context, taskID string) ([]*models.RescheduleRequest, error) {
	if _, err := rs.tasks.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return rs.store.RescheduleRequestsForTask(ctx, taskID)
}
