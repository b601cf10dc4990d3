package services

import (
	"context"
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"

	"github.com/google/uuid"
)

type taskEvent string

const (
	eventAccept   taskEvent = "accept"
	eventStart    taskEvent = "start"
	eventComplete taskEvent = "complete"
	eventCancel   taskEvent = "cancel"
)

// transitions - tabela dozvoljenih prelaza stanja zadatka.
// Terminal statuses (completed, cancelled) have no outgoing edges.
var transitions = map[models.TaskStatus]map[taskEvent]models.TaskStatus{
	models.StatusAssigned: {
		eventAccept: models.StatusAccepted,
		eventCancel: models.StatusCancelled,
	},
	models.StatusAccepted: {
		eventStart:  models.StatusInProgress,
		eventCancel: models.StatusCancelled,
	},
	models.StatusInProgress: {
		eventComplete: models.StatusCompleted,
		eventCancel:   models.StatusCancelled,
	},
}

// TaskLifecycleService owns the task state machine: it validates transitions,
// persists the new status, and fires the reminder/notification/stats side
// effects. The status write is authoritative; side effects are best-effort and
// can never fail an already-committed transition.
type TaskLifecycleService struct {
	store                 TaskStore
	reminders             *ReminderService
	stats                 *StatsService
	locks                 *taskLocks
	reminderOffsetMinutes int
}

func NewTaskLifecycleService(store TaskStore, reminders *ReminderService, stats *StatsService, reminderOffsetMinutes int) *TaskLifecycleService {
	return &TaskLifecycleService{
		store:                 store,
		reminders:             reminders,
		stats:                 stats,
		locks:                 newTaskLocks(),
		reminderOffsetMinutes: reminderOffsetMinutes,
	}
}

// Assign stores a newly created pickup-and-delivery task in status assigned
// and notifies the volunteer. Tasks enter the lifecycle only through here.
func (s *TaskLifecycleService) Assign(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Status == "" {
		task.Status = models.StatusAssigned
	}
	if task.Status != models.StatusAssigned {
		return nil, fmt.Errorf("new task %s must start in status %q: %w", task.ID, models.StatusAssigned, ErrInvalidTransition)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task %s: %v", task.ID, err)
	}

	logging.Logger.Infof("Event ID: TASK_ASSIGNED, Description: Task %s assigned (pickup from %s)", task.ID, task.DonorInfo.Name)
	s.reminders.NotifyNow(task, models.KindNewAssignment, fmt.Sprintf("New pickup from %s, delivery to %s", task.DonorInfo.Name, task.NGOInfo.Name))
	return task, nil
}

// Accept moves an assigned task to accepted, schedules the pickup reminder and
// notifies the volunteer.
func (s *TaskLifecycleService) Accept(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.transition(ctx, taskID, eventAccept, "")
	if err != nil {
		return nil, err
	}

	s.reminders.Schedule(task, s.reminderOffsetMinutes)
	s.reminders.NotifyNow(task, models.KindStatusUpdate, fmt.Sprintf("Task accepted, pickup from %s", task.DonorInfo.Name))
	return task, nil
}

// Start moves an accepted task to in_progress.
func (s *TaskLifecycleService) Start(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.transition(ctx, taskID, eventStart, "")
	if err != nil {
		return nil, err
	}

	s.reminders.NotifyNow(task, models.KindStatusUpdate, fmt.Sprintf("Pickup started for delivery to %s", task.NGOInfo.Name))
	return task, nil
}

// Complete moves an in_progress task to completed, cancels its reminders and
// updates the volunteer's impact stats. The status write commits first; a
// failed stats update is logged and retried out of band (the recompute is
// idempotent against the same completed task).
func (s *TaskLifecycleService) Complete(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.transition(ctx, taskID, eventComplete, "")
	if err != nil {
		return nil, err
	}

	s.reminders.CancelAll(task.ID)
	s.reminders.NotifyNow(task, models.KindStatusUpdate, fmt.Sprintf("Delivery to %s completed", task.NGOInfo.Name))

	if err := s.stats.OnCompletion(ctx, task); err != nil {
		logging.Logger.Errorf("Event ID: STATS_UPDATE_FAILED, Description: Task %s completed but stats update failed: %v", task.ID, err)
	}
	return task, nil
}

// Cancel moves any non-terminal task to cancelled and stores the reason for
// audit. The reason is not otherwise validated.
func (s *TaskLifecycleService) Cancel(ctx context.Context, taskID, reason string) (*models.Task, error) {
	task, err := s.transition(ctx, taskID, eventCancel, reason)
	if err != nil {
		return nil, err
	}

	s.reminders.CancelAll(task.ID)
	s.reminders.NotifyNow(task, models.KindStatusUpdate, fmt.Sprintf("Task cancelled: %s", reason))
	return task, nil
}

// transition performs the serialized read-validate-write sequence for one task.
// Holding the per-id lock closes the lost-update race where two concurrent
// callers both observe the same status and both succeed.
func (s *TaskLifecycleService) transition(ctx context.Context, taskID string, event taskEvent, cancelReason string) (*models.Task, error) {
	unlock := s.locks.Lock(taskID)
	defer unlock()

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	next, ok := transitions[task.Status][event]
	if !ok {
		return nil, fmt.Errorf("cannot %s task %s in status %q: %w", event, taskID, task.Status, ErrInvalidTransition)
	}

	updated, err := s.store.SetTaskStatus(ctx, taskID, next, cancelReason)
	if err != nil {
		return nil, fmt.Errorf("failed to persist status %q for task %s: %v", next, taskID, err)
	}

	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: Task %s moved from %q to %q", taskID, task.Status, next)
	return updated, nil
}
