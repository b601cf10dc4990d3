package services

import (
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"
)

// ReminderService schedules pickup reminders relative to a task's pickup time
// and cancels them in bulk when a task reaches a terminal status. It never
// surfaces dispatch failures to its callers; a lost notification must not fail
// the status transition that triggered it.
type ReminderService struct {
	notifier Notifier
	clock    Clock
}

func NewReminderService(notifier Notifier, clock Clock) *ReminderService {
	return &ReminderService{notifier: notifier, clock: clock}
}

// Schedule registers a one-shot reminder offsetMinutes before the task's pickup
// time. Returns nil when the computed fire time is not in the future: a lapsed
// reminder is silently skipped, not an error.
func (rs *ReminderService) Schedule(task *models.Task, offsetMinutes int) *models.ReminderHandle {
	fireAt := task.PickupTime.Add(-time.Duration(offsetMinutes) * time.Minute)
	if !fireAt.After(rs.clock.Now()) {
		logging.Logger.Infof("Event ID: REMINDER_SKIPPED, Description: Reminder for task %s lapsed (fire time %s already passed)", task.ID, fireAt.Format(time.RFC3339))
		return nil
	}

	payload := models.Notification{
		TaskID:  task.ID,
		Kind:    models.KindReminder,
		Title:   "Pickup reminder",
		Message: fmt.Sprintf("Pickup from %s at %s in %d minutes", task.DonorInfo.Name, task.DonorInfo.Address, offsetMinutes),
	}

	handle, err := rs.notifier.ScheduleAt(fireAt, task.ID, models.KindReminder, payload)
	if err != nil {
		logging.Logger.Errorf("Event ID: REMINDER_SCHEDULE_FAILED, Description: Failed to schedule reminder for task %s: %v", task.ID, err)
		return nil
	}
	return handle
}

// CancelAll cancels every outstanding reminder for the task id, of any kind.
// Idempotent; calling it for an id with no reminders is a no-op.
func (rs *ReminderService) CancelAll(taskID string) {
	rs.notifier.CancelAllForTask(taskID)
}

// NotifyNow fires an immediate notification. Failures are logged and swallowed.
func (rs *ReminderService) NotifyNow(task *models.Task, kind models.NotificationKind, message string) {
	payload := models.Notification{
		TaskID:  task.ID,
		Kind:    kind,
		Title:   titleFor(kind),
		Message: message,
	}
	if err := rs.notifier.SendNow(payload); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send %s notification for task %s: %v", kind, task.ID, err)
	}
}

func titleFor(kind models.NotificationKind) string {
	switch kind {
	case models.KindReminder:
		return "Pickup reminder"
	case models.KindNewAssignment:
		return "New task assigned"
	case models.KindScheduleChange:
		return "Schedule change requested"
	default:
		return "Task update"
	}
}
