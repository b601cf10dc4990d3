package models

import "time"

type NotificationKind string

const (
	KindReminder       NotificationKind = "reminder"
	KindStatusUpdate   NotificationKind = "status_update"
	KindNewAssignment  NotificationKind = "new_assignment"
	KindScheduleChange NotificationKind = "schedule_change"
)

// Notification - payload koji se šalje volonteru (odmah ili odloženo).
type Notification struct {
	ID        string           `json:"id"`
	TaskID    string           `json:"taskId"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ReminderHandle references one pending deferred notification. Owned by the
// notifier; it becomes stale once the timer fires or is cancelled.
type ReminderHandle struct {
	ID     string           `json:"id"`
	TaskID string           `json:"taskId"`
	Kind   NotificationKind `json:"kind"`
	FireAt time.Time        `json:"fireAt"`
}
