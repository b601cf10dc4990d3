package services

import (
	"context"
	"errors"

	"foodlink-project/microservices/volunteer-service/models"
)

// ErrTaskNotFound - referenced task id does not exist in the store.
var ErrTaskNotFound = errors.New("task not found")

// ErrInvalidTransition - requested event is not legal from the task's current status.
var ErrInvalidTransition = errors.New("invalid task status transition")

// TaskStore je jedinstveni šav ka trajnom skladištu zadataka i statistike.
// Backed by MongoDB or by a local SQLite file; the lifecycle engine does not
// care which.
type TaskStore interface {
	GetTasks(ctx context.Context) ([]*models.Task, error)
	// GetTask returns ErrTaskNotFound (possibly wrapped) for unknown ids.
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	// SetTaskStatus persists the new status (and the cancel reason, when the
	// status is cancelled) and returns the updated task. ErrTaskNotFound for
	// unknown ids.
	SetTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, cancelReason string) (*models.Task, error)
	GetStats(ctx context.Context) (*models.VolunteerStats, error)
	// ApplyStatsDelta atomically increments the singleton stats aggregate by
	// the given counters. Must be an atomic read-modify-write in the backing
	// store, not a read-then-save.
	ApplyStatsDelta(ctx context.Context, delta models.VolunteerStats) error
}

// RescheduleStore čuva zahteve za promenu termina kao audit zapis.
type RescheduleStore interface {
	SaveRescheduleRequest(ctx context.Context, req *models.RescheduleRequest) error
	RescheduleRequestsForTask(ctx context.Context, taskID string) ([]*models.RescheduleRequest, error)
}
