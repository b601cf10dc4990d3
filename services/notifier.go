package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// Notifier is the push-notification collaborator: it can deliver a payload
// immediately or register a one-shot deferred delivery keyed by task id.
type Notifier interface {
	// ScheduleAt registers a one-shot delivery at fireAt. Returns nil, nil when
	// the notifier refuses the registration (already-lapsed fire time).
	ScheduleAt(fireAt time.Time, taskID string, kind models.NotificationKind, payload models.Notification) (*models.ReminderHandle, error)
	Cancel(handle *models.ReminderHandle)
	// CancelAllForTask cancels every pending delivery tagged with the task id,
	// of any kind. Safe to call repeatedly and for unknown ids.
	CancelAllForTask(taskID string)
	SendNow(payload models.Notification) error
}

// NotificationLog beleži svaku poslatu notifikaciju (audit).
type NotificationLog interface {
	RecordDispatch(n models.Notification) error
}

// TimerNotifier drži odložene notifikacije u procesu (time.AfterFunc) i šalje
// ih notifications servisu preko HTTP-a sa circuit breaker-om.
type TimerNotifier struct {
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	endpoint string
	auditLog NotificationLog // optional, may be nil

	mu     sync.Mutex
	timers map[string]map[string]*time.Timer // taskID -> handleID -> timer
}

func NewTimerNotifier(client *http.Client, breaker *gobreaker.CircuitBreaker, endpoint string, auditLog NotificationLog) *TimerNotifier {
	return &TimerNotifier{
		client:   client,
		breaker:  breaker,
		endpoint: endpoint,
		auditLog: auditLog,
		timers:   make(map[string]map[string]*time.Timer),
	}
}

func (n *TimerNotifier) ScheduleAt(fireAt time.Time, taskID string, kind models.NotificationKind, payload models.Notification) (*models.ReminderHandle, error) {
	handle := &models.ReminderHandle{
		ID:     uuid.New().String(),
		TaskID: taskID,
		Kind:   kind,
		FireAt: fireAt,
	}

	timer := time.AfterFunc(time.Until(fireAt), func() {
		n.forget(taskID, handle.ID)
		if err := n.SendNow(payload); err != nil {
			logging.Logger.Errorf("Event ID: REMINDER_DISPATCH_FAILED, Description: Failed to deliver deferred notification for task %s: %v", taskID, err)
		}
	})

	n.mu.Lock()
	byHandle, ok := n.timers[taskID]
	if !ok {
		byHandle = make(map[string]*time.Timer)
		n.timers[taskID] = byHandle
	}
	byHandle[handle.ID] = timer
	n.mu.Unlock()

	return handle, nil
}

func (n *TimerNotifier) Cancel(handle *models.ReminderHandle) {
	if handle == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if byHandle, ok := n.timers[handle.TaskID]; ok {
		if timer, ok := byHandle[handle.ID]; ok {
			// Stop returning false means the timer already fired; that race is
			// benign, the late notification is acceptable.
			timer.Stop()
			delete(byHandle, handle.ID)
			if len(byHandle) == 0 {
				delete(n.timers, handle.TaskID)
			}
		}
	}
}

func (n *TimerNotifier) CancelAllForTask(taskID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, timer := range n.timers[taskID] {
		timer.Stop()
	}
	delete(n.timers, taskID)
}

// PendingForTask returns how many deferred deliveries are outstanding for the
// task id.
func (n *TimerNotifier) PendingForTask(taskID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.timers[taskID])
}

func (n *TimerNotifier) forget(taskID, handleID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if byHandle, ok := n.timers[taskID]; ok {
		delete(byHandle, handleID)
		if len(byHandle) == 0 {
			delete(n.timers, taskID)
		}
	}
}

func (n *TimerNotifier) SendNow(payload models.Notification) error {
	if payload.ID == "" {
		payload.ID = uuid.New().String()
	}
	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = time.Now()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %v", err)
	}

	_, err = n.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequest(http.MethodPost, n.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Role", "coordinator")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %v", err)
	}

	if n.auditLog != nil {
		if err := n.auditLog.RecordDispatch(payload); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFICATION_AUDIT_FAILED, Description: Failed to record dispatched notification for task %s: %v", payload.TaskID, err)
		}
	}
	return nil
}
