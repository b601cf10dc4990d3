package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"foodlink-project/microservices/volunteer-service/models"

	"github.com/google/uuid"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// fakeStore is an in-memory TaskStore/RescheduleStore used by the lifecycle,
// stats and view tests.
type fakeStore struct {
	mu          sync.Mutex
	tasks       map[string]*models.Task
	stats       models.VolunteerStats
	reschedules []*models.RescheduleRequest

	failSetStatus error // when set, SetTaskStatus fails without writing
}

func newFakeStore(tasks ...*models.Task) *fakeStore {
	s := &fakeStore{tasks: make(map[string]*models.Task)}
	for _, task := range tasks {
		copied := *task
		s.tasks[task.ID] = &copied
	}
	return s
}

func (s *fakeStore) GetTasks(ctx context.Context) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	copied := *task
	return &copied, nil
}

func (s *fakeStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeStore) SetTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, cancelReason string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSetStatus != nil {
		return nil, s.failSetStatus
	}
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrTaskNotFound)
	}
	task.Status = status
	if cancelReason != "" {
		task.CancelReason = cancelReason
	}
	task.UpdatedAt = time.Now()
	copied := *task
	return &copied, nil
}

func (s *fakeStore) GetStats(ctx context.Context) (*models.VolunteerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	return &stats, nil
}

func (s *fakeStore) ApplyStatsDelta(ctx context.Context, delta models.VolunteerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = s.stats.Add(delta)
	return nil
}

func (s *fakeStore) SaveRescheduleRequest(ctx context.Context, req *models.RescheduleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *req
	s.reschedules = append(s.reschedules, &copied)
	return nil
}

func (s *fakeStore) RescheduleRequestsForTask(ctx context.Context, taskID string) ([]*models.RescheduleRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.RescheduleRequest
	for _, req := range s.reschedules {
		if req.TaskID == taskID {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeStore) statusOf(taskID string) models.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[taskID].Status
}

// fakeNotifier records scheduled and sent notifications instead of delivering
// them.
type fakeNotifier struct {
	mu      sync.Mutex
	pending map[string][]*models.ReminderHandle
	sent    []models.Notification

	cancelAllCalls int
	sendErr        error // when set, SendNow fails
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{pending: make(map[string][]*models.ReminderHandle)}
}

func (n *fakeNotifier) ScheduleAt(fireAt time.Time, taskID string, kind models.NotificationKind, payload models.Notification) (*models.ReminderHandle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	handle := &models.ReminderHandle{ID: uuid.New().String(), TaskID: taskID, Kind: kind, FireAt: fireAt}
	n.pending[taskID] = append(n.pending[taskID], handle)
	return handle, nil
}

func (n *fakeNotifier) Cancel(handle *models.ReminderHandle) {
	if handle == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	handles := n.pending[handle.TaskID]
	for i, h := range handles {
		if h.ID == handle.ID {
			n.pending[handle.TaskID] = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(n.pending[handle.TaskID]) == 0 {
		delete(n.pending, handle.TaskID)
	}
}

func (n *fakeNotifier) CancelAllForTask(taskID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelAllCalls++
	delete(n.pending, taskID)
}

func (n *fakeNotifier) SendNow(payload models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, payload)
	return nil
}

func (n *fakeNotifier) pendingFor(taskID string) []*models.ReminderHandle {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*models.ReminderHandle(nil), n.pending[taskID]...)
}

func (n *fakeNotifier) sentKinds() []models.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]models.NotificationKind, 0, len(n.sent))
	for _, notification := range n.sent {
		kinds = append(kinds, notification.Kind)
	}
	return kinds
}

func newTestTask(id string, status models.TaskStatus, priority models.TaskPriority, pickup time.Time) *models.Task {
	return &models.Task{
		ID: id,
		DonorInfo: models.ContactInfo{
			Name:    "Green Grocer",
			Address: "12 Market St",
			Phone:   "071111222",
		},
		NGOInfo: models.ContactInfo{
			Name:    "Hope Shelter",
			Address: "4 Harbor Rd",
			Phone:   "071333444",
		},
		FoodDetails: models.FoodDetails{
			FoodType:   "cooked meals",
			Quantity:   "50 items",
			ExpiryTime: pickup.Add(6 * time.Hour),
		},
		PickupTime:   pickup,
		DeliveryTime: pickup.Add(time.Hour),
		Status:       status,
		Priority:     priority,
		CreatedAt:    pickup.Add(-24 * time.Hour),
		UpdatedAt:    pickup.Add(-24 * time.Hour),
	}
}

type lifecycleFixture struct {
	store     *fakeStore
	notifier  *fakeNotifier
	clock     fixedClock
	lifecycle *TaskLifecycleService
}

func newLifecycleFixture(now time.Time, tasks ...*models.Task) *lifecycleFixture {
	store := newFakeStore(tasks...)
	notifier := newFakeNotifier()
	clock := fixedClock{now: now}
	reminders := NewReminderService(notifier, clock)
	stats := NewStatsService(store)
	return &lifecycleFixture{
		store:     store,
		notifier:  notifier,
		clock:     clock,
		lifecycle: NewTaskLifecycleService(store, reminders, stats, 30),
	}
}
