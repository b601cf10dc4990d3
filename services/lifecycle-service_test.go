package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"foodlink-project/microservices/volunteer-service/models"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestAcceptSchedulesReminderAndNotifies(t *testing.T) {
	pickup := testNow.Add(3 * time.Hour)
	fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAssigned, models.PriorityMedium, pickup))

	task, err := fx.lifecycle.Accept(context.Background(), "t1")
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if task.Status != models.StatusAccepted {
		t.Fatalf("expected status accepted, got %q", task.Status)
	}
	if got := fx.store.statusOf("t1"); got != models.StatusAccepted {
		t.Fatalf("store status = %q, want accepted", got)
	}

	handles := fx.notifier.pendingFor("t1")
	if len(handles) != 1 {
		t.Fatalf("expected 1 pending reminder, got %d", len(handles))
	}
	wantFireAt := pickup.Add(-30 * time.Minute)
	if !handles[0].FireAt.Equal(wantFireAt) {
		t.Fatalf("reminder fire time = %s, want %s", handles[0].FireAt, wantFireAt)
	}
	if handles[0].Kind != models.KindReminder {
		t.Fatalf("reminder kind = %q", handles[0].Kind)
	}

	kinds := fx.notifier.sentKinds()
	if len(kinds) != 1 || kinds[0] != models.KindStatusUpdate {
		t.Fatalf("expected one status_update notification, got %v", kinds)
	}
}

func TestAcceptSkipsLapsedReminder(t *testing.T) {
	// Pickup in 20 minutes: the 30-minute reminder instant is already past.
	pickup := testNow.Add(20 * time.Minute)
	fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAssigned, models.PriorityMedium, pickup))

	if _, err := fx.lifecycle.Accept(context.Background(), "t1"); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if handles := fx.notifier.pendingFor("t1"); len(handles) != 0 {
		t.Fatalf("expected no pending reminders, got %d", len(handles))
	}
}

func TestTransitionTable(t *testing.T) {
	type op struct {
		name string
		call func(*TaskLifecycleService, string) error
	}
	ops := []op{
		{"accept", func(s *TaskLifecycleService, id string) error {
			_, err := s.Accept(context.Background(), id)
			return err
		}},
		{"start", func(s *TaskLifecycleService, id string) error {
			_, err := s.Start(context.Background(), id)
			return err
		}},
		{"complete", func(s *TaskLifecycleService, id string) error {
			_, err := s.Complete(context.Background(), id)
			return err
		}},
		{"cancel", func(s *TaskLifecycleService, id string) error {
			_, err := s.Cancel(context.Background(), id, "test")
			return err
		}},
	}

	legal := map[models.TaskStatus]map[string]models.TaskStatus{
		models.StatusAssigned:   {"accept": models.StatusAccepted, "cancel": models.StatusCancelled},
		models.StatusAccepted:   {"start": models.StatusInProgress, "cancel": models.StatusCancelled},
		models.StatusInProgress: {"complete": models.StatusCompleted, "cancel": models.StatusCancelled},
		models.StatusCompleted:  {},
		models.StatusCancelled:  {},
	}

	statuses := []models.TaskStatus{
		models.StatusAssigned, models.StatusAccepted, models.StatusInProgress,
		models.StatusCompleted, models.StatusCancelled,
	}

	for _, status := range statuses {
		for _, operation := range ops {
			fx := newLifecycleFixture(testNow, newTestTask("t1", status, models.PriorityLow, testNow.Add(2*time.Hour)))
			err := operation.call(fx.lifecycle, "t1")

			want, ok := legal[status][operation.name]
			if ok {
				if err != nil {
					t.Errorf("%s from %q: unexpected error %v", operation.name, status, err)
				} else if got := fx.store.statusOf("t1"); got != want {
					t.Errorf("%s from %q: status = %q, want %q", operation.name, status, got, want)
				}
				continue
			}

			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s from %q: expected ErrInvalidTransition, got %v", operation.name, status, err)
			}
			if got := fx.store.statusOf("t1"); got != status {
				t.Errorf("%s from %q: status changed to %q on rejected transition", operation.name, status, got)
			}
		}
	}
}

func TestOperationsOnUnknownTask(t *testing.T) {
	fx := newLifecycleFixture(testNow)

	if _, err := fx.lifecycle.Accept(context.Background(), "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("accept: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := fx.lifecycle.Cancel(context.Background(), "missing", "no show"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("cancel: expected ErrTaskNotFound, got %v", err)
	}
}

func TestCompleteUpdatesStatsOnce(t *testing.T) {
	task := newTestTask("t2", models.StatusInProgress, models.PriorityLow, testNow.Add(time.Hour))
	task.FoodDetails.Quantity = "25 kg"
	fx := newLifecycleFixture(testNow, task)

	if _, err := fx.lifecycle.Complete(context.Background(), "t2"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	stats, _ := fx.store.GetStats(context.Background())
	want := models.VolunteerStats{
		CompletedTasks:  1,
		TotalDeliveries: 1,
		MealsDelivered:  25,
		TotalHours:      2,
		ImpactScore:     32, // floor(10 * 1.0 * ln(26))
	}
	if *stats != want {
		t.Fatalf("stats = %+v, want %+v", *stats, want)
	}
	if fx.notifier.cancelAllCalls != 1 {
		t.Fatalf("cancelAll calls = %d, want 1", fx.notifier.cancelAllCalls)
	}

	// Second complete must be rejected and must leave the stats unchanged.
	if _, err := fx.lifecycle.Complete(context.Background(), "t2"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second complete: expected ErrInvalidTransition, got %v", err)
	}
	stats, _ = fx.store.GetStats(context.Background())
	if *stats != want {
		t.Fatalf("stats changed on rejected complete: %+v", *stats)
	}
}

func TestCancelCompletedTaskRejected(t *testing.T) {
	fx := newLifecycleFixture(testNow, newTestTask("t3", models.StatusCompleted, models.PriorityHigh, testNow.Add(time.Hour)))

	_, err := fx.lifecycle.Cancel(context.Background(), "t3", "changed mind")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := fx.store.statusOf("t3"); got != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", got)
	}
}

func TestCancelStoresReason(t *testing.T) {
	fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAccepted, models.PriorityLow, testNow.Add(2*time.Hour)))

	task, err := fx.lifecycle.Cancel(context.Background(), "t1", "donor unavailable")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if task.CancelReason != "donor unavailable" {
		t.Fatalf("cancel reason = %q", task.CancelReason)
	}
	if fx.notifier.cancelAllCalls != 1 {
		t.Fatalf("cancelAll calls = %d, want 1", fx.notifier.cancelAllCalls)
	}
}

func TestPersistenceFailureHasNoSideEffects(t *testing.T) {
	fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAssigned, models.PriorityLow, testNow.Add(2*time.Hour)))
	fx.store.failSetStatus = errors.New("write timeout")

	if _, err := fx.lifecycle.Accept(context.Background(), "t1"); err == nil {
		t.Fatal("expected error from failed persistence")
	}
	if len(fx.notifier.pendingFor("t1")) != 0 {
		t.Fatal("reminder scheduled despite failed status write")
	}
	if len(fx.notifier.sentKinds()) != 0 {
		t.Fatal("notification sent despite failed status write")
	}
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAssigned, models.PriorityLow, testNow.Add(2*time.Hour)))
	fx.notifier.sendErr = errors.New("transport unavailable")

	task, err := fx.lifecycle.Accept(context.Background(), "t1")
	if err != nil {
		t.Fatalf("accept failed because of notification error: %v", err)
	}
	if task.Status != models.StatusAccepted {
		t.Fatalf("status = %q, want accepted", task.Status)
	}
}

func TestConcurrentAcceptAndCancelSerialized(t *testing.T) {
	for i := 0; i < 50; i++ {
		fx := newLifecycleFixture(testNow, newTestTask("t1", models.StatusAssigned, models.PriorityLow, testNow.Add(2*time.Hour)))

		var wg sync.WaitGroup
		var acceptErr, cancelErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = fx.lifecycle.Accept(context.Background(), "t1")
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = fx.lifecycle.Cancel(context.Background(), "t1", "race")
		}()
		wg.Wait()

		// Serialized transitions permit two interleavings only: accept then
		// cancel (both succeed), or cancel first and accept rejected. Both
		// end with the task cancelled.
		finalStatus := fx.store.statusOf("t1")
		switch {
		case acceptErr == nil && cancelErr == nil:
			if finalStatus != models.StatusCancelled {
				t.Fatalf("accept then cancel: final status %q, want cancelled", finalStatus)
			}
		case acceptErr != nil && cancelErr == nil:
			if !errors.Is(acceptErr, ErrInvalidTransition) {
				t.Fatalf("unexpected accept error: %v", acceptErr)
			}
			if finalStatus != models.StatusCancelled {
				t.Fatalf("cancel won: final status %q, want cancelled", finalStatus)
			}
		default:
			t.Fatalf("unexpected outcome: acceptErr=%v cancelErr=%v", acceptErr, cancelErr)
		}
	}
}

func TestAssignRejectsInvalidTask(t *testing.T) {
	fx := newLifecycleFixture(testNow)

	task := newTestTask("t9", models.StatusAssigned, models.PriorityLow, testNow.Add(2*time.Hour))
	task.DeliveryTime = task.PickupTime.Add(-time.Hour)
	if _, err := fx.lifecycle.Assign(context.Background(), task); err == nil {
		t.Fatal("expected validation error for delivery before pickup")
	}

	task = newTestTask("t9", models.StatusCompleted, models.PriorityLow, testNow.Add(2*time.Hour))
	if _, err := fx.lifecycle.Assign(context.Background(), task); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for non-assigned intake, got %v", err)
	}
}

func TestAssignNotifiesVolunteer(t *testing.T) {
	fx := newLifecycleFixture(testNow)

	task := newTestTask("", models.StatusAssigned, models.PriorityHigh, testNow.Add(4*time.Hour))
	task.ID = ""
	created, err := fx.lifecycle.Assign(context.Background(), task)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated task id")
	}
	if got := fx.store.statusOf(created.ID); got != models.StatusAssigned {
		t.Fatalf("store status = %q, want assigned", got)
	}
	kinds := fx.notifier.sentKinds()
	if len(kinds) != 1 || kinds[0] != models.KindNewAssignment {
		t.Fatalf("expected one new_assignment notification, got %v", kinds)
	}
}
