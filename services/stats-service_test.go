package services

import (
	"context"
	"testing"
	"time"

	"foodlink-project/microservices/volunteer-service/models"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"50 items", 50},
		{"25 kg", 25},
		{"40 portions", 40},
		{"approx. 12 boxes", 12},
		{"a few bags", 1},
		{"", 1},
		{"0 items", 1},
	}
	for _, c := range cases {
		if got := ParseQuantity(c.in); got != c.want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestImpactScore(t *testing.T) {
	cases := []struct {
		priority models.TaskPriority
		quantity int
		want     int
	}{
		{models.PriorityHigh, 40, 55},   // floor(15 * ln(41)) = floor(55.70)
		{models.PriorityLow, 25, 32},    // floor(10 * ln(26)) = floor(32.58)
		{models.PriorityMedium, 10, 28}, // floor(12 * ln(11)) = floor(28.77)
		{models.PriorityLow, 1, 6},      // floor(10 * ln(2)) = floor(6.93)
	}
	for _, c := range cases {
		if got := ImpactScore(c.priority, c.quantity); got != c.want {
			t.Errorf("ImpactScore(%q, %d) = %d, want %d", c.priority, c.quantity, got, c.want)
		}
	}
}

func TestCompletionDelta(t *testing.T) {
	task := newTestTask("t1", models.StatusInProgress, models.PriorityHigh, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	task.FoodDetails.Quantity = "40 portions"

	delta := CompletionDelta(task)
	want := models.VolunteerStats{
		CompletedTasks:  1,
		TotalDeliveries: 1,
		MealsDelivered:  40,
		TotalHours:      2,
		ImpactScore:     55,
	}
	if delta != want {
		t.Fatalf("delta = %+v, want %+v", delta, want)
	}
}

func TestOnCompletionAccumulates(t *testing.T) {
	store := newFakeStore()
	stats := NewStatsService(store)

	first := newTestTask("t1", models.StatusCompleted, models.PriorityLow, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	first.FoodDetails.Quantity = "25 kg"
	second := newTestTask("t2", models.StatusCompleted, models.PriorityHigh, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	second.FoodDetails.Quantity = "40 portions"

	if err := stats.OnCompletion(context.Background(), first); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if err := stats.OnCompletion(context.Background(), second); err != nil {
		t.Fatalf("second completion: %v", err)
	}

	got, _ := store.GetStats(context.Background())
	want := models.VolunteerStats{
		CompletedTasks:  2,
		TotalDeliveries: 2,
		MealsDelivered:  65,
		TotalHours:      4,
		ImpactScore:     87,
	}
	if *got != want {
		t.Fatalf("stats = %+v, want %+v", *got, want)
	}
}
