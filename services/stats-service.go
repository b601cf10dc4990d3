package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"foodlink-project/microservices/volunteer-service/models"
)

const hoursPerTask = 2 // fixed per-task estimate, not derived from actual duration

var priorityMultipliers = map[models.TaskPriority]float64{
	models.PriorityHigh:   1.5,
	models.PriorityMedium: 1.2,
	models.PriorityLow:    1.0,
}

var quantityPattern = regexp.MustCompile(`\d+`)

// StatsService recomputes the volunteer's cumulative impact counters when a
// task completes. The caller guarantees OnCompletion runs exactly once per
// completed transition; the service does not deduplicate internally.
type StatsService struct {
	store TaskStore
}

func NewStatsService(store TaskStore) *StatsService {
	return &StatsService{store: store}
}

// OnCompletion applies the completion delta for the task via an atomic
// increment on the store.
func (ss *StatsService) OnCompletion(ctx context.Context, task *models.Task) error {
	delta := CompletionDelta(task)
	if err := ss.store.ApplyStatsDelta(ctx, delta); err != nil {
		return fmt.Errorf("failed to apply stats delta for task %s: %v", task.ID, err)
	}
	return nil
}

// CompletionDelta computes the stats increments awarded for one completed task.
func CompletionDelta(task *models.Task) models.VolunteerStats {
	quantity := ParseQuantity(task.FoodDetails.Quantity)
	return models.VolunteerStats{
		CompletedTasks:  1,
		TotalDeliveries: 1,
		MealsDelivered:  quantity,
		TotalHours:      hoursPerTask,
		ImpactScore:     ImpactScore(task.Priority, quantity),
	}
}

// ImpactScore = floor(10 * priorityMultiplier * ln(quantity + 1)).
func ImpactScore(priority models.TaskPriority, quantity int) int {
	multiplier, ok := priorityMultipliers[priority]
	if !ok {
		multiplier = priorityMultipliers[models.PriorityLow]
	}
	return int(math.Floor(10 * multiplier * math.Log(float64(quantity)+1)))
}

// ParseQuantity extracts the first unsigned integer from a free-text quantity
// string such as "50 items" or "25 kg". Deliberately loose: when no integer is
// found the task still counts as one meal delivered.
func ParseQuantity(quantity string) int {
	match := quantityPattern.FindString(quantity)
	if match == "" {
		return 1
	}
	value, err := strconv.Atoi(match)
	if err != nil || value <= 0 {
		return 1
	}
	return value
}
