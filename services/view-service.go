package services

import (
	"context"
	"sort"
	"time"

	"foodlink-project/microservices/volunteer-service/models"
)

const urgentExpiryWindow = 2 * time.Hour

// DayMarker - boja markera za jedan kalendarski dan.
type DayMarker string

const (
	MarkerUrgent DayMarker = "urgent" // red: a high priority task exists on the day
	MarkerActive DayMarker = "active" // orange: a non-terminal task exists on the day
	MarkerNormal DayMarker = "normal" // green: only finished tasks on the day
)

// CalendarDay groups the tasks whose pickup falls on one calendar date.
type CalendarDay struct {
	Date   string         `json:"date"` // YYYY-MM-DD in local time
	Marker DayMarker      `json:"marker"`
	Tasks  []*models.Task `json:"tasks"`
}

// ViewService computes derived, read-only views over the current task
// snapshot. All derivations are pure over the snapshot and clock.Now().
type ViewService struct {
	store TaskStore
	clock Clock
}

func NewViewService(store TaskStore, clock Clock) *ViewService {
	return &ViewService{store: store, clock: clock}
}

// Urgent returns active tasks that are high priority or whose food expires
// within the next two hours.
func (vs *ViewService) Urgent(ctx context.Context) ([]*models.Task, error) {
	tasks, err := vs.store.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	now := vs.clock.Now()
	urgent := []*models.Task{}
	for _, task := range tasks {
		if task.Status.IsTerminal() {
			continue
		}
		if task.Priority == models.PriorityHigh || !task.FoodDetails.ExpiryTime.After(now.Add(urgentExpiryWindow)) {
			urgent = append(urgent, task)
		}
	}
	return urgent, nil
}

// Today returns tasks whose pickup time falls within the current local
// calendar day.
func (vs *ViewService) Today(ctx context.Context) ([]*models.Task, error) {
	tasks, err := vs.store.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	now := vs.clock.Now()
	dayStart := startOfDay(now)
	dayEnd := dayStart.Add(24 * time.Hour)

	today := []*models.Task{}
	for _, task := range tasks {
		if !task.PickupTime.Before(dayStart) && task.PickupTime.Before(dayEnd) {
			today = append(today, task)
		}
	}
	return today, nil
}

// GroupByDate partitions all tasks by the calendar date of their pickup time.
// Days are sorted ascending, tasks within a day by pickup time. The day marker
// is urgent when any task on the day (terminal or not) is high priority,
// active when any task is non-terminal, normal otherwise.
func (vs *ViewService) GroupByDate(ctx context.Context) ([]*CalendarDay, error) {
	tasks, err := vs.store.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*CalendarDay)
	for _, task := range tasks {
		date := task.PickupTime.In(vs.clock.Now().Location()).Format("2006-01-02")
		day, ok := byDate[date]
		if !ok {
			day = &CalendarDay{Date: date, Marker: MarkerNormal}
			byDate[date] = day
		}
		day.Tasks = append(day.Tasks, task)

		if task.Priority == models.PriorityHigh {
			day.Marker = MarkerUrgent
		} else if day.Marker != MarkerUrgent && !task.Status.IsTerminal() {
			day.Marker = MarkerActive
		}
	}

	days := make([]*CalendarDay, 0, len(byDate))
	for _, day := range byDate {
		sort.Slice(day.Tasks, func(i, j int) bool {
			return day.Tasks[i].PickupTime.Before(day.Tasks[j].PickupTime)
		})
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
