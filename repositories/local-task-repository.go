package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/models"
	"foodlink-project/microservices/volunteer-service/services"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

// LocalTaskRepo implements services.TaskStore and services.RescheduleStore on
// top of a local SQLite file, for deployments without a reachable MongoDB.
// Reference data (donor, NGO, food details) is stored as JSON columns.
type LocalTaskRepo struct {
	db *sql.DB
}

func OpenLocalTaskRepo(path string) (*LocalTaskRepo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %v", err)
	}
	repo := &LocalTaskRepo{db: db}
	if err := repo.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *LocalTaskRepo) Close() error {
	return r.db.Close()
}

func (r *LocalTaskRepo) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			donor_info TEXT NOT NULL,
			ngo_info TEXT NOT NULL,
			food_details TEXT NOT NULL,
			pickup_time TEXT NOT NULL,
			delivery_time TEXT NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			distance TEXT,
			estimated_duration TEXT,
			cancel_reason TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS volunteer_stats (
			id TEXT PRIMARY KEY,
			completed_tasks INTEGER NOT NULL DEFAULT 0,
			total_deliveries INTEGER NOT NULL DEFAULT 0,
			meals_delivered INTEGER NOT NULL DEFAULT 0,
			total_hours INTEGER NOT NULL DEFAULT 0,
			impact_score INTEGER NOT NULL DEFAULT 0,
			average_rating REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS reschedule_requests (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			new_time TEXT NOT NULL,
			reason TEXT,
			requested_by TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create local schema: %v", err)
		}
	}
	return nil
}

func (r *LocalTaskRepo) GetTasks(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, donor_info, ngo_info, food_details, pickup_time, delivery_time,
		       status, priority, distance, estimated_duration, cancel_reason, created_at, updated_at
		FROM tasks ORDER BY pickup_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *LocalTaskRepo) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, donor_info, ngo_info, food_details, pickup_time, delivery_time,
		       status, priority, distance, estimated_duration, cancel_reason, created_at, updated_at
		FROM tasks WHERE id = ?`, taskID)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", taskID, services.ErrTaskNotFound)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *LocalTaskRepo) CreateTask(ctx context.Context, task *models.Task) error {
	donorInfo, err := json.Marshal(task.DonorInfo)
	if err != nil {
		return fmt.Errorf("failed to encode donor info: %v", err)
	}
	ngoInfo, err := json.Marshal(task.NGOInfo)
	if err != nil {
		return fmt.Errorf("failed to encode ngo info: %v", err)
	}
	foodDetails, err := json.Marshal(task.FoodDetails)
	if err != nil {
		return fmt.Errorf("failed to encode food details: %v", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, donor_info, ngo_info, food_details, pickup_time, delivery_time,
		                   status, priority, distance, estimated_duration, cancel_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, string(donorInfo), string(ngoInfo), string(foodDetails),
		task.PickupTime.Format(sqliteTimeLayout), task.DeliveryTime.Format(sqliteTimeLayout),
		task.Status, task.Priority, task.Distance, task.EstimatedDuration, task.CancelReason,
		task.CreatedAt.Format(sqliteTimeLayout), task.UpdatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %v", err)
	}
	return nil
}

func (r *LocalTaskRepo) SetTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, cancelReason string) (*models.Task, error) {
	var res sql.Result
	var err error
	if cancelReason != "" {
		res, err = r.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, cancel_reason = ?, updated_at = ? WHERE id = ?`,
			status, cancelReason, time.Now().Format(sqliteTimeLayout), taskID)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			status, time.Now().Format(sqliteTimeLayout), taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check task update: %v", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("task %s: %w", taskID, services.ErrTaskNotFound)
	}
	return r.GetTask(ctx, taskID)
}

func (r *LocalTaskRepo) GetStats(ctx context.Context) (*models.VolunteerStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT completed_tasks, total_deliveries, meals_delivered, total_hours, impact_score, average_rating
		FROM volunteer_stats WHERE id = ?`, statsDocumentID)

	var stats models.VolunteerStats
	err := row.Scan(&stats.CompletedTasks, &stats.TotalDeliveries, &stats.MealsDelivered,
		&stats.TotalHours, &stats.ImpactScore, &stats.AverageRating)
	if err == sql.ErrNoRows {
		return &models.VolunteerStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve volunteer stats: %v", err)
	}
	return &stats, nil
}

func (r *LocalTaskRepo) ApplyStatsDelta(ctx context.Context, delta models.VolunteerStats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO volunteer_stats (id, completed_tasks, total_deliveries, meals_delivered, total_hours, impact_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			completed_tasks = completed_tasks + excluded.completed_tasks,
			total_deliveries = total_deliveries + excluded.total_deliveries,
			meals_delivered = meals_delivered + excluded.meals_delivered,
			total_hours = total_hours + excluded.total_hours,
			impact_score = impact_score + excluded.impact_score`,
		statsDocumentID, delta.CompletedTasks, delta.TotalDeliveries, delta.MealsDelivered,
		delta.TotalHours, delta.ImpactScore)
	if err != nil {
		return fmt.Errorf("failed to increment volunteer stats: %v", err)
	}
	return nil
}

func (r *LocalTaskRepo) SaveRescheduleRequest(ctx context.Context, req *models.RescheduleRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reschedule_requests (id, task_id, new_time, reason, requested_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.TaskID, req.NewTime.Format(sqliteTimeLayout), req.Reason, req.RequestedBy,
		req.CreatedAt.Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("failed to save reschedule request: %v", err)
	}
	return nil
}

func (r *LocalTaskRepo) RescheduleRequestsForTask(ctx context.Context, taskID string) ([]*models.RescheduleRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, new_time, reason, requested_by, created_at
		FROM reschedule_requests WHERE task_id = ? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reschedule requests: %v", err)
	}
	defer rows.Close()

	var requests []*models.RescheduleRequest
	for rows.Next() {
		var req models.RescheduleRequest
		var newTime, createdAt string
		if err := rows.Scan(&req.ID, &req.TaskID, &newTime, &req.Reason, &req.RequestedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to decode reschedule request: %v", err)
		}
		if req.NewTime, err = time.Parse(sqliteTimeLayout, newTime); err != nil {
			return nil, fmt.Errorf("failed to parse reschedule time: %v", err)
		}
		if req.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse reschedule created_at: %v", err)
		}
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var donorInfo, ngoInfo, foodDetails string
	var pickupTime, deliveryTime, createdAt, updatedAt string
	var distance, estimatedDuration, cancelReason sql.NullString

	err := row.Scan(&task.ID, &donorInfo, &ngoInfo, &foodDetails, &pickupTime, &deliveryTime,
		&task.Status, &task.Priority, &distance, &estimatedDuration, &cancelReason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(donorInfo), &task.DonorInfo); err != nil {
		return nil, fmt.Errorf("failed to decode donor info: %v", err)
	}
	if err := json.Unmarshal([]byte(ngoInfo), &task.NGOInfo); err != nil {
		return nil, fmt.Errorf("failed to decode ngo info: %v", err)
	}
	if err := json.Unmarshal([]byte(foodDetails), &task.FoodDetails); err != nil {
		return nil, fmt.Errorf("failed to decode food details: %v", err)
	}

	if task.PickupTime, err = time.Parse(sqliteTimeLayout, pickupTime); err != nil {
		return nil, fmt.Errorf("failed to parse pickup time: %v", err)
	}
	if task.DeliveryTime, err = time.Parse(sqliteTimeLayout, deliveryTime); err != nil {
		return nil, fmt.Errorf("failed to parse delivery time: %v", err)
	}
	if task.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %v", err)
	}
	if task.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %v", err)
	}

	task.Distance = distance.String
	task.EstimatedDuration = estimatedDuration.String
	task.CancelReason = cancelReason.String

	return &task, nil
}
