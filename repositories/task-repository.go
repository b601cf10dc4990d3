package repositories

import (
	"context"
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/models"
	"foodlink-project/microservices/volunteer-service/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// statsDocumentID - _id singleton dokumenta sa statistikom volontera.
const statsDocumentID = "volunteer"

// TaskRepo implements services.TaskStore and services.RescheduleStore on top
// of MongoDB.
type TaskRepo struct {
	tasksCollection       *mongo.Collection
	statsCollection       *mongo.Collection
	reschedulesCollection *mongo.Collection
}

func NewTaskRepo(db *mongo.Database) *TaskRepo {
	return &TaskRepo{
		tasksCollection:       db.Collection("tasks"),
		statsCollection:       db.Collection("volunteer_stats"),
		reschedulesCollection: db.Collection("reschedule_requests"),
	}
}

func (r *TaskRepo) GetTasks(ctx context.Context) ([]*models.Task, error) {
	var tasks []*models.Task
	cursor, err := r.tasksCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, fmt.Errorf("failed to decode task: %v", err)
		}
		tasks = append(tasks, &task)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return tasks, nil
}

func (r *TaskRepo) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	err := r.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("task %s: %w", taskID, services.ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task %s: %v", taskID, err)
	}
	return &task, nil
}

func (r *TaskRepo) CreateTask(ctx context.Context, task *models.Task) error {
	if _, err := r.tasksCollection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %v", err)
	}
	return nil
}

func (r *TaskRepo) SetTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, cancelReason string) (*models.Task, error) {
	fields := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if cancelReason != "" {
		fields["cancelReason"] = cancelReason
	}

	result, err := r.tasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, bson.M{"$set": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("task %s: %w", taskID, services.ErrTaskNotFound)
	}

	// Vratimo ažurirani task
	var task models.Task
	if err := r.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to retrieve updated task: %v", err)
	}
	return &task, nil
}

func (r *TaskRepo) GetStats(ctx context.Context) (*models.VolunteerStats, error) {
	var stats models.VolunteerStats
	err := r.statsCollection.FindOne(ctx, bson.M{"_id": statsDocumentID}).Decode(&stats)
	if err == mongo.ErrNoDocuments {
		return &models.VolunteerStats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve volunteer stats: %v", err)
	}
	return &stats, nil
}

func (r *TaskRepo) ApplyStatsDelta(ctx context.Context, delta models.VolunteerStats) error {
	update := bson.M{"$inc": bson.M{
		"completedTasks":  delta.CompletedTasks,
		"totalDeliveries": delta.TotalDeliveries,
		"mealsDelivered":  delta.MealsDelivered,
		"totalHours":      delta.TotalHours,
		"impactScore":     delta.ImpactScore,
	}}

	opts := options.Update().SetUpsert(true)
	if _, err := r.statsCollection.UpdateOne(ctx, bson.M{"_id": statsDocumentID}, update, opts); err != nil {
		return fmt.Errorf("failed to increment volunteer stats: %v", err)
	}
	return nil
}

func (r *TaskRepo) SaveRescheduleRequest(ctx context.Context, req *models.RescheduleRequest) error {
	if _, err := r.reschedulesCollection.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to save reschedule request: %v", err)
	}
	return nil
}

func (r *TaskRepo) RescheduleRequestsForTask(ctx context.Context, taskID string) ([]*models.RescheduleRequest, error) {
	cursor, err := r.reschedulesCollection.Find(ctx, bson.M{"taskId": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reschedule requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []*models.RescheduleRequest
	for cursor.Next(ctx) {
		var req models.RescheduleRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, fmt.Errorf("failed to decode reschedule request: %v", err)
		}
		requests = append(requests, &req)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return requests, nil
}
