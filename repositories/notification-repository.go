package repositories

import (
	"fmt"
	"time"

	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/models"

	"github.com/gocql/gocql"
)

// NotificationRepo beleži svaku poslatu notifikaciju u Cassandra bazu (audit log).
type NotificationRepo struct {
	session *gocql.Session
}

// NewNotificationRepo se povezuje na Cassandra bazu i priprema keyspace.
func NewNotificationRepo(host string) (*NotificationRepo, error) {
	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	// Kreiranje keyspace-a ako ne postoji
	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS volunteer_notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_KEYSPACE_FAILED, Description: Failed to create keyspace: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "volunteer_notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Event ID: CASS_CONNECTED, Description: Connected to Cassandra volunteer_notifications keyspace.")
	return &NotificationRepo{session: session}, nil
}

func (nr *NotificationRepo) CloseSession() {
	nr.session.Close()
}

// CreateTable kreira tabelu za poslate notifikacije ako ne postoji.
func (nr *NotificationRepo) CreateTable() {
	err := nr.session.Query(
		`CREATE TABLE IF NOT EXISTS dispatched_notifications (
			id UUID,
			task_id TEXT,
			kind TEXT,
			title TEXT,
			message TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((task_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: CASS_TABLE_FAILED, Description: Failed to create dispatched_notifications table: %v", err)
	}
}

// RecordDispatch upisuje jednu poslatu notifikaciju.
func (nr *NotificationRepo) RecordDispatch(n models.Notification) error {
	id, err := gocql.ParseUUID(n.ID)
	if err != nil {
		id = gocql.TimeUUID()
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err = nr.session.Query(
		`INSERT INTO dispatched_notifications (id, task_id, kind, title, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, n.TaskID, string(n.Kind), n.Title, n.Message, createdAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to record dispatched notification: %v", err)
	}
	return nil
}

// DispatchedForTask vraća istoriju poslatih notifikacija za jedan zadatak.
func (nr *NotificationRepo) DispatchedForTask(taskID string) ([]models.Notification, error) {
	iter := nr.session.Query(
		`SELECT id, task_id, kind, title, message, created_at
		 FROM dispatched_notifications WHERE task_id = ?`, taskID).Iter()

	var notifications []models.Notification
	var id gocql.UUID
	var n models.Notification
	var kind string

	for iter.Scan(&id, &n.TaskID, &kind, &n.Title, &n.Message, &n.CreatedAt) {
		n.ID = id.String()
		n.Kind = models.NotificationKind(kind)
		notifications = append(notifications, n)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to retrieve dispatched notifications: %v", err)
	}
	return notifications, nil
}
