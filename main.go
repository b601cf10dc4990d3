package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"foodlink-project/microservices/volunteer-service/handlers"
	"foodlink-project/microservices/volunteer-service/logging"
	"foodlink-project/microservices/volunteer-service/repositories"
	"foodlink-project/microservices/volunteer-service/services"
	"foodlink-project/microservices/volunteer-service/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultReminderOffsetMinutes = 30

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// openTaskStore bira skladište po TASK_STORE promenljivoj: "sqlite" za lokalnu
// bazu, podrazumevano MongoDB.
func openTaskStore(ctx context.Context) (services.TaskStore, services.RescheduleStore, func(), error) {
	if os.Getenv("TASK_STORE") == "sqlite" {
		sqlitePath := os.Getenv("SQLITE_PATH")
		if sqlitePath == "" {
			sqlitePath = "volunteer.db"
		}
		repo, err := repositories.OpenLocalTaskRepo(sqlitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Using local SQLite store at %s.", sqlitePath)
		return repo, repo, func() { repo.Close() }, nil
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("database connection for MongoDB failed: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, nil, fmt.Errorf("MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	repo := repositories.NewTaskRepo(client.Database(mongoDBName))
	cleanup := func() { client.Disconnect(context.Background()) }
	return repo, repo, cleanup, nil
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Volunteer Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	taskStore, rescheduleStore, closeStore, err := openTaskStore(ctx)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: %v", err)
	}
	defer closeStore()

	// Cassandra audit log je opcion; servis radi i bez njega.
	var auditLog services.NotificationLog
	if cassHost := os.Getenv("CASS_DB"); cassHost != "" {
		notificationRepo, err := repositories.NewNotificationRepo(cassHost)
		if err != nil {
			logging.Logger.Warnf("Event ID: CASS_CONNECTION_FAILED, Description: Notification audit log disabled: %v", err)
		} else {
			defer notificationRepo.CloseSession()
			notificationRepo.CreateTable()
			auditLog = notificationRepo
		}
	}

	notificationsURL := os.Getenv("NOTIFICATIONS_SERVICE_URL")
	if notificationsURL == "" {
		notificationsURL = "http://notifications-service:8004/api/notifications/add"
	}

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})

	reminderOffset := defaultReminderOffsetMinutes
	if raw := os.Getenv("REMINDER_OFFSET_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			reminderOffset = parsed
		} else {
			logging.Logger.Warnf("Event ID: CONFIG_ERROR, Description: Invalid REMINDER_OFFSET_MINUTES %q, using %d.", raw, defaultReminderOffsetMinutes)
		}
	}

	clock := services.SystemClock()
	notifier := services.NewTimerNotifier(utils.NewHTTPClient(), notificationsBreaker, notificationsURL, auditLog)
	reminderService := services.NewReminderService(notifier, clock)
	statsService := services.NewStatsService(taskStore)
	lifecycleService := services.NewTaskLifecycleService(taskStore, reminderService, statsService, reminderOffset)
	viewService := services.NewViewService(taskStore, clock)
	rescheduleService := services.NewRescheduleService(rescheduleStore, taskStore, reminderService)

	taskHandler := handlers.NewTaskHandler(lifecycleService, taskStore)
	viewHandler := handlers.NewViewHandler(viewService)
	rescheduleHandler := handlers.NewRescheduleHandler(rescheduleService)

	r := mux.NewRouter()

	r.HandleFunc("/api/volunteer/tasks/assign", taskHandler.AssignTask).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/urgent", viewHandler.GetUrgentTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/volunteer/tasks/today", viewHandler.GetTodayTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/volunteer/tasks/calendar", viewHandler.GetCalendar).Methods(http.MethodGet)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/accept", taskHandler.AcceptTask).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/start", taskHandler.StartTask).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/complete", taskHandler.CompleteTask).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/cancel", taskHandler.CancelTask).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/reschedule-requests", rescheduleHandler.CreateRescheduleRequest).Methods(http.MethodPost)
	r.HandleFunc("/api/volunteer/tasks/{taskID}/reschedule-requests", rescheduleHandler.GetRescheduleRequests).Methods(http.MethodGet)
	r.HandleFunc("/api/volunteer/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/volunteer/stats", taskHandler.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Volunteer service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
