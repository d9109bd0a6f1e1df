package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/iStreamsERP/istreams-task-management/handlers"
	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/services"
	"github.com/iStreamsERP/istreams-task-management/soap"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, User-Name")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Management Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	serviceURL := os.Getenv("SERVICE_URL")
	if serviceURL == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVICE_URL is not set in the environment variables.")
	}
	serviceUser := os.Getenv("SERVICE_USERNAME")
	if serviceUser == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVICE_USERNAME is not set in the environment variables.")
	}

	serviceBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TaskServiceCB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	client := soap.NewClient(serviceURL, serviceUser, serviceBreaker, 30*time.Second)
	logging.Logger.Infof("Event ID: REMOTE_CONFIGURED, Description: Remote task service configured at %s", serviceURL)

	coordinator := services.NewFetchCoordinator()
	employeeService := services.NewEmployeeService(client)
	taskService := services.NewTaskService(client, coordinator, employeeService)
	chatService := services.NewChatService(client, coordinator, employeeService)

	taskHandler := handlers.NewTaskHandler(taskService)
	chatHandler := handlers.NewChatHandler(chatService)
	employeeHandler := handlers.NewEmployeeHandler(employeeService)

	r := mux.NewRouter()

	r.HandleFunc("/api/tasks", taskHandler.GetUserTasks).Methods("GET")
	r.HandleFunc("/api/tasks/create", taskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/api/tasks/status", taskHandler.ChangeTaskStatus).Methods("POST")
	r.HandleFunc("/api/tasks/transfer", taskHandler.TransferTask).Methods("POST")
	r.HandleFunc("/api/tasks/actions", taskHandler.GetTaskActions).Methods("GET")
	r.HandleFunc("/api/tasks/summary", taskHandler.GetTaskSummary).Methods("GET")
	r.HandleFunc("/api/tasks/calendar", taskHandler.GetCalendar).Methods("GET")

	r.HandleFunc("/api/messages", chatHandler.GetConversations).Methods("GET")
	r.HandleFunc("/api/messages/conversation", chatHandler.GetConversation).Methods("GET")
	r.HandleFunc("/api/messages/send", chatHandler.SendMessage).Methods("POST")

	r.HandleFunc("/api/employees", employeeHandler.GetActiveEmployees).Methods("GET")
	r.HandleFunc("/api/employees/{empNo}/image", employeeHandler.GetEmployeeImage).Methods("GET")

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
