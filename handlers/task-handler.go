package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iStreamsERP/istreams-task-management/models"
	"github.com/iStreamsERP/istreams-task-management/services"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// viewerFromRequest reads the explicit viewer identity the caller must
// supply. There is no ambient session: every request names its user.
func viewerFromRequest(r *http.Request) (string, error) {
	viewer := r.Header.Get("User-Name")
	if viewer == "" {
		return "", fmt.Errorf("User-Name header is missing in request")
	}
	return viewer, nil
}

// writeError maps the service error taxonomy onto HTTP responses.
// Validation problems name their field; fetch failures carry the
// display-ready message and whether a retry is worth offering.
func writeError(w http.ResponseWriter, err error) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": vErr.Message, "field": vErr.Field})
		return
	}
	var pErr *services.PermissionError
	if errors.As(err, &pErr) {
		http.Error(w, pErr.Message, http.StatusForbidden)
		return
	}
	var fErr *services.FetchError
	if errors.As(err, &fErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": fErr.Message, "retryable": fErr.Retryable})
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected yyyy-MM-dd", value)
	}
	return &t, nil
}

// GetUserTasks serves the filtered, sorted task list for the viewer. The
// taskId query parameter doubles as the deep-link entry point: external
// navigation passes it to preselect one task, and it is applied as the
// search term exactly like the original view did.
func (h *TaskHandler) GetUserTasks(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	userName := q.Get("user")
	if userName == "" {
		userName = viewer
	}

	search := q.Get("search")
	if taskID := q.Get("taskId"); taskID != "" {
		search = taskID
	}

	start, err := parseDateParam(q.Get("start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(q.Get("end"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tasks, err := h.service.UserTasks(r.Context(), userName, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := services.TaskFilter{
		Status:     q.Get("status"),
		Assignment: q.Get("assignment"),
		Search:     search,
		Start:      start,
		End:        end,
	}
	result := services.QueryTasks(tasks, filter, q.Get("sort"), viewer)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetTaskSummary serves the dashboard badge counts.
func (h *TaskHandler) GetTaskSummary(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	tasks, err := h.service.UserTasks(r.Context(), viewer, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services.Summarize(tasks, time.Now()))
}

// GetCalendar serves the viewer's tasks as calendar events, optionally
// narrowed to one day via the day query parameter.
func (h *TaskHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	tasks, err := h.service.UserTasks(r.Context(), viewer, viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	events := services.BuildCalendarEvents(tasks, time.Now())
	if day, err := parseDateParam(r.URL.Query().Get("day")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if day != nil {
		events = services.EventsOn(events, *day)
	}

	type calendarEvent struct {
		services.CalendarEvent
		Bucket string `json:"bucket"`
	}
	out := make([]calendarEvent, 0, len(events))
	for _, e := range events {
		out = append(out, calendarEvent{CalendarEvent: e, Bucket: e.DurationBucket()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// CreateTask submits a new task for the viewer.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var req models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	req.UserName = viewer

	if err := h.service.Create(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"message": "Task created successfully"}`))
}

// ChangeTaskStatus routes a lifecycle action: ACCEPTED/REJECTED on a NEW
// task go through acceptance, everything else through update with its field
// validation.
func (h *TaskHandler) ChangeTaskStatus(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var request struct {
		TaskID  string `json:"taskId"`
		Status  string `json:"status"`
		Date    string `json:"date"`
		Remarks string `json:"remarks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	task, err := h.service.FindTask(r.Context(), viewer, viewer, request.TaskID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := models.TaskStatus(request.Status)
	switch status {
	case models.StatusAccepted:
		err = h.service.Accept(r.Context(), task, viewer, time.Now())
	case models.StatusRejected:
		err = h.service.Decline(r.Context(), task, viewer, time.Now())
	default:
		err = h.service.Update(r.Context(), task, viewer, services.StatusUpdate{
			Status:  status,
			Date:    request.Date,
			Remarks: request.Remarks,
		})
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Task status updated successfully"}`))
}

// TransferTask re-targets one of the viewer's created tasks.
func (h *TaskHandler) TransferTask(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var request struct {
		TaskID              string `json:"taskId"`
		NewUser             string `json:"newUser"`
		NotCompletionReason string `json:"notCompletionReason"`
		StartDate           string `json:"startDate"`
		CompDate            string `json:"compDate"`
		RemindTheUserOn     string `json:"remindTheUserOn"`
		CreatorReminderOn   string `json:"creatorReminderOn"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	task, err := h.service.FindTask(r.Context(), viewer, viewer, request.TaskID)
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.service.Transfer(r.Context(), task, viewer, services.TransferRequest{
		NewUser:             request.NewUser,
		NotCompletionReason: request.NotCompletionReason,
		StartDate:           request.StartDate,
		CompDate:            request.CompDate,
		RemindTheUserOn:     request.RemindTheUserOn,
		CreatorReminderOn:   request.CreatorReminderOn,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Task transferred successfully"}`))
}

// GetTaskActions serves the action gating for one task so clients render
// only the controls the viewer may use.
func (h *TaskHandler) GetTaskActions(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	taskID := r.URL.Query().Get("taskId")
	if taskID == "" {
		http.Error(w, "taskId is required", http.StatusBadRequest)
		return
	}

	task, err := h.service.FindTask(r.Context(), viewer, viewer, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"taskId":  task.TaskID,
		"status":  task.Status,
		"actions": services.AllowedActions(task, viewer),
	})
}
