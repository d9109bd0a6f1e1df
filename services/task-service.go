package services

import (
	"context"
	"strings"
	"time"

	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/models"
	"github.com/iStreamsERP/istreams-task-management/utils"
)

// ValidationError blocks a submission before it reaches the service and
// names the field the user has to fix.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// PermissionError is the server-side guard behind the action gating. The UI
// never offers a forbidden action, but the check is repeated here anyway.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// Task actions offered to a viewer.
const (
	ActionAccept   = "accept"
	ActionDecline  = "decline"
	ActionUpdate   = "update"
	ActionTransfer = "transfer"
)

const minRemarksLen = 10

// statusesRequiringDate and statusesRequiringRemarks drive the update
// validation. REMIND ME LATER needs a date but no remarks.
var statusesRequiringDate = map[models.TaskStatus]bool{
	models.StatusRemindLater: true,
	models.StatusPostponed:   true,
	models.StatusCompleted:   true,
}

var statusesRequiringRemarks = map[models.TaskStatus]bool{
	models.StatusPostponed:        true,
	models.StatusUnableToComplete: true,
	models.StatusCompleted:        true,
	models.StatusCancelled:        true,
}

// StatusUpdate is one user-initiated lifecycle change.
type StatusUpdate struct {
	Status  models.TaskStatus
	Date    string
	Remarks string
}

// TransferRequest carries the user-supplied part of a transfer; the subject,
// details and related-to fields come from the task itself.
type TransferRequest struct {
	NewUser             string
	NotCompletionReason string
	StartDate           string
	CompDate            string
	RemindTheUserOn     string
	CreatorReminderOn   string
}

// TaskService orchestrates the task lifecycle against the remote service.
type TaskService struct {
	remote      Remote
	coordinator *FetchCoordinator
	employees   *EmployeeService
}

func NewTaskService(remote Remote, coordinator *FetchCoordinator, employees *EmployeeService) *TaskService {
	return &TaskService{remote: remote, coordinator: coordinator, employees: employees}
}

// UserTasks loads every task visible to userName through the fetch
// coordinator, tags each with its derived display status for the viewer and
// resolves assignee avatars from the image cache. Avatar failures degrade to
// an empty image, never to a failed load.
func (s *TaskService) UserTasks(ctx context.Context, userName, viewer string) ([]models.Task, error) {
	var tasks []models.Task
	err := s.coordinator.Fetch(ctx, "tasks:"+userName,
		func(fctx context.Context) (interface{}, error) {
			return s.remote.GetUserTasks(fctx, userName)
		},
		func(result interface{}) {
			tasks = result.([]models.Task)
		},
	)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		tasks[i].NewStatus = models.DeriveStatus(tasks[i].Status, tasks[i].CreatedUser, tasks[i].AssignedUser, viewer)
		tasks[i].CreatedUserDisplay = tasks[i].DisplayCreator()
		if s.employees != nil && tasks[i].AssignedEmpNo != "" {
			tasks[i].AssignedEmpImage = s.employees.ImageOrEmpty(ctx, tasks[i].AssignedEmpNo)
		}
	}
	return tasks, nil
}

// FindTask locates one of userName's tasks by id.
func (s *TaskService) FindTask(ctx context.Context, userName, viewer, taskID string) (models.Task, error) {
	tasks, err := s.UserTasks(ctx, userName, viewer)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range tasks {
		if t.TaskID == taskID {
			return t, nil
		}
	}
	return models.Task{}, &ValidationError{Field: "taskId", Message: "task " + taskID + " not found"}
}

// AllowedActions computes which controls a viewer gets for a task. A NEW
// task only offers acceptance; after that the creator may update and
// transfer while everyone else may only update. Transfer re-delegates
// ownership, so it stays with the original creator.
func AllowedActions(t models.Task, viewer string) []string {
	if t.Status == models.StatusNew {
		return []string{ActionAccept, ActionDecline}
	}
	if t.CreatedUser == viewer {
		return []string{ActionUpdate, ActionTransfer}
	}
	return []string{ActionUpdate}
}

// Accept moves a NEW task to ACCEPTED.
func (s *TaskService) Accept(ctx context.Context, t models.Task, viewer string, when time.Time) error {
	return s.acceptOrDecline(ctx, t, viewer, models.StatusAccepted, when)
}

// Decline moves a NEW task to REJECTED.
func (s *TaskService) Decline(ctx context.Context, t models.Task, viewer string, when time.Time) error {
	return s.acceptOrDecline(ctx, t, viewer, models.StatusRejected, when)
}

func (s *TaskService) acceptOrDecline(ctx context.Context, t models.Task, viewer string, to models.TaskStatus, when time.Time) error {
	if t.Status != models.StatusNew {
		return &PermissionError{Message: "only a new task can be accepted or declined"}
	}
	req := models.UpdateTaskRequest{
		TaskID:         t.TaskID,
		TaskStatus:     string(to),
		StatusDateTime: utils.FormatAPIDateTime(when),
		UserName:       viewer,
	}
	if err := s.remote.UpdateTask(ctx, req); err != nil {
		logging.Logger.Errorf("Event ID: TASK_STATUS_FAILED, Description: Task %s -> %s failed: %v", t.TaskID, to, err)
		return err
	}
	logging.Logger.Infof("Event ID: TASK_STATUS_CHANGED, Description: Task %s moved to %s by %s", t.TaskID, to, viewer)
	return nil
}

// ValidateStatusUpdate enforces the per-status field requirements without
// touching the network.
func ValidateStatusUpdate(upd StatusUpdate) error {
	if statusesRequiringDate[upd.Status] && strings.TrimSpace(upd.Date) == "" {
		return &ValidationError{Field: "date", Message: "please enter a date"}
	}
	if statusesRequiringRemarks[upd.Status] && len(strings.TrimSpace(upd.Remarks)) < minRemarksLen {
		return &ValidationError{Field: "remarks", Message: "remarks are mandatory and must be at least 10 characters"}
	}
	return nil
}

// Update applies a lifecycle change to a non-NEW task. A missing date
// defaults to now for statuses that do not require one explicitly. Statuses
// that do not take remarks have them stripped before submission.
func (s *TaskService) Update(ctx context.Context, t models.Task, viewer string, upd StatusUpdate) error {
	if t.Status == models.StatusNew {
		return &PermissionError{Message: "a new task must be accepted or declined first"}
	}
	if err := ValidateStatusUpdate(upd); err != nil {
		return err
	}

	date := strings.TrimSpace(upd.Date)
	if date == "" {
		date = utils.FormatAPIDateTime(time.Now())
	}
	remarks := ""
	if statusesRequiringRemarks[upd.Status] {
		remarks = strings.TrimSpace(upd.Remarks)
	}

	req := models.UpdateTaskRequest{
		TaskID:         t.TaskID,
		TaskStatus:     string(upd.Status),
		StatusDateTime: date,
		Reason:         remarks,
		UserName:       viewer,
	}
	if err := s.remote.UpdateTask(ctx, req); err != nil {
		logging.Logger.Errorf("Event ID: TASK_UPDATE_FAILED, Description: Task %s update to %s failed: %v", t.TaskID, upd.Status, err)
		return err
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated to %s by %s", t.TaskID, upd.Status, viewer)
	return nil
}

// Transfer re-targets a task to a new assignee. Only the creator may do
// this; subject, details and related-to carry forward from the task, and the
// raw status is left untouched.
func (s *TaskService) Transfer(ctx context.Context, t models.Task, viewer string, req TransferRequest) error {
	if t.CreatedUser != viewer {
		return &PermissionError{Message: "only the task creator can transfer it"}
	}
	if strings.TrimSpace(req.NewUser) == "" {
		return &ValidationError{Field: "newUser", Message: "please select a user to transfer to"}
	}
	if strings.TrimSpace(req.NotCompletionReason) == "" {
		return &ValidationError{Field: "notCompletionReason", Message: "please give the reason the task was not completed"}
	}

	payload := models.TransferTaskRequest{
		TaskID:              t.TaskID,
		UserName:            viewer,
		NotCompletionReason: strings.TrimSpace(req.NotCompletionReason),
		Subject:             t.TaskName,
		Details:             t.TaskInfo,
		RelatedTo:           t.RelatedTo,
		CreatorReminderOn:   req.CreatorReminderOn,
		StartDate:           req.StartDate,
		CompDate:            req.CompDate,
		RemindTheUserOn:     req.RemindTheUserOn,
		NewUser:             req.NewUser,
	}
	if err := s.remote.TransferTask(ctx, payload); err != nil {
		logging.Logger.Errorf("Event ID: TASK_TRANSFER_FAILED, Description: Task %s transfer to %s failed: %v", t.TaskID, req.NewUser, err)
		return err
	}
	logging.Logger.Infof("Event ID: TASK_TRANSFERRED, Description: Task %s transferred from %s to %s", t.TaskID, viewer, req.NewUser)
	return nil
}

// Create submits a new task. Subject, details and assignee are mandatory;
// everything else may be empty.
func (s *TaskService) Create(ctx context.Context, req models.CreateTaskRequest) error {
	if strings.TrimSpace(req.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "subject is required"}
	}
	if strings.TrimSpace(req.Details) == "" {
		return &ValidationError{Field: "details", Message: "details are required"}
	}
	if strings.TrimSpace(req.AssignedUser) == "" {
		return &ValidationError{Field: "assignedUser", Message: "an assigned user is required"}
	}

	if err := s.remote.CreateTask(ctx, req); err != nil {
		logging.Logger.Errorf("Event ID: TASK_CREATE_FAILED, Description: Task creation by %s failed: %v", req.UserName, err)
		return err
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %q created by %s for %s", req.Subject, req.UserName, req.AssignedUser)
	return nil
}
