package models

import (
	"time"

	"github.com/iStreamsERP/istreams-task-management/utils"
)

type TaskStatus string

const (
	StatusNew              TaskStatus = "NEW"
	StatusAccepted         TaskStatus = "ACCEPTED"
	StatusRejected         TaskStatus = "REJECTED"
	StatusPostponed        TaskStatus = "POSTPONED"
	StatusCompleted        TaskStatus = "COMPLETED"
	StatusCancelled        TaskStatus = "CANCELLED"
	StatusUnableToComplete TaskStatus = "UNABLE TO COMPLETE"

	// StatusRemindLater is an update option, not a persisted server status:
	// it schedules a reminder without moving the task.
	StatusRemindLater TaskStatus = "REMIND ME LATER"
)

// Display labels derived from the raw status and the viewer.
const (
	DisplayPending            = "Pending"
	DisplayAwaitingAcceptance = "Awaiting for Acceptance"
	SystemCreatorMarker       = "***00***"
	SystemCreatorDisplay      = "SYSTEM"
)

// Task mirrors the record shape the service returns, upper-snake field names
// included. Parsed dates are filled in by NormalizeDates after decoding and
// stay out of the JSON shape.
type Task struct {
	TaskID            string     `json:"TASK_ID"`
	TaskName          string     `json:"TASK_NAME"`
	TaskInfo          string     `json:"TASK_INFO"`
	Status            TaskStatus `json:"STATUS"`
	CreatedUser       string     `json:"CREATED_USER"`
	AssignedUser      string     `json:"ASSIGNED_USER"`
	CreatorEmpNo      string     `json:"CREATOR_EMP_NO"`
	AssignedEmpNo     string     `json:"ASSIGNED_EMP_NO"`
	RelatedTo         string     `json:"RELATED_ON"`
	CreatedOnRaw      string     `json:"CREATED_ON"`
	StartDateRaw      string     `json:"ASSIGNED_START_DATE"`
	CompletionDateRaw string     `json:"COMPLETION_DATE"`

	// NewStatus is the derived display status. Recomputed on every load,
	// never sent to the service.
	NewStatus string `json:"NEW_STATUS,omitempty"`

	// CreatedUserDisplay is the creator name with the system marker masked.
	CreatedUserDisplay string `json:"createdUserDisplay,omitempty"`

	// AssignedEmpImage is a base64 data value for the assignee's avatar,
	// resolved through the employee image cache.
	AssignedEmpImage string `json:"assignedEmpImage,omitempty"`

	CreatedOn      time.Time `json:"-"`
	StartDate      time.Time `json:"-"`
	CompletionDate time.Time `json:"-"`
}

// NormalizeDates decodes the wire-format date strings into native times. A
// zero time means the service sent nothing usable for that field.
func (t *Task) NormalizeDates() {
	if v, ok := utils.ParseServiceDate(t.CreatedOnRaw); ok {
		t.CreatedOn = v
	}
	if v, ok := utils.ParseServiceDate(t.StartDateRaw); ok {
		t.StartDate = v
	}
	if v, ok := utils.ParseServiceDate(t.CompletionDateRaw); ok {
		t.CompletionDate = v
	}
}

// DeriveStatus maps a raw server status to the label shown to the viewer.
// Total over the status vocabulary: unknown statuses pass through verbatim.
//
// A NEW task shows the same "Awaiting for Acceptance" label to the creator
// and the assignee even though only the assignee can act on it. That is the
// observed production behavior and is kept as-is.
func DeriveStatus(status TaskStatus, createdUser, assignedUser, viewer string) string {
	switch status {
	case StatusNew:
		if createdUser == assignedUser {
			// Self-assigned tasks skip the acceptance step.
			return DisplayPending
		}
		return DisplayAwaitingAcceptance
	case StatusAccepted:
		return DisplayPending
	default:
		return string(status)
	}
}

// DisplayCreator hides the internal marker the service uses for
// system-generated tasks.
func (t *Task) DisplayCreator() string {
	if t.CreatedUser == SystemCreatorMarker {
		return SystemCreatorDisplay
	}
	return t.CreatedUser
}

// CreateTaskRequest is the write payload for a new task. Subject, Details
// and AssignedUser are mandatory; the rest may be empty. Date fields carry
// plain calendar dates, never the wire format.
type CreateTaskRequest struct {
	UserName          string `json:"UserName"`
	Subject           string `json:"Subject"`
	Details           string `json:"Details"`
	RelatedTo         string `json:"RelatedTo"`
	AssignedUser      string `json:"AssignedUser"`
	CreatorReminderOn string `json:"CreatorReminderOn"`
	StartDate         string `json:"StartDate"`
	CompDate          string `json:"CompDate"`
	RemindTheUserOn   string `json:"RemindTheUserOn"`
}

// UpdateTaskRequest is the write payload for a status change.
type UpdateTaskRequest struct {
	TaskID         string `json:"taskID"`
	TaskStatus     string `json:"taskStatus"`
	StatusDateTime string `json:"statusDateTime"`
	Reason         string `json:"reason"`
	UserName       string `json:"userName"`
}

// TransferTaskRequest re-targets a task to a new assignee. Subject, Details
// and RelatedTo are carried forward from the task being transferred; the raw
// status is left alone.
type TransferTaskRequest struct {
	TaskID              string `json:"taskID"`
	UserName            string `json:"userName"`
	NotCompletionReason string `json:"notCompletionReason"`
	Subject             string `json:"subject"`
	Details             string `json:"details"`
	RelatedTo           string `json:"relatedTo"`
	CreatorReminderOn   string `json:"creatorReminderOn"`
	StartDate           string `json:"startDate"`
	CompDate            string `json:"compDate"`
	RemindTheUserOn     string `json:"remindTheUserOn"`
	NewUser             string `json:"newUser"`
}
