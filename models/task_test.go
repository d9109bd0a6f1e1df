package models

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name         string
		status       TaskStatus
		createdUser  string
		assignedUser string
		viewer       string
		want         string
	}{
		{name: "new self-assigned", status: StatusNew, createdUser: "ann", assignedUser: "ann", viewer: "ann", want: DisplayPending},
		{name: "new assigned to other, assignee view", status: StatusNew, createdUser: "ann", assignedUser: "bob", viewer: "bob", want: DisplayAwaitingAcceptance},
		{name: "new assigned to other, creator view", status: StatusNew, createdUser: "ann", assignedUser: "bob", viewer: "ann", want: DisplayAwaitingAcceptance},
		{name: "accepted", status: StatusAccepted, createdUser: "ann", assignedUser: "bob", viewer: "bob", want: DisplayPending},
		{name: "rejected passes through", status: StatusRejected, createdUser: "ann", assignedUser: "bob", viewer: "bob", want: "REJECTED"},
		{name: "completed passes through", status: StatusCompleted, createdUser: "ann", assignedUser: "bob", viewer: "ann", want: "COMPLETED"},
		{name: "unknown passes through", status: TaskStatus("ARCHIVED"), createdUser: "ann", assignedUser: "bob", viewer: "ann", want: "ARCHIVED"},
		{name: "empty passes through", status: TaskStatus(""), createdUser: "ann", assignedUser: "bob", viewer: "ann", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.status, tt.createdUser, tt.assignedUser, tt.viewer)
			if got != tt.want {
				t.Errorf("DeriveStatus(%q, %q, %q, %q) = %q, want %q",
					tt.status, tt.createdUser, tt.assignedUser, tt.viewer, got, tt.want)
			}
		})
	}
}

func TestDisplayCreator(t *testing.T) {
	system := Task{CreatedUser: SystemCreatorMarker}
	if got := system.DisplayCreator(); got != SystemCreatorDisplay {
		t.Errorf("DisplayCreator() = %q, want %q", got, SystemCreatorDisplay)
	}
	regular := Task{CreatedUser: "ann"}
	if got := regular.DisplayCreator(); got != "ann" {
		t.Errorf("DisplayCreator() = %q, want ann", got)
	}
}

func TestNormalizeDates(t *testing.T) {
	task := Task{
		CreatedOnRaw:      "/Date(1735689600000)/",
		StartDateRaw:      `\/Date(1736294400000)\/`,
		CompletionDateRaw: "bogus",
	}
	task.NormalizeDates()

	if task.CreatedOn.UnixMilli() != 1735689600000 {
		t.Errorf("CreatedOn = %v, want 1735689600000 ms", task.CreatedOn)
	}
	if task.StartDate.UnixMilli() != 1736294400000 {
		t.Errorf("StartDate = %v, want 1736294400000 ms", task.StartDate)
	}
	if !task.CompletionDate.Equal(time.Time{}) {
		t.Errorf("CompletionDate = %v, want zero for unparseable input", task.CompletionDate)
	}
}

func TestMessageNormalizeDates(t *testing.T) {
	msg := Message{CreatedOnRaw: "/Date(1735689600000)/"}
	msg.NormalizeDates()
	if msg.CreatedOn.UnixMilli() != 1735689600000 {
		t.Errorf("CreatedOn = %v, want 1735689600000 ms", msg.CreatedOn)
	}
}

func TestUserActive(t *testing.T) {
	if !(User{UserName: "ann"}).Active() {
		t.Error("user with no expiry should be active")
	}
	if (User{UserName: "bob", AccountExpired: "T"}).Active() {
		t.Error("expired user should not be active")
	}
}
