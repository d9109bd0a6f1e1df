package services

import (
	"context"

	"github.com/iStreamsERP/istreams-task-management/models"
)

// Remote is the surface of the backing task/message service the business
// logic depends on. Implemented by soap.Client; tests substitute fakes.
type Remote interface {
	GetUserTasks(ctx context.Context, userName string) ([]models.Task, error)
	CreateTask(ctx context.Context, req models.CreateTaskRequest) error
	UpdateTask(ctx context.Context, req models.UpdateTaskRequest) error
	TransferTask(ctx context.Context, req models.TransferTaskRequest) error

	RecentMessages(ctx context.Context, userName string) ([]models.Message, error)
	ListUserMessages(ctx context.Context, userName string) ([]models.Message, error)
	ConversationMessages(ctx context.Context, fromUser, toUser string) ([]models.Message, error)
	SendMessage(ctx context.Context, fromUser, toUser, text string) error

	GetAllUsers(ctx context.Context) ([]models.User, error)
	GetEmployeeImage(ctx context.Context, empNo string) (string, error)
}
