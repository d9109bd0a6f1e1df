package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/models"
)

// Actions exposed by the remote service.
const (
	actionConnect              = "doConnection"
	actionGetUserTasks         = "IM_Get_User_Tasks"
	actionTaskCreate           = "IM_Task_Create"
	actionTaskUpdate           = "IM_Task_Update"
	actionTaskTransfer         = "IM_Task_Transfer"
	actionUserMessages         = "IM_Get_User_Messages"
	actionListUserMessages     = "IM_Get_ListOfUsers_Messages"
	actionSpecificUserMessages = "IM_Get_Specific_User_Messages"
	actionSendMessage          = "IM_Send_Message_To"
	actionAllActiveUsers       = "DMS_GetAllActiveUsers"
	actionEmployeeImage        = "getpic_bytearray"
)

// Client talks to the remote iStreams task/message service. Every call runs
// the connection handshake first, then the action itself, both through the
// circuit breaker.
type Client struct {
	endpoint  string
	loginUser string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
}

// NewClient builds a client for the given service endpoint. loginUser is the
// authenticated login passed to the connection handshake on every call.
func NewClient(endpoint, loginUser string, breaker *gobreaker.CircuitBreaker, timeout time.Duration) *Client {
	return &Client{
		endpoint:  endpoint,
		loginUser: loginUser,
		http:      &http.Client{Timeout: timeout},
		breaker:   breaker,
	}
}

func (c *Client) post(ctx context.Context, action string, params map[string]string) (string, error) {
	envelope := BuildEnvelope(action, params)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(envelope))
		if err != nil {
			return nil, fmt.Errorf("error creating request for %s: %v", action, err)
		}
		req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
		req.Header.Set("SOAPAction", tempuriNamespace+action)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error sending request for %s: %w", action, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error reading response for %s: %w", action, err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{UserName: c.loginUser}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("service error for %s (%d): %s", action, resp.StatusCode, string(body))
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}

	return ExtractResult(result.([]byte), action)
}

// connect runs the authentication handshake the service requires before any
// data call. The service reports failure as the literal payload "ERROR".
func (c *Client) connect(ctx context.Context) error {
	payload, err := c.post(ctx, actionConnect, map[string]string{"UserName": c.loginUser})
	if err != nil {
		return err
	}
	if strings.TrimSpace(payload) == "ERROR" {
		logging.Logger.Warnf("Event ID: CONNECTION_REFUSED, Description: Service refused connection for %s", c.loginUser)
		return &AuthError{UserName: c.loginUser}
	}
	return nil
}

func (c *Client) call(ctx context.Context, action string, params map[string]string) (string, error) {
	if err := c.connect(ctx); err != nil {
		return "", err
	}
	return c.post(ctx, action, params)
}

// GetUserTasks fetches every task visible to userName, with dates
// normalized from the wire format.
func (c *Client) GetUserTasks(ctx context.Context, userName string) ([]models.Task, error) {
	payload, err := c.call(ctx, actionGetUserTasks, map[string]string{"UserName": userName})
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := DecodeRecords(actionGetUserTasks, payload, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].NormalizeDates()
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req models.CreateTaskRequest) error {
	_, err := c.call(ctx, actionTaskCreate, map[string]string{
		"UserName":          req.UserName,
		"Subject":           req.Subject,
		"Details":           req.Details,
		"RelatedTo":         req.RelatedTo,
		"AssignedUser":      req.AssignedUser,
		"CreatorReminderOn": req.CreatorReminderOn,
		"StartDate":         req.StartDate,
		"CompDate":          req.CompDate,
		"RemindTheUserOn":   req.RemindTheUserOn,
	})
	return err
}

func (c *Client) UpdateTask(ctx context.Context, req models.UpdateTaskRequest) error {
	_, err := c.call(ctx, actionTaskUpdate, map[string]string{
		"TaskID":         req.TaskID,
		"TaskStatus":     req.TaskStatus,
		"StatusDateTime": req.StatusDateTime,
		"Reason":         req.Reason,
		"UserName":       req.UserName,
	})
	return err
}

func (c *Client) TransferTask(ctx context.Context, req models.TransferTaskRequest) error {
	_, err := c.call(ctx, actionTaskTransfer, map[string]string{
		"TaskID":              req.TaskID,
		"UserName":            req.UserName,
		"NotCompletionReason": req.NotCompletionReason,
		"Subject":             req.Subject,
		"Details":             req.Details,
		"RelatedTo":           req.RelatedTo,
		"CreatorReminderOn":   req.CreatorReminderOn,
		"StartDate":           req.StartDate,
		"CompDate":            req.CompDate,
		"RemindTheUserOn":     req.RemindTheUserOn,
		"NewUser":             req.NewUser,
	})
	return err
}

func (c *Client) decodeMessages(action, payload string) ([]models.Message, error) {
	var msgs []models.Message
	if err := DecodeRecords(action, payload, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].NormalizeDates()
	}
	return msgs, nil
}

// RecentMessages fetches the latest notification messages for userName.
func (c *Client) RecentMessages(ctx context.Context, userName string) ([]models.Message, error) {
	payload, err := c.call(ctx, actionUserMessages, map[string]string{"UserName": userName})
	if err != nil {
		return nil, err
	}
	return c.decodeMessages(actionUserMessages, payload)
}

// ListUserMessages fetches the per-counterpart conversation heads for
// userName.
func (c *Client) ListUserMessages(ctx context.Context, userName string) ([]models.Message, error) {
	payload, err := c.call(ctx, actionListUserMessages, map[string]string{"ForTheUserName": userName})
	if err != nil {
		return nil, err
	}
	return c.decodeMessages(actionListUserMessages, payload)
}

// ConversationMessages fetches the full thread between two users.
func (c *Client) ConversationMessages(ctx context.Context, fromUser, toUser string) ([]models.Message, error) {
	payload, err := c.call(ctx, actionSpecificUserMessages, map[string]string{
		"FromUserName":   fromUser,
		"SentToUserName": toUser,
	})
	if err != nil {
		return nil, err
	}
	return c.decodeMessages(actionSpecificUserMessages, payload)
}

func (c *Client) SendMessage(ctx context.Context, fromUser, toUser, text string) error {
	_, err := c.call(ctx, actionSendMessage, map[string]string{
		"UserName":    fromUser,
		"ToUserName":  toUser,
		"Message":     text,
		"MessageInfo": text,
	})
	return err
}

// GetAllUsers fetches the employee directory, expired accounts included.
func (c *Client) GetAllUsers(ctx context.Context) ([]models.User, error) {
	payload, err := c.call(ctx, actionAllActiveUsers, map[string]string{"UserName": c.loginUser})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := DecodeRecords(actionAllActiveUsers, payload, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetEmployeeImage fetches the avatar for an employee number as a base64
// string. An empty result means the employee has no picture on file.
func (c *Client) GetEmployeeImage(ctx context.Context, empNo string) (string, error) {
	payload, err := c.call(ctx, actionEmployeeImage, map[string]string{"EmpNo": empNo})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(payload), nil
}
