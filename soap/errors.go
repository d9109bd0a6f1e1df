package soap

import (
	"context"
	"errors"
	"net"
)

// ServiceError is raised when the service answers with a descriptive string
// instead of records, or with a payload that cannot be decoded. Retrying
// will not help; the message is meant for the user.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Action == "" {
		return e.Message
	}
	return e.Action + ": " + e.Message
}

// AuthError is raised when the connection handshake fails. Non-retryable:
// the session has to be re-established first.
type AuthError struct {
	UserName string
}

func (e *AuthError) Error() string {
	return "connection failed: unable to authenticate " + e.UserName
}

// Retryable classifies an error for the fetch retry path. Timeouts and
// network-class failures are worth retrying; malformed responses and
// authentication failures are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return false
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
