package services

import (
	"context"
	"strings"
	"sync"

	"github.com/iStreamsERP/istreams-task-management/logging"
	"github.com/iStreamsERP/istreams-task-management/models"
)

// EmployeeService serves the user directory and avatar images. Avatar
// lookups are cached by employee number for the lifetime of the service so
// a user appearing in many task rows costs one remote call. Handlers run
// concurrently, so the cache is mutex-guarded.
type EmployeeService struct {
	remote Remote

	mu     sync.Mutex
	images map[string]string
}

func NewEmployeeService(remote Remote) *EmployeeService {
	return &EmployeeService{remote: remote, images: make(map[string]string)}
}

// AllUsers returns the full directory, expired accounts included.
func (s *EmployeeService) AllUsers(ctx context.Context) ([]models.User, error) {
	return s.remote.GetAllUsers(ctx)
}

// ActiveUsers returns assignable users, optionally narrowed by a
// case-insensitive name search.
func (s *EmployeeService) ActiveUsers(ctx context.Context, search string) ([]models.User, error) {
	users, err := s.remote.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(search)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if !u.Active() {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(u.UserName), needle) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// FindUser looks a user up by name.
func (s *EmployeeService) FindUser(ctx context.Context, userName string) (models.User, bool, error) {
	users, err := s.remote.GetAllUsers(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.UserName == userName {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// EmployeeImage returns the cached base64 avatar for an employee number,
// fetching it on first use. Only successful lookups are cached; a transient
// failure gets another chance on the next row that needs it.
func (s *EmployeeService) EmployeeImage(ctx context.Context, empNo string) (string, error) {
	if empNo == "" {
		return "", nil
	}

	s.mu.Lock()
	cached, ok := s.images[empNo]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	img, err := s.remote.GetEmployeeImage(ctx, empNo)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.images[empNo] = img
	s.mu.Unlock()
	return img, nil
}

// ImageOrEmpty is EmployeeImage with failures degraded to an empty string,
// for callers that must not fail a whole load over one missing avatar.
func (s *EmployeeService) ImageOrEmpty(ctx context.Context, empNo string) string {
	img, err := s.EmployeeImage(ctx, empNo)
	if err != nil {
		logging.Logger.Warnf("Event ID: EMPLOYEE_IMAGE_FAILED, Description: Image fetch for employee %s failed: %v", empNo, err)
		return ""
	}
	return img
}
