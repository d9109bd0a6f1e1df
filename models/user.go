package models

// User is a directory entry from the employee service. Field names follow
// the lower-snake shape that endpoint uses, unlike the task records.
type User struct {
	UserName       string `json:"user_name"`
	EmpNo          string `json:"emp_no"`
	AccountExpired string `json:"account_expired,omitempty"`
}

// Active reports whether the account can still be assigned tasks or
// messaged. The service marks expired accounts with a date and leaves the
// field empty otherwise.
func (u User) Active() bool {
	return u.AccountExpired == ""
}
