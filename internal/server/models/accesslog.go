package models

import "time"

// AccessAction enumerates the security-relevant events written to the access log.
type AccessAction string

const (
	ActionLogin          AccessAction = "login"
	ActionLogout         AccessAction = "logout"
	ActionLoginFailed    AccessAction = "login_failed"
	ActionPasswordChange AccessAction = "password_change"
	ActionUserCreated    AccessAction = "user_created"
	ActionUserUpdated    AccessAction = "user_updated"
)

// AccessLogEntry is one append-only audit record. UserID is nil when the
// submitted username matched no account.
type AccessLogEntry struct {
	ID        string       `json:"id"`
	UserID    *string      `json:"user_id,omitempty"`
	Username  string       `json:"username"`
	Action    AccessAction `json:"action"`
	IPAddress *string      `json:"ip_address,omitempty"`
	UserAgent *string      `json:"user_agent,omitempty"`
	Success   bool         `json:"success"`
	Details   string       `json:"details"`
	CreatedAt time.Time    `json:"created_at"`
}
