package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bakehouse/internal/logging"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/repomanager"
)

// RequestMeta describes the client behind an operation, for the access log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// auditRecorder appends access log entries. Write failures are logged and
// swallowed so they never change the outcome of the audited action.
type auditRecorder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// record appends one entry. userID is empty when the username matched no account.
func (a *auditRecorder) record(ctx context.Context, action models.AccessAction, userID, username string, meta RequestMeta, success bool, details string) {
	entry := &models.AccessLogEntry{
		UserID:    optional(userID),
		Username:  username,
		Action:    action,
		IPAddress: optional(meta.IP),
		UserAgent: optional(meta.UserAgent),
		Success:   success,
		Details:   details,
	}

	if err := a.repomanager.AccessLogs(a.db).Create(ctx, entry); err != nil {
		a.logger.Warn(ctx, "access log write failed", "action", action, "username", entry.Username, "error", err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
