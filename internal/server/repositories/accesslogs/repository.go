// Package accesslogs stores the append-only audit trail of authentication events.
package accesslogs

import (
	"context"

	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.AccessLogEntry) error
	// ListRecent returns at most limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.AccessLogEntry, error)
}
