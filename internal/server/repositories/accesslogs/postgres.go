package accesslogs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bakehouse/internal/dbx"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

// PostgresRepository writes access log rows over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (user_id, username, action, ip_address, user_agent, success, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.Username, string(entry.Action),
		entry.IPAddress, entry.UserAgent, entry.Success, entry.Details)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*models.AccessLogEntry, error) {
	query := `
		SELECT id, user_id, username, action, ip_address, user_agent, success, details, created_at
		FROM access_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessLogEntry
	for rows.Next() {
		var (
			e         models.AccessLogEntry
			action    string
			userID    sql.NullString
			ipAddress sql.NullString
			userAgent sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Username, &action, &ipAddress, &userAgent,
			&e.Success, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Action = models.AccessAction(action)
		e.UserID = stringPtr(userID)
		e.IPAddress = stringPtr(ipAddress)
		e.UserAgent = stringPtr(userAgent)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
