package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bakehouse/internal/dbx"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/accesslogs"
	"github.com/dmitrijs2005/bakehouse/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AccessLogs(db dbx.DBTX) accesslogs.Repository
}
