package accesslogs

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

const (
	insertQ = `(?s)^\s*INSERT\s+INTO\s+access_logs\s*\(user_id,\s*username,\s*action,\s*ip_address,\s*user_agent,\s*success,\s*details\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*$`
	listQ   = `(?s)^\s*SELECT\s+id,\s*user_id,.*FROM\s+access_logs\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$1\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	uid := "u-1"
	ip := "10.0.0.1"
	mock.ExpectExec(insertQ).
		WithArgs("u-1", "alice", "login", "10.0.0.1", nil, true, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.AccessLogEntry{
		UserID: &uid, Username: "alice", Action: models.ActionLogin, IPAddress: &ip, Success: true,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("disk full"))

	err := repo.Create(context.Background(), &models.AccessLogEntry{Username: "ghost", Action: models.ActionLoginFailed})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*disk full`), err.Error())
}

func TestListRecent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "username", "action", "ip_address", "user_agent", "success", "details", "created_at"}).
		AddRow("l-2", "u-1", "alice", "logout", "10.0.0.1", "curl/8", true, "", ts).
		AddRow("l-1", nil, "ghost", "login_failed", nil, nil, false, "unknown user", ts.Add(-time.Minute))
	mock.ExpectQuery(listQ).WithArgs(50).WillReturnRows(rows)

	got, err := repo.ListRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ActionLogout, got[0].Action)
	require.NotNil(t, got[0].UserID)
	assert.Equal(t, "u-1", *got[0].UserID)
	assert.Equal(t, "curl/8", *got[0].UserAgent)

	assert.Nil(t, got[1].UserID)
	assert.Nil(t, got[1].IPAddress)
	assert.False(t, got[1].Success)
	assert.Equal(t, "unknown user", got[1].Details)
}

func TestListRecent_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WithArgs(10).WillReturnError(errors.New("timeout"))

	_, err := repo.ListRecent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
