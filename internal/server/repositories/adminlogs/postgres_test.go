package adminlogs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndList(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+admin_logs\s*\(admin_id,\s*action,\s*target_table,\s*target_id,\s*details\)`).
		WithArgs("a1", "approve_verification", "verification_requests", "v1", `{"notes":"ok"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), &models.AdminLog{
		AdminID: "a1", Action: "approve_verification", TargetTable: "verification_requests", TargetID: "v1",
		Details: json.RawMessage(`{"notes":"ok"}`),
	}))

	mock.ExpectQuery(`(?s)FROM\s+admin_logs\s+ORDER\s+BY\s+performed_at\s+DESC\s+LIMIT\s+\$1`).WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "action", "target_table", "target_id", "details", "performed_at"}).
			AddRow("l1", "a1", "deactivate_user", "users", "u9", []byte(`{}`), time.Now()))

	logs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "deactivate_user", logs[0].Action)

	mock.ExpectExec(`INSERT\s+INTO\s+admin_logs`).WillReturnError(errors.New("db down"))
	assert.ErrorContains(t, repo.Create(context.Background(), &models.AdminLog{}), "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}
