package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "username", "phone", "password_hash", "role", "is_active", "is_verified", "last_login_at", "created_at"}

const insertUserQ = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*phone,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*is_active,\s*is_verified,\s*created_at$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertUserQ).
		WithArgs("alice", "13800000000", "hash", common.RoleUser).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "is_verified", "created_at"}).
			AddRow("u-1", true, false, now))

	u := &models.User{UserName: "alice", Phone: "13800000000", PasswordHash: "hash", Role: common.RoleUser}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.IsActive || got.IsVerified || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUserQ).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertUserQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByUserName_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	login := time.Now().Add(-time.Hour)
	mock.ExpectQuery(q).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "alice", "", "hash", "admin", true, true, login, time.Now()))

	got, err := repo.GetByUserName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUserName error: %v", err)
	}
	if got.ID != "u-1" || got.Role != "admin" || got.LastLoginAt == nil || !got.LastLoginAt.Equal(login) {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestList_FilterAndDefaults(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+\(\$1\s*=\s*''\s+OR\s+role\s*=\s*\$1\)\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3$`
	mock.ExpectQuery(q).
		WithArgs("professional", 100, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "bob", "", "h", "professional", true, true, nil, time.Now()).
			AddRow("u-2", "carl", "", "h", "professional", false, true, nil, time.Now()))

	got, err := repo.List(context.Background(), ListFilter{Role: "professional"})
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[1].IsActive || got[0].LastLoginAt != nil {
		t.Fatalf("unexpected users: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+is_active\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1", false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ghost", true).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetActive(context.Background(), "u-1", false); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}
	if err := repo.SetActive(context.Background(), "ghost", true); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestPromoteToProfessional(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+role\s*=\s*CASE.*is_verified\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.PromoteToProfessional(context.Background(), "u-1"); err != nil {
		t.Fatalf("PromoteToProfessional error: %v", err)
	}
}

func TestTouchLastLogin_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+last_login_at\s*=\s*NOW\(\)\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnError(errors.New("db err"))

	err := repo.TouchLastLogin(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1", "h2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("ghost", "h2").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdatePassword(context.Background(), "u-1", "h2"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}
	if err := repo.UpdatePassword(context.Background(), "ghost", "h2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+COUNT\(\*\),.*FROM\s+users$`
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d"}).AddRow(10, 9, 3, 1))

	s, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if *s != (models.UserStats{Total: 10, Active: 9, Professionals: 3, Admins: 1}) {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
