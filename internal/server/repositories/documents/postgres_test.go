package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var docCols = []string{"id", "user_id", "case_id", "session_id", "verification_id", "document_type", "file_name",
	"storage_key", "size", "mime_type", "ocr_text", "uploaded_at"}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	session := "s1"
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+documents.*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+id,\s*uploaded_at`).
		WithArgs("u1", nil, "s1", nil, models.DocumentUploadEvidence, "photo.jpg", "uploads/u1/k.jpg", int64(2048), "image/jpeg", "plate A12345").
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow("d1", time.Now()))

	d, err := repo.Create(context.Background(), &models.Document{
		UserID: "u1", SessionID: &session, DocumentType: models.DocumentUploadEvidence, FileName: "photo.jpg",
		StorageKey: "uploads/u1/k.jpg", Size: 2048, MimeType: "image/jpeg", OCRText: "plate A12345",
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+documents`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Document{UserID: "u1"})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+documents\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", "c1", nil, nil, "generated", "complaint.txt", "generated/u1/x.txt", 120, "text/plain", "", time.Now()))
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	d, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.NotNil(t, d.CaseID)
	assert.Equal(t, "c1", *d.CaseID)
	assert.Nil(t, d.SessionID)

	_, err = repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListBySessionAndVerification(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+documents\s+WHERE\s+session_id\s*=\s*\$1\s+ORDER\s+BY\s+uploaded_at`).WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", nil, "s1", nil, "upload_evidence", "a.png", "k1", 1, "image/png", "", time.Now()).
			AddRow("d2", "u1", nil, "s1", nil, "upload_evidence", "b.pdf", "k2", 2, "application/pdf", "", time.Now()))
	mock.ExpectQuery(`FROM\s+documents\s+WHERE\s+verification_id\s*=\s*\$1`).WithArgs("v1").
		WillReturnError(errors.New("boom"))

	got, err := repo.ListBySession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = repo.ListByVerification(context.Background(), "v1")
	assert.ErrorContains(t, err, "failed to select documents")
}

func TestAttachSessionToCase(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+documents\s+SET\s+case_id\s*=\s*\$2\s+WHERE\s+session_id\s*=\s*\$1`).
		WithArgs("s1", "c1").WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.AttachSessionToCase(context.Background(), "s1", "c1"))
}

func TestListByCase(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+documents\s+WHERE\s+case_id\s*=\s*\$1\s+ORDER\s+BY\s+uploaded_at`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", "c1", nil, nil, "case_attachment", "lease.pdf", "k1", 10, "application/pdf", "", time.Now()))

	got, err := repo.ListByCase(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.DocumentCaseAttachment, got[0].DocumentType)
}

func TestListByUser_FiltersAndDefaultLimit(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)FROM\s+documents\s+WHERE\s+user_id\s*=\s*\$1.*document_type\s*=\s*\$2.*case_id::text\s*=\s*\$3.*session_id::text\s*=\s*\$4.*ORDER\s+BY\s+uploaded_at\s+DESC\s+LIMIT\s+\$5`
	mock.ExpectQuery(q).WithArgs("u1", "", "", "", 50).
		WillReturnRows(sqlmock.NewRows(docCols))
	mock.ExpectQuery(q).WithArgs("u1", "generated", "c1", "", 5).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("d1", "u1", "c1", nil, nil, "generated", "claim.txt", "k1", 10, "text/plain", "", time.Now()))

	got, err := repo.ListByUser(context.Background(), "u1", ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.ListByUser(context.Background(), "u1", ListFilter{DocumentType: "generated", CaseID: "c1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "claim.txt", got[0].FileName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+documents\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "d1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "d1"), common.ErrorNotFound)
}
