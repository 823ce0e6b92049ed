package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const documentColumns = `id, user_id, case_id, session_id, verification_id, document_type, file_name,
	storage_key, size, mime_type, ocr_text, uploaded_at`

// PostgresRepository implements document metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanDocument(s dbx.Scanner) (*models.Document, error) {
	d := &models.Document{}
	var caseID, sessionID, verificationID sql.NullString
	if err := s.Scan(&d.ID, &d.UserID, &caseID, &sessionID, &verificationID, &d.DocumentType, &d.FileName,
		&d.StorageKey, &d.Size, &d.MimeType, &d.OCRText, &d.UploadedAt); err != nil {
		return nil, err
	}
	d.CaseID = dbx.StringPtr(caseID)
	d.SessionID = dbx.StringPtr(sessionID)
	d.VerificationID = dbx.StringPtr(verificationID)
	return d, nil
}

// Create inserts the row. The caller chooses the storage key before
// uploading, so a failed insert leaves at most an orphan object.
func (r *PostgresRepository) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO documents (user_id, case_id, session_id, verification_id, document_type, file_name,
			storage_key, size, mime_type, ocr_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query, d.UserID, d.CaseID, d.SessionID, d.VerificationID, d.DocumentType,
		d.FileName, d.StorageKey, d.Size, d.MimeType, d.OCRText).Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+documentColumns+` FROM documents WHERE session_id = $1 ORDER BY uploaded_at`, sessionID)
}

func (r *PostgresRepository) ListByVerification(ctx context.Context, verificationID string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+documentColumns+` FROM documents WHERE verification_id = $1 ORDER BY uploaded_at`, verificationID)
}

func (r *PostgresRepository) ListByCase(ctx context.Context, caseID string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+documentColumns+` FROM documents WHERE case_id = $1 ORDER BY uploaded_at`, caseID)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, f ListFilter) ([]*models.Document, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE user_id = $1
		  AND ($2 = '' OR document_type = $2)
		  AND ($3 = '' OR case_id::text = $3)
		  AND ($4 = '' OR session_id::text = $4)
		ORDER BY uploaded_at DESC
		LIMIT $5`, userID, f.DocumentType, f.CaseID, f.SessionID, limit)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) AttachSessionToCase(ctx context.Context, sessionID, caseID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE documents SET case_id = $2 WHERE session_id = $1`, sessionID, caseID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
