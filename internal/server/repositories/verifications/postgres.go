package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const verificationColumns = `id, user_id, full_name, license_number, law_firm_name, specialty_areas,
	years_of_experience, bio, status, admin_notes, reviewed_by, reviewed_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanVerification(s dbx.Scanner) (*models.VerificationRequest, error) {
	v := &models.VerificationRequest{}
	var (
		areas      []byte
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := s.Scan(&v.ID, &v.UserID, &v.FullName, &v.LicenseNumber, &v.LawFirmName, &areas,
		&v.YearsOfExperience, &v.Bio, &v.Status, &v.AdminNotes, &reviewedBy, &reviewedAt, &v.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if v.SpecialtyAreas, err = dbx.ParseJSONStrings(areas); err != nil {
		return nil, err
	}
	v.ReviewedBy = dbx.StringPtr(reviewedBy)
	v.ReviewedAt = dbx.TimePtr(reviewedAt)
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.VerificationRequest) (*models.VerificationRequest, error) {
	query := `
		INSERT INTO verification_requests (user_id, full_name, license_number, law_firm_name, specialty_areas,
			years_of_experience, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.UserID, v.FullName, v.LicenseNumber, v.LawFirmName,
		dbx.JSONStrings(v.SpecialtyAreas), v.YearsOfExperience, v.Bio).Scan(&v.ID, &v.Status, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.VerificationRequest, error) {
	v, err := scanVerification(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM verification_requests WHERE id = $1`, id)
}

func (r *PostgresRepository) LatestForUser(ctx context.Context, userID string) (*models.VerificationRequest, error) {
	return r.getOne(ctx, `SELECT `+verificationColumns+` FROM verification_requests
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *PostgresRepository) List(ctx context.Context, status string) ([]*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.VerificationRequest
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Review(ctx context.Context, id, from, to, adminID, notes string) error {
	query := `
		UPDATE verification_requests
		SET status = $3, reviewed_by = $4, reviewed_at = NOW(), admin_notes = $5
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, from, to, adminID, notes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorConflict)
}
