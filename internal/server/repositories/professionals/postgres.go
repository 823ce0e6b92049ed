package professionals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const professionalColumns = `user_id, full_name, license_number, law_firm_name, specialty_areas, years_of_experience,
	bio, consultation_fee, average_rating, total_cases_handled, is_verified, verified_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProfessional(s dbx.Scanner) (*models.Professional, error) {
	p := &models.Professional{}
	var (
		areas      []byte
		verifiedAt sql.NullTime
	)
	if err := s.Scan(&p.UserID, &p.FullName, &p.LicenseNumber, &p.LawFirmName, &areas, &p.YearsOfExperience,
		&p.Bio, &p.ConsultationFee, &p.AverageRating, &p.TotalCasesHandled, &p.IsVerified, &verifiedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.SpecialtyAreas, err = dbx.ParseJSONStrings(areas); err != nil {
		return nil, err
	}
	p.VerifiedAt = dbx.TimePtr(verifiedAt)
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Professional) error {
	query := `
		INSERT INTO professionals (user_id, full_name, license_number, law_firm_name, specialty_areas,
			years_of_experience, bio, is_verified, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			full_name = EXCLUDED.full_name,
			license_number = EXCLUDED.license_number,
			law_firm_name = EXCLUDED.law_firm_name,
			specialty_areas = EXCLUDED.specialty_areas,
			years_of_experience = EXCLUDED.years_of_experience,
			bio = EXCLUDED.bio,
			is_verified = TRUE,
			verified_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.FullName, p.LicenseNumber, p.LawFirmName,
		dbx.JSONStrings(p.SpecialtyAreas), p.YearsOfExperience, p.Bio)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals WHERE user_id = $1`

	p, err := scanProfessional(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, p *models.Professional) error {
	query := `
		UPDATE professionals
		SET law_firm_name = $2, specialty_areas = $3, years_of_experience = $4, bio = $5, consultation_fee = $6
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, p.UserID, p.LawFirmName, dbx.JSONStrings(p.SpecialtyAreas),
		p.YearsOfExperience, p.Bio, p.ConsultationFee)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) List(ctx context.Context, verifiedOnly bool) ([]*models.Professional, error) {
	query := `SELECT ` + professionalColumns + ` FROM professionals
		WHERE (NOT $1 OR is_verified)
		ORDER BY average_rating DESC, total_cases_handled DESC`

	rows, err := r.db.QueryContext(ctx, query, verifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Professional
	for rows.Next() {
		p, err := scanProfessional(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE professionals SET is_verified = $2 WHERE user_id = $1`, userID, verified)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) RefreshCaseStats(ctx context.Context, userID string) error {
	query := `
		UPDATE professionals SET
			total_cases_handled = (SELECT COUNT(*) FROM cases WHERE professional_id = $1 AND status = 'completed'),
			average_rating = COALESCE((SELECT AVG(rating) FROM cases WHERE professional_id = $1 AND rating IS NOT NULL), 5.0)
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
