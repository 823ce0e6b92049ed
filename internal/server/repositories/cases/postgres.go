package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const caseColumns = `id, user_id, professional_id, title, description, category, priority, status,
	budget, rating, review, created_at, accepted_at, completed_at`

// PostgresRepository implements case storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCase(s dbx.Scanner) (*models.Case, error) {
	c := &models.Case{}
	var (
		professionalID sql.NullString
		rating         sql.NullInt64
		acceptedAt     sql.NullTime
		completedAt    sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.UserID, &professionalID, &c.Title, &c.Description, &c.Category,
		&c.Priority, &c.Status, &c.Budget, &rating, &c.Review, &c.CreatedAt, &acceptedAt, &completedAt); err != nil {
		return nil, err
	}
	c.ProfessionalID = dbx.StringPtr(professionalID)
	c.Rating = dbx.IntPtr(rating)
	c.AcceptedAt = dbx.TimePtr(acceptedAt)
	c.CompletedAt = dbx.TimePtr(completedAt)
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	query := `
		INSERT INTO cases (user_id, title, description, category, priority, budget)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, created_at
	`
	err := r.db.QueryRowContext(ctx, query, c.UserID, c.Title, c.Description, c.Category, c.Priority, c.Budget).
		Scan(&c.ID, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`

	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Case, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cases: %w", err)
	}
	defer rows.Close()

	var result []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Case, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) ListByProfessional(ctx context.Context, professionalID string) ([]*models.Case, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases WHERE professional_id = $1 ORDER BY created_at DESC`, professionalID)
}

// ListPool returns unassigned pending cases, most urgent first.
func (r *PostgresRepository) ListPool(ctx context.Context) ([]*models.Case, error) {
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases
		WHERE status = 'pending' AND professional_id IS NULL
		ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at`)
}

func (r *PostgresRepository) ListAll(ctx context.Context, f ListFilter) ([]*models.Case, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+caseColumns+` FROM cases
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, f.Status, limit, f.Offset)
}

func (r *PostgresRepository) guarded(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorConflict)
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Case) error {
	return r.guarded(ctx, `
		UPDATE cases SET title = $3, description = $4, category = $5, priority = $6, budget = $7
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`, c.ID, c.UserID, c.Title, c.Description, c.Category, c.Priority, c.Budget)
}

func (r *PostgresRepository) Accept(ctx context.Context, id, professionalID string) error {
	return r.guarded(ctx, `
		UPDATE cases SET professional_id = $2, status = 'accepted', accepted_at = NOW()
		WHERE id = $1 AND status = 'pending' AND professional_id IS NULL
	`, id, professionalID)
}

func (r *PostgresRepository) Start(ctx context.Context, id, professionalID string) error {
	return r.guarded(ctx, `
		UPDATE cases SET status = 'in_progress'
		WHERE id = $1 AND professional_id = $2 AND status = 'accepted'
	`, id, professionalID)
}

func (r *PostgresRepository) Complete(ctx context.Context, id, professionalID string) error {
	return r.guarded(ctx, `
		UPDATE cases SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND professional_id = $2 AND status IN ('accepted', 'in_progress')
	`, id, professionalID)
}

func (r *PostgresRepository) Cancel(ctx context.Context, id, userID string) error {
	return r.guarded(ctx, `
		UPDATE cases SET status = 'cancelled'
		WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'accepted')
	`, id, userID)
}

func (r *PostgresRepository) Rate(ctx context.Context, id, userID string, rating int, review string) error {
	return r.guarded(ctx, `
		UPDATE cases SET rating = $3, review = $4
		WHERE id = $1 AND user_id = $2 AND status = 'completed' AND rating IS NULL
	`, id, userID, rating, review)
}

func (r *PostgresRepository) Stats(ctx context.Context, userID string) (*models.CaseStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status IN ('accepted', 'in_progress')),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM cases
		WHERE ($1 = '' OR user_id::text = $1)
	`
	s := &models.CaseStats{}
	if err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&s.Total, &s.Pending, &s.Active, &s.Completed, &s.Cancelled); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ProfessionalStats(ctx context.Context, professionalID string) (*models.ProfessionalStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'accepted'),
		       COUNT(*) FILTER (WHERE status = 'in_progress'),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COALESCE(AVG(rating), 0)
		FROM cases
		WHERE professional_id = $1
	`
	s := &models.ProfessionalStats{}
	if err := r.db.QueryRowContext(ctx, query, professionalID).
		Scan(&s.Accepted, &s.InProgress, &s.Completed, &s.AverageRating); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
