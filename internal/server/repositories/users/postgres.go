package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const userColumns = `id, username, phone, password_hash, role, is_active, is_verified, last_login_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(s dbx.Scanner) (*models.User, error) {
	u := &models.User{}
	var lastLogin sql.NullTime
	if err := s.Scan(&u.ID, &u.UserName, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.IsVerified, &lastLogin, &u.CreatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// Create inserts the user and fills in ID, flags and CreatedAt. A taken
// username yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, phone, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, is_active, is_verified, created_at`

	err := r.db.QueryRowContext(ctx, query, user.UserName, user.Phone, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.IsActive, &user.IsVerified, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, userName)
}

// List returns users newest first, optionally restricted to one role.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*models.User, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ($1 = '' OR role = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, f.Role, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
}

// PromoteToProfessional switches the role and marks the account verified.
// Admin accounts keep their role.
func (r *PostgresRepository) PromoteToProfessional(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE users
		 SET role = CASE WHEN role = 'admin' THEN role ELSE 'professional' END, is_verified = TRUE
		 WHERE id = $1`, id)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	query :=
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_active),
		        COUNT(*) FILTER (WHERE role = 'professional'),
		        COUNT(*) FILTER (WHERE role = 'admin')
		 FROM users`

	s := &models.UserStats{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Active, &s.Professionals, &s.Admins); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
