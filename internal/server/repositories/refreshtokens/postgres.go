// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tokenHash, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	t := &models.RefreshToken{TokenHash: tokenHash}
	if err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&t.UserID, &t.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND expires_at > NOW()
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshToken
	for rows.Next() {
		t := &models.RefreshToken{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Expires, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
		RETURNING id, user_id, token_hash, expires_at, created_at
	`
	t := &models.RefreshToken{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Expires, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
