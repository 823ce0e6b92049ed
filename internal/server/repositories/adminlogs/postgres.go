package adminlogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.AdminLog) error {
	query := `
		INSERT INTO admin_logs (admin_id, action, target_table, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, l.AdminID, l.Action, l.TargetTable, l.TargetID,
		dbx.JSONOrEmpty(l.Details, "{}")); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.AdminLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, admin_id, action, target_table, target_id, details, performed_at
		FROM admin_logs
		ORDER BY performed_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AdminLog
	for rows.Next() {
		l := &models.AdminLog{}
		var details []byte
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.TargetTable, &l.TargetID, &details, &l.PerformedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		l.Details = details
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
