// Package adminlogs records administrative actions for audit.
package adminlogs

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, l *models.AdminLog) error
	List(ctx context.Context, limit int) ([]*models.AdminLog, error)
}
