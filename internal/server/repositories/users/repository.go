// Package users declares the repository contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

// ListFilter narrows List results. Zero values mean "any".
type ListFilter struct {
	Role   string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	List(ctx context.Context, f ListFilter) ([]*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	PromoteToProfessional(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Stats(ctx context.Context) (*models.UserStats, error)
}
