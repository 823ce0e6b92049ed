// Package cases declares the repository contract for legal cases.
//
// State-changing methods are guarded in SQL: they only touch rows whose
// current status allows the transition and return common.ErrorConflict
// otherwise, so concurrent accept/cancel races resolve in the database.
package cases

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, c *models.Case) (*models.Case, error)
	GetByID(ctx context.Context, id string) (*models.Case, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Case, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]*models.Case, error)
	ListPool(ctx context.Context) ([]*models.Case, error)
	ListAll(ctx context.Context, f ListFilter) ([]*models.Case, error)

	// Update rewrites the editable fields of a pending case owned by c.UserID.
	Update(ctx context.Context, c *models.Case) error
	Accept(ctx context.Context, id, professionalID string) error
	Start(ctx context.Context, id, professionalID string) error
	Complete(ctx context.Context, id, professionalID string) error
	Cancel(ctx context.Context, id, userID string) error
	Rate(ctx context.Context, id, userID string, rating int, review string) error

	// Stats counts cases; an empty userID counts every case.
	Stats(ctx context.Context, userID string) (*models.CaseStats, error)
	ProfessionalStats(ctx context.Context, professionalID string) (*models.ProfessionalStats, error)
}
