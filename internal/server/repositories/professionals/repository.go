// Package professionals stores verified professional profiles keyed by user id.
package professionals

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type Repository interface {
	// Upsert creates the profile or overwrites it from an approved
	// verification request, marking it verified.
	Upsert(ctx context.Context, p *models.Professional) error
	GetByUserID(ctx context.Context, userID string) (*models.Professional, error)
	// UpdateProfile changes the self-editable fields only.
	UpdateProfile(ctx context.Context, p *models.Professional) error
	List(ctx context.Context, verifiedOnly bool) ([]*models.Professional, error)
	SetVerified(ctx context.Context, userID string, verified bool) error
	// RefreshCaseStats recomputes total_cases_handled and average_rating from cases.
	RefreshCaseStats(ctx context.Context, userID string) error
}
